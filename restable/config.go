package restable

import (
	"bytes"
	"fmt"
	"strings"
)

// Configuration axis bits, shared between Config.Diff and type spec flags.
const (
	ConfigMCC                = 0x0001
	ConfigMNC                = 0x0002
	ConfigLocale             = 0x0004
	ConfigTouchscreen        = 0x0008
	ConfigKeyboard           = 0x0010
	ConfigKeyboardHidden     = 0x0020
	ConfigNavigation         = 0x0040
	ConfigOrientation        = 0x0080
	ConfigDensity            = 0x0100
	ConfigScreenSize         = 0x0200
	ConfigVersion            = 0x0400
	ConfigScreenLayout       = 0x0800
	ConfigUIMode             = 0x1000
	ConfigSmallestScreenSize = 0x2000
	ConfigLayoutDir          = 0x4000
	ConfigScreenRound        = 0x8000
	ConfigColorMode          = 0x10000
	ConfigGrammaticalGender  = 0x20000
)

const (
	OrientationPort   = 1
	OrientationLand   = 2
	OrientationSquare = 3

	TouchscreenNoTouch = 1
	TouchscreenStylus  = 2
	TouchscreenFinger  = 3

	DensityDefault = 0
	DensityLow     = 120
	DensityMedium  = 160
	DensityTV      = 213
	DensityHigh    = 240
	DensityXHigh   = 320
	DensityXXHigh  = 480
	DensityXXXHigh = 640
	DensityAny     = 0xfffe
	DensityNone    = 0xffff

	KeyboardNoKeys = 1
	KeyboardQwerty = 2
	Keyboard12Key  = 3

	NavigationNoNav     = 1
	NavigationDpad      = 2
	NavigationTrackball = 3
	NavigationWheel     = 4

	MaskKeysHidden = 0x03
	KeysHiddenNo   = 1
	KeysHiddenYes  = 2
	KeysHiddenSoft = 3

	MaskNavHidden = 0x0c
	NavHiddenNo   = 0x04
	NavHiddenYes  = 0x08

	MaskScreenSize    = 0x0f
	ScreenSizeSmall   = 1
	ScreenSizeNormal  = 2
	ScreenSizeLarge   = 3
	ScreenSizeXLarge  = 4
	MaskScreenLong    = 0x30
	ScreenLongNo      = 0x10
	ScreenLongYes     = 0x20
	MaskLayoutDir     = 0xc0
	LayoutDirLTR      = 0x40
	LayoutDirRTL      = 0x80
	MaskUIModeType    = 0x0f
	UIModeTypeNormal  = 1
	UIModeTypeDesk    = 2
	UIModeTypeCar     = 3
	UIModeTypeTV      = 4
	UIModeTypeAppl    = 5
	UIModeTypeWatch   = 6
	UIModeTypeVR      = 7
	MaskUIModeNight   = 0x30
	UIModeNightNo     = 0x10
	UIModeNightYes    = 0x20
	MaskScreenRound   = 0x03
	ScreenRoundNo     = 1
	ScreenRoundYes    = 2
	MaskWideColor     = 0x03
	MaskHDR           = 0x0c
	MaskGrammGender   = 0x03
	minConfigReadSize = 4
)

// ReadConfig decodes a ResTable_config. Configs written by older tools are
// shorter; the missing fields read as zero. Trailing fields unknown to this
// version are ignored.
func ReadConfig(b []byte) (Config, error) {
	var c Config
	if len(b) < minConfigReadSize {
		return c, malformed("config too small")
	}
	size := int(u32(b, 0))
	if size < minConfigReadSize || size > len(b) {
		return c, malformed("config size %d out of range (%d available)", size, len(b))
	}
	var buf [configSize]byte
	copy(buf[:], b[:min(size, configSize)])
	if err := unpackBytes(buf[:], &c); err != nil {
		return c, err
	}
	c.Size = configSize
	return c, nil
}

// Bytes encodes c in its 64-byte wire form.
func (c Config) Bytes() []byte {
	c.Size = configSize
	b, err := packToBytes(&c)
	if err != nil {
		panic(err)
	}
	return b
}

func (c *Config) imsi() uint32 { return uint32(c.Mcc) | uint32(c.Mnc)<<16 }
func (c *Config) locale() uint32 {
	return uint32(c.Language[0]) | uint32(c.Language[1])<<8 | uint32(c.Country[0])<<16 | uint32(c.Country[1])<<24
}
func (c *Config) screenType() uint32 {
	return uint32(c.Orientation) | uint32(c.Touchscreen)<<8 | uint32(c.Density)<<16
}
func (c *Config) input() uint32 {
	return uint32(c.Keyboard) | uint32(c.Navigation)<<8 | uint32(c.InputFlags)<<16
}
func (c *Config) screenSize() uint32 { return uint32(c.ScreenWidth) | uint32(c.ScreenHeight)<<16 }
func (c *Config) version() uint32    { return uint32(c.SdkVersion) | uint32(c.MinorVersion)<<16 }
func (c *Config) screenConfig() uint32 {
	return uint32(c.ScreenLayout) | uint32(c.UiMode)<<8 | uint32(c.SmallestScreenWidthDp)<<16
}
func (c *Config) screenSizeDp() uint32 {
	return uint32(c.ScreenWidthDp) | uint32(c.ScreenHeightDp)<<16
}
func (c *Config) screenConfig2() uint32 {
	return uint32(c.ScreenLayout2) | uint32(c.ColorMode)<<8 | uint32(c.ScreenConfigPad2)<<16
}

func cmp32(a, b uint32) int { return int(int32(a - b)) }

func compareLocales(l, r *Config) int {
	if l.locale() != r.locale() {
		return cmp32(l.locale(), r.locale())
	}
	var empty [4]byte
	ls, rs := l.LocaleScript, r.LocaleScript
	if l.LocaleScriptWasComputed {
		ls = empty
	}
	if r.LocaleScriptWasComputed {
		rs = empty
	}
	if d := bytes.Compare(ls[:], rs[:]); d != 0 {
		return d
	}
	return bytes.Compare(l.LocaleVariant[:], r.LocaleVariant[:])
}

// Compare gives a stable total order; zero means the configs are equivalent
// for resource selection.
func (c *Config) Compare(o *Config) int {
	if d := cmp32(c.imsi(), o.imsi()); d != 0 {
		return d
	}
	if d := compareLocales(c, o); d != 0 {
		return d
	}
	if d := cmp32(c.screenType(), o.screenType()); d != 0 {
		return d
	}
	if d := cmp32(c.input(), o.input()); d != 0 {
		return d
	}
	if d := cmp32(c.screenSize(), o.screenSize()); d != 0 {
		return d
	}
	if d := cmp32(c.version(), o.version()); d != 0 {
		return d
	}
	if d := int(c.ScreenLayout) - int(o.ScreenLayout); d != 0 {
		return d
	}
	if d := int(c.ScreenLayout2) - int(o.ScreenLayout2); d != 0 {
		return d
	}
	if d := int(c.UiMode) - int(o.UiMode); d != 0 {
		return d
	}
	if d := int(c.SmallestScreenWidthDp) - int(o.SmallestScreenWidthDp); d != 0 {
		return d
	}
	return cmp32(c.screenSizeDp(), o.screenSizeDp())
}

// Diff returns the Config* bits of every axis on which c and o differ.
func (c *Config) Diff(o *Config) uint32 {
	var diffs uint32
	if c.Mcc != o.Mcc {
		diffs |= ConfigMCC
	}
	if c.Mnc != o.Mnc {
		diffs |= ConfigMNC
	}
	if c.Orientation != o.Orientation {
		diffs |= ConfigOrientation
	}
	if c.Density != o.Density {
		diffs |= ConfigDensity
	}
	if c.Touchscreen != o.Touchscreen {
		diffs |= ConfigTouchscreen
	}
	if (c.InputFlags^o.InputFlags)&(MaskKeysHidden|MaskNavHidden) != 0 {
		diffs |= ConfigKeyboardHidden
	}
	if c.Keyboard != o.Keyboard {
		diffs |= ConfigKeyboard
	}
	if c.Navigation != o.Navigation {
		diffs |= ConfigNavigation
	}
	if c.screenSize() != o.screenSize() {
		diffs |= ConfigScreenSize
	}
	if c.version() != o.version() {
		diffs |= ConfigVersion
	}
	if c.ScreenLayout&MaskLayoutDir != o.ScreenLayout&MaskLayoutDir {
		diffs |= ConfigLayoutDir
	}
	if c.ScreenLayout&^MaskLayoutDir != o.ScreenLayout&^MaskLayoutDir {
		diffs |= ConfigScreenLayout
	}
	if c.ScreenLayout2&MaskScreenRound != o.ScreenLayout2&MaskScreenRound {
		diffs |= ConfigScreenRound
	}
	if c.ColorMode != o.ColorMode {
		diffs |= ConfigColorMode
	}
	if c.GrammaticalInflection&MaskGrammGender != o.GrammaticalInflection&MaskGrammGender {
		diffs |= ConfigGrammaticalGender
	}
	if c.UiMode != o.UiMode {
		diffs |= ConfigUIMode
	}
	if c.SmallestScreenWidthDp != o.SmallestScreenWidthDp {
		diffs |= ConfigSmallestScreenSize
	}
	if c.screenSizeDp() != o.screenSizeDp() {
		diffs |= ConfigScreenSize
	}
	if compareLocales(c, o) != 0 {
		diffs |= ConfigLocale
	}
	return diffs
}

func (c *Config) isLocaleMoreSpecificThan(o *Config) int {
	if c.locale() != 0 || o.locale() != 0 {
		if c.Language[0] != o.Language[0] {
			if c.Language[0] == 0 {
				return -1
			}
			if o.Language[0] == 0 {
				return 1
			}
		}
		if c.Country[0] != o.Country[0] {
			if c.Country[0] == 0 {
				return -1
			}
			if o.Country[0] == 0 {
				return 1
			}
		}
	}
	// variants outrank scripts
	score := func(x *Config) int {
		s := 0
		if x.LocaleScript[0] != 0 && !x.LocaleScriptWasComputed {
			s++
		}
		if x.LocaleVariant[0] != 0 {
			s += 2
		}
		return s
	}
	return score(c) - score(o)
}

// morePresent decides between two values of one axis when only one is set.
// It returns (result, decided).
func morePresent(a, b bool) (bool, bool) {
	if a == b {
		return false, false
	}
	return a, true
}

// IsMoreSpecificThan reports whether c names more axes than o, in order of
// axis importance.
func (c *Config) IsMoreSpecificThan(o *Config) bool {
	if c.imsi() != 0 || o.imsi() != 0 {
		if c.Mcc != o.Mcc {
			if r, ok := morePresent(c.Mcc != 0, o.Mcc != 0); ok {
				return r
			}
		}
		if c.Mnc != o.Mnc {
			if r, ok := morePresent(c.Mnc != 0, o.Mnc != 0); ok {
				return r
			}
		}
	}
	if c.locale() != 0 || o.locale() != 0 {
		if d := c.isLocaleMoreSpecificThan(o); d != 0 {
			return d > 0
		}
	}
	masked := func(a, b, mask uint8) (bool, bool) {
		if (a^b)&mask == 0 {
			return false, false
		}
		return morePresent(a&mask != 0, b&mask != 0)
	}
	if c.ScreenLayout != 0 || o.ScreenLayout != 0 {
		if r, ok := masked(c.ScreenLayout, o.ScreenLayout, MaskLayoutDir); ok {
			return r
		}
	}
	if c.SmallestScreenWidthDp != o.SmallestScreenWidthDp {
		if r, ok := morePresent(c.SmallestScreenWidthDp != 0, o.SmallestScreenWidthDp != 0); ok {
			return r
		}
	}
	if c.screenSizeDp() != 0 || o.screenSizeDp() != 0 {
		if c.ScreenWidthDp != o.ScreenWidthDp {
			if r, ok := morePresent(c.ScreenWidthDp != 0, o.ScreenWidthDp != 0); ok {
				return r
			}
		}
		if c.ScreenHeightDp != o.ScreenHeightDp {
			if r, ok := morePresent(c.ScreenHeightDp != 0, o.ScreenHeightDp != 0); ok {
				return r
			}
		}
	}
	if c.ScreenLayout != 0 || o.ScreenLayout != 0 {
		if r, ok := masked(c.ScreenLayout, o.ScreenLayout, MaskScreenSize); ok {
			return r
		}
		if r, ok := masked(c.ScreenLayout, o.ScreenLayout, MaskScreenLong); ok {
			return r
		}
	}
	if c.ScreenLayout2 != 0 || o.ScreenLayout2 != 0 {
		if r, ok := masked(c.ScreenLayout2, o.ScreenLayout2, MaskScreenRound); ok {
			return r
		}
	}
	if c.Orientation != o.Orientation {
		if r, ok := morePresent(c.Orientation != 0, o.Orientation != 0); ok {
			return r
		}
	}
	if c.UiMode != 0 || o.UiMode != 0 {
		if r, ok := masked(c.UiMode, o.UiMode, MaskUIModeType); ok {
			return r
		}
		if r, ok := masked(c.UiMode, o.UiMode, MaskUIModeNight); ok {
			return r
		}
	}
	// density is never more specific: the default is just 160
	if c.Touchscreen != o.Touchscreen {
		if r, ok := morePresent(c.Touchscreen != 0, o.Touchscreen != 0); ok {
			return r
		}
	}
	if c.input() != 0 || o.input() != 0 {
		if r, ok := masked(c.InputFlags, o.InputFlags, MaskKeysHidden); ok {
			return r
		}
		if r, ok := masked(c.InputFlags, o.InputFlags, MaskNavHidden); ok {
			return r
		}
		if c.Keyboard != o.Keyboard {
			if r, ok := morePresent(c.Keyboard != 0, o.Keyboard != 0); ok {
				return r
			}
		}
		if c.Navigation != o.Navigation {
			if r, ok := morePresent(c.Navigation != 0, o.Navigation != 0); ok {
				return r
			}
		}
	}
	if c.screenSize() != 0 || o.screenSize() != 0 {
		if c.ScreenWidth != o.ScreenWidth {
			if r, ok := morePresent(c.ScreenWidth != 0, o.ScreenWidth != 0); ok {
				return r
			}
		}
		if c.ScreenHeight != o.ScreenHeight {
			if r, ok := morePresent(c.ScreenHeight != 0, o.ScreenHeight != 0); ok {
				return r
			}
		}
	}
	if c.version() != 0 || o.version() != 0 {
		if c.SdkVersion != o.SdkVersion {
			if r, ok := morePresent(c.SdkVersion != 0, o.SdkVersion != 0); ok {
				return r
			}
		}
		if c.MinorVersion != o.MinorVersion {
			if r, ok := morePresent(c.MinorVersion != 0, o.MinorVersion != 0); ok {
				return r
			}
		}
	}
	return false
}

func (c *Config) isLocaleBetterThan(o, req *Config) bool {
	if req.locale() == 0 {
		return false
	}
	if c.locale() == 0 && o.locale() == 0 {
		return false
	}
	if c.Language[0] != o.Language[0] {
		// One matched by having the language, the other by having none.
		// Resources without a language are where US English traditionally
		// lives, so prefer them for US-like English requests.
		if req.Language == [2]byte{'e', 'n'} {
			us := func(cc [2]byte) bool { return cc[0] == 0 || cc == [2]byte{'U', 'S'} }
			if req.Country == [2]byte{'U', 'S'} {
				if c.Language[0] != 0 {
					return us(c.Country)
				}
				return !us(o.Country)
			} else if isCloseToUSEnglish(req.Country) {
				if c.Language[0] != 0 {
					return isCloseToUSEnglish(c.Country)
				}
				return !isCloseToUSEnglish(o.Country)
			}
		}
		return c.Language[0] != 0
	}
	if d := compareRegions(c.Country, o.Country, req.Country); d != 0 {
		return d > 0
	}
	if req.LocaleVariant[0] != 0 && c.LocaleVariant == req.LocaleVariant {
		return o.LocaleVariant != req.LocaleVariant
	}
	return false
}

// IsBetterThan reports whether c is a better match for req than o. Both
// must already match req. A nil req falls back to IsMoreSpecificThan.
func (c *Config) IsBetterThan(o, req *Config) bool {
	if req == nil {
		return c.IsMoreSpecificThan(o)
	}
	if c.imsi() != 0 || o.imsi() != 0 {
		if c.Mcc != o.Mcc && req.Mcc != 0 {
			return c.Mcc != 0
		}
		if c.Mnc != o.Mnc && req.Mnc != 0 {
			return c.Mnc != 0
		}
	}
	if c.isLocaleBetterThan(o, req) {
		return true
	} else if o.isLocaleBetterThan(c, req) {
		return false
	}
	if c.ScreenLayout != 0 || o.ScreenLayout != 0 {
		if (c.ScreenLayout^o.ScreenLayout)&MaskLayoutDir != 0 && req.ScreenLayout&MaskLayoutDir != 0 {
			return c.ScreenLayout&MaskLayoutDir > o.ScreenLayout&MaskLayoutDir
		}
	}
	if c.SmallestScreenWidthDp != 0 || o.SmallestScreenWidthDp != 0 {
		// larger ones were filtered out by Match, so the largest is closest
		if c.SmallestScreenWidthDp != o.SmallestScreenWidthDp {
			return c.SmallestScreenWidthDp > o.SmallestScreenWidthDp
		}
	}
	if c.screenSizeDp() != 0 || o.screenSizeDp() != 0 {
		myDelta, otherDelta := 0, 0
		if req.ScreenWidthDp != 0 {
			myDelta += int(req.ScreenWidthDp) - int(c.ScreenWidthDp)
			otherDelta += int(req.ScreenWidthDp) - int(o.ScreenWidthDp)
		}
		if req.ScreenHeightDp != 0 {
			myDelta += int(req.ScreenHeightDp) - int(c.ScreenHeightDp)
			otherDelta += int(req.ScreenHeightDp) - int(o.ScreenHeightDp)
		}
		if myDelta != otherDelta {
			return myDelta < otherDelta
		}
	}
	if c.ScreenLayout != 0 || o.ScreenLayout != 0 {
		if (c.ScreenLayout^o.ScreenLayout)&MaskScreenSize != 0 && req.ScreenLayout&MaskScreenSize != 0 {
			// undefined counts as normal, unless the request is smaller than normal
			mySL := int(c.ScreenLayout & MaskScreenSize)
			oSL := int(o.ScreenLayout & MaskScreenSize)
			fixedMy, fixedO := mySL, oSL
			if int(req.ScreenLayout&MaskScreenSize) >= ScreenSizeNormal {
				if fixedMy == 0 {
					fixedMy = ScreenSizeNormal
				}
				if fixedO == 0 {
					fixedO = ScreenSizeNormal
				}
			}
			if fixedMy == fixedO {
				return mySL != 0
			}
			return fixedMy > fixedO
		}
		if (c.ScreenLayout^o.ScreenLayout)&MaskScreenLong != 0 && req.ScreenLayout&MaskScreenLong != 0 {
			return c.ScreenLayout&MaskScreenLong != 0
		}
	}
	if c.ScreenLayout2 != 0 || o.ScreenLayout2 != 0 {
		if (c.ScreenLayout2^o.ScreenLayout2)&MaskScreenRound != 0 && req.ScreenLayout2&MaskScreenRound != 0 {
			return c.ScreenLayout2&MaskScreenRound != 0
		}
	}
	if c.Orientation != o.Orientation && req.Orientation != 0 {
		return c.Orientation != 0
	}
	if c.UiMode != 0 || o.UiMode != 0 {
		if (c.UiMode^o.UiMode)&MaskUIModeType != 0 && req.UiMode&MaskUIModeType != 0 {
			return c.UiMode&MaskUIModeType != 0
		}
		if (c.UiMode^o.UiMode)&MaskUIModeNight != 0 && req.UiMode&MaskUIModeNight != 0 {
			return c.UiMode&MaskUIModeNight != 0
		}
	}
	if c.screenType() != 0 || o.screenType() != 0 {
		if c.Density != o.Density {
			return c.isDensityBetterThan(o, req)
		}
		if c.Touchscreen != o.Touchscreen && req.Touchscreen != 0 {
			return c.Touchscreen != 0
		}
	}
	if c.input() != 0 || o.input() != 0 {
		keysHidden := c.InputFlags & MaskKeysHidden
		oKeysHidden := o.InputFlags & MaskKeysHidden
		if keysHidden != oKeysHidden {
			if reqKeysHidden := req.InputFlags & MaskKeysHidden; reqKeysHidden != 0 {
				if keysHidden == 0 {
					return false
				}
				if oKeysHidden == 0 {
					return true
				}
				// keysexposed matches keyssoft too; the exact one wins
				if reqKeysHidden == keysHidden {
					return true
				}
				if reqKeysHidden == oKeysHidden {
					return false
				}
			}
		}
		navHidden := c.InputFlags & MaskNavHidden
		oNavHidden := o.InputFlags & MaskNavHidden
		if navHidden != oNavHidden && req.InputFlags&MaskNavHidden != 0 {
			if navHidden == 0 {
				return false
			}
			if oNavHidden == 0 {
				return true
			}
		}
		if c.Keyboard != o.Keyboard && req.Keyboard != 0 {
			return c.Keyboard != 0
		}
		if c.Navigation != o.Navigation && req.Navigation != 0 {
			return c.Navigation != 0
		}
	}
	if c.screenSize() != 0 || o.screenSize() != 0 {
		myDelta, otherDelta := 0, 0
		if req.ScreenWidth != 0 {
			myDelta += int(req.ScreenWidth) - int(c.ScreenWidth)
			otherDelta += int(req.ScreenWidth) - int(o.ScreenWidth)
		}
		if req.ScreenHeight != 0 {
			myDelta += int(req.ScreenHeight) - int(c.ScreenHeight)
			otherDelta += int(req.ScreenHeight) - int(o.ScreenHeight)
		}
		if myDelta != otherDelta {
			return myDelta < otherDelta
		}
	}
	if c.version() != 0 || o.version() != 0 {
		if c.SdkVersion != o.SdkVersion && req.SdkVersion != 0 {
			return c.SdkVersion > o.SdkVersion
		}
		if c.MinorVersion != o.MinorVersion && req.MinorVersion != 0 {
			return c.MinorVersion != 0
		}
	}
	return false
}

// Any density can be scaled, but scaling down is preferred over scaling up.
func (c *Config) isDensityBetterThan(o, req *Config) bool {
	this := int(c.Density)
	if this == 0 {
		this = DensityMedium
	}
	other := int(o.Density)
	if other == 0 {
		other = DensityMedium
	}
	if this == DensityAny {
		return true
	} else if other == DensityAny {
		return false
	}
	reqDensity := int(req.Density)
	if reqDensity == 0 || reqDensity == DensityAny {
		reqDensity = DensityMedium
	}
	h, l := this, other
	imBigger := true
	if l > h {
		h, l = l, h
		imBigger = false
	}
	if reqDensity >= h {
		return imBigger
	}
	if l >= reqDensity {
		return !imBigger
	}
	// scaling down is 2x better than up
	if (2*l-reqDensity)*h > reqDensity*reqDensity {
		return !imBigger
	}
	return imBigger
}

// Match reports whether a resource with config c may be used on a device
// with config settings.
func (c *Config) Match(settings *Config) bool {
	if c.imsi() != 0 {
		if c.Mcc != 0 && c.Mcc != settings.Mcc {
			return false
		}
		if c.Mnc != 0 && c.Mnc != settings.Mnc {
			return false
		}
	}
	if c.locale() != 0 {
		if c.Language != settings.Language {
			return false
		}
		countriesMustMatch := false
		var script [4]byte
		if settings.LocaleScript[0] == 0 {
			countriesMustMatch = true
		} else if c.LocaleScript[0] == 0 && !c.LocaleScriptWasComputed {
			script = computeScript(c.Language, c.Country)
			countriesMustMatch = script[0] == 0
		} else {
			script = c.LocaleScript
		}
		if countriesMustMatch {
			if c.Country[0] != 0 && c.Country != settings.Country {
				return false
			}
		} else if script != settings.LocaleScript {
			return false
		}
	}
	if c.screenConfig() != 0 {
		if ld := c.ScreenLayout & MaskLayoutDir; ld != 0 && ld != settings.ScreenLayout&MaskLayoutDir {
			return false
		}
		// larger screens than the device do not match
		if ss := c.ScreenLayout & MaskScreenSize; ss != 0 && ss > settings.ScreenLayout&MaskScreenSize {
			return false
		}
		if sl := c.ScreenLayout & MaskScreenLong; sl != 0 && sl != settings.ScreenLayout&MaskScreenLong {
			return false
		}
		if t := c.UiMode & MaskUIModeType; t != 0 && t != settings.UiMode&MaskUIModeType {
			return false
		}
		if n := c.UiMode & MaskUIModeNight; n != 0 && n != settings.UiMode&MaskUIModeNight {
			return false
		}
		if c.SmallestScreenWidthDp != 0 && c.SmallestScreenWidthDp > settings.SmallestScreenWidthDp {
			return false
		}
	}
	if c.screenConfig2() != 0 {
		if r := c.ScreenLayout2 & MaskScreenRound; r != 0 && r != settings.ScreenLayout2&MaskScreenRound {
			return false
		}
	}
	if c.screenSizeDp() != 0 {
		if c.ScreenWidthDp != 0 && c.ScreenWidthDp > settings.ScreenWidthDp {
			return false
		}
		if c.ScreenHeightDp != 0 && c.ScreenHeightDp > settings.ScreenHeightDp {
			return false
		}
	}
	if c.screenType() != 0 {
		if c.Orientation != 0 && c.Orientation != settings.Orientation {
			return false
		}
		// density always matches, it can be scaled
		if c.Touchscreen != 0 && c.Touchscreen != settings.Touchscreen {
			return false
		}
	}
	if c.input() != 0 {
		kh := c.InputFlags & MaskKeysHidden
		setKh := settings.InputFlags & MaskKeysHidden
		if kh != 0 && kh != setKh {
			// keysexposed also matches a device reporting keyssoft
			if kh != KeysHiddenNo || setKh != KeysHiddenSoft {
				return false
			}
		}
		if nh := c.InputFlags & MaskNavHidden; nh != 0 && nh != settings.InputFlags&MaskNavHidden {
			return false
		}
		if c.Keyboard != 0 && c.Keyboard != settings.Keyboard {
			return false
		}
		if c.Navigation != 0 && c.Navigation != settings.Navigation {
			return false
		}
	}
	if c.screenSize() != 0 {
		if c.ScreenWidth != 0 && c.ScreenWidth > settings.ScreenWidth {
			return false
		}
		if c.ScreenHeight != 0 && c.ScreenHeight > settings.ScreenHeight {
			return false
		}
	}
	if c.version() != 0 {
		if c.SdkVersion != 0 && c.SdkVersion > settings.SdkVersion {
			return false
		}
		if c.MinorVersion != 0 && c.MinorVersion != settings.MinorVersion {
			return false
		}
	}
	return true
}

// String renders c in resource directory qualifier form, e.g.
// "fr-rCA-land-xhdpi-v21". The default config renders as "".
func (c Config) String() string {
	var parts []string
	add := func(f string, args ...any) { parts = append(parts, fmt.Sprintf(f, args...)) }
	if c.Mcc != 0 {
		add("mcc%d", c.Mcc)
	}
	if c.Mnc != 0 {
		add("mnc%d", c.Mnc)
	}
	if l := c.dirLocale(); l != "" {
		parts = append(parts, l)
	}
	switch c.ScreenLayout & MaskLayoutDir {
	case 0:
	case LayoutDirLTR:
		add("ldltr")
	case LayoutDirRTL:
		add("ldrtl")
	}
	if c.SmallestScreenWidthDp != 0 {
		add("sw%ddp", c.SmallestScreenWidthDp)
	}
	if c.ScreenWidthDp != 0 {
		add("w%ddp", c.ScreenWidthDp)
	}
	if c.ScreenHeightDp != 0 {
		add("h%ddp", c.ScreenHeightDp)
	}
	addNamed(&parts, int(c.ScreenLayout&MaskScreenSize), screenSizeNames, "screenLayoutSize=%d")
	addNamed(&parts, int(c.ScreenLayout&MaskScreenLong), screenLongNames, "screenLayoutLong=%d")
	addNamed(&parts, int(c.ScreenLayout2&MaskScreenRound), screenRoundNames, "screenRound=%d")
	addNamed(&parts, int(c.Orientation), orientationNames, "orientation=%d")
	addNamed(&parts, int(c.UiMode&MaskUIModeType), uiModeTypeNames, "uiModeType=%d")
	addNamed(&parts, int(c.UiMode&MaskUIModeNight), uiModeNightNames, "uiModeNight=%d")
	addNamed(&parts, int(c.Density), densityNames, "%ddpi")
	addNamed(&parts, int(c.Touchscreen), touchscreenNames, "touchscreen=%d")
	addNamed(&parts, int(c.InputFlags&MaskKeysHidden), keysHiddenNames, "keysHidden=%d")
	addNamed(&parts, int(c.Keyboard), keyboardNames, "keyboard=%d")
	addNamed(&parts, int(c.InputFlags&MaskNavHidden), navHiddenNames, "inputFlagsNavHidden=%d")
	addNamed(&parts, int(c.Navigation), navigationNames, "navigation=%d")
	if c.screenSize() != 0 {
		add("%dx%d", c.ScreenWidth, c.ScreenHeight)
	}
	if c.version() != 0 {
		v := fmt.Sprintf("v%d", c.SdkVersion)
		if c.MinorVersion != 0 {
			v += fmt.Sprintf(".%d", c.MinorVersion)
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, "-")
}

func addNamed(parts *[]string, v int, names map[int]string, unknown string) {
	if v == 0 {
		return
	}
	if n, ok := names[v]; ok {
		*parts = append(*parts, n)
	} else {
		*parts = append(*parts, fmt.Sprintf(unknown, v))
	}
}

var (
	screenSizeNames  = map[int]string{ScreenSizeSmall: "small", ScreenSizeNormal: "normal", ScreenSizeLarge: "large", ScreenSizeXLarge: "xlarge"}
	screenLongNames  = map[int]string{ScreenLongNo: "notlong", ScreenLongYes: "long"}
	screenRoundNames = map[int]string{ScreenRoundNo: "notround", ScreenRoundYes: "round"}
	orientationNames = map[int]string{OrientationPort: "port", OrientationLand: "land", OrientationSquare: "square"}
	uiModeTypeNames  = map[int]string{
		UIModeTypeNormal: "normal", UIModeTypeDesk: "desk", UIModeTypeCar: "car", UIModeTypeTV: "television",
		UIModeTypeAppl: "appliance", UIModeTypeWatch: "watch", UIModeTypeVR: "vrheadset",
	}
	uiModeNightNames = map[int]string{UIModeNightNo: "notnight", UIModeNightYes: "night"}
	densityNames     = map[int]string{
		DensityLow: "ldpi", DensityMedium: "mdpi", DensityTV: "tvdpi", DensityHigh: "hdpi", DensityXHigh: "xhdpi",
		DensityXXHigh: "xxhdpi", DensityXXXHigh: "xxxhdpi", DensityNone: "nodpi", DensityAny: "anydpi",
	}
	touchscreenNames = map[int]string{TouchscreenNoTouch: "notouch", TouchscreenFinger: "finger", TouchscreenStylus: "stylus"}
	keysHiddenNames  = map[int]string{KeysHiddenNo: "keysexposed", KeysHiddenYes: "keyshidden", KeysHiddenSoft: "keyssoft"}
	keyboardNames    = map[int]string{KeyboardNoKeys: "nokeys", KeyboardQwerty: "qwerty", Keyboard12Key: "12key"}
	navHiddenNames   = map[int]string{NavHiddenNo: "navexposed", NavHiddenYes: "navhidden"}
	navigationNames  = map[int]string{NavigationNoNav: "nonav", NavigationDpad: "dpad", NavigationTrackball: "trackball", NavigationWheel: "wheel"}
)
