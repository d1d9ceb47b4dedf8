package restable

import (
	"strings"
)

// Two letter codes are stored as-is. Three letter codes are packed into 15
// bits with the high bit set.
func packLanguageOrRegion(in string, base byte) (out [2]byte) {
	switch len(in) {
	case 0:
	case 1:
		out[0] = in[0]
	case 2:
		out[0], out[1] = in[0], in[1]
	default:
		first := (in[0] - base) & 0x7f
		second := (in[1] - base) & 0x7f
		third := (in[2] - base) & 0x7f
		out[0] = 0x80 | third<<2 | second>>3
		out[1] = second<<5 | first
	}
	return
}

func unpackLanguageOrRegion(in [2]byte, base byte) string {
	if in[0]&0x80 != 0 {
		first := in[1] & 0x1f
		second := (in[1]&0xe0)>>5 + (in[0]&0x03)<<3
		third := (in[0] & 0x7c) >> 2
		return string([]byte{first + base, second + base, third + base})
	}
	if in[0] != 0 {
		return string(in[:])
	}
	return ""
}

func (c *Config) LanguageString() string { return unpackLanguageOrRegion(c.Language, 'a') }
func (c *Config) RegionString() string   { return unpackLanguageOrRegion(c.Country, '0') }

func (c *Config) SetLanguage(l string) { c.Language = packLanguageOrRegion(strings.ToLower(l), 'a') }
func (c *Config) SetRegion(r string)   { c.Country = packLanguageOrRegion(strings.ToUpper(r), '0') }

func cstr(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// Locale returns the BCP-47 tag for c, or "" for the default locale.
func (c *Config) Locale() string {
	if c.Language[0] == 0 && c.Country[0] == 0 {
		return ""
	}
	var parts []string
	if c.Language[0] != 0 {
		parts = append(parts, c.LanguageString())
	}
	if c.LocaleScript[0] != 0 && !c.LocaleScriptWasComputed {
		parts = append(parts, cstr(c.LocaleScript[:]))
	}
	if c.Country[0] != 0 {
		parts = append(parts, c.RegionString())
	}
	if c.LocaleVariant[0] != 0 {
		parts = append(parts, cstr(c.LocaleVariant[:]))
	}
	return strings.Join(parts, "-")
}

// SetLocale parses a BCP-47 tag such as "sr-Latn-RS". An empty tag clears the
// locale.
func (c *Config) SetLocale(tag string) bool {
	c.Language, c.Country = [2]byte{}, [2]byte{}
	c.LocaleScript, c.LocaleVariant = [4]byte{}, [8]byte{}
	ok := true
	if tag != "" {
		for _, part := range strings.Split(tag, "-") {
			ok = c.assignLocaleComponent(part) && ok
		}
	}
	c.LocaleScriptWasComputed = c.LocaleScript[0] == 0
	if c.LocaleScriptWasComputed {
		c.LocaleScript = computeScript(c.Language, c.Country)
	}
	return ok
}

func (c *Config) assignLocaleComponent(s string) bool {
	switch len(s) {
	case 2, 3:
		if c.Language[0] != 0 {
			c.SetRegion(s)
		} else {
			c.SetLanguage(s)
		}
		return true
	case 4:
		if s[0] < '0' || s[0] > '9' {
			copy(c.LocaleScript[:], strings.ToUpper(s[:1])+strings.ToLower(s[1:]))
			return true
		}
		fallthrough
	case 5, 6, 7, 8:
		copy(c.LocaleVariant[:], strings.ToLower(s))
		return true
	default:
		return false
	}
}

// dirLocale renders the locale as a resource directory qualifier: legacy
// "en-rUS" when possible, "b+sr+Latn+RS" otherwise.
func (c *Config) dirLocale() string {
	if c.Language[0] == 0 {
		return ""
	}
	scriptProvided := c.LocaleScript[0] != 0 && !c.LocaleScriptWasComputed
	if !scriptProvided && c.LocaleVariant[0] == 0 {
		out := c.LanguageString()
		if c.Country[0] != 0 {
			out += "-r" + c.RegionString()
		}
		return out
	}
	out := "b+" + c.LanguageString()
	if scriptProvided {
		out += "+" + cstr(c.LocaleScript[:])
	}
	if c.Country[0] != 0 {
		out += "+" + c.RegionString()
	}
	if c.LocaleVariant[0] != 0 {
		out += "+" + cstr(c.LocaleVariant[:])
	}
	return out
}

// Likely scripts for common languages. Languages missing from this table
// fall back to requiring an exact country match.
var likelyScripts = map[string]string{
	"af": "Latn", "am": "Ethi", "ar": "Arab", "az": "Latn", "be": "Cyrl", "bg": "Cyrl",
	"bn": "Beng", "bs": "Latn", "ca": "Latn", "cs": "Latn", "da": "Latn", "de": "Latn",
	"el": "Grek", "en": "Latn", "es": "Latn", "et": "Latn", "eu": "Latn", "fa": "Arab",
	"fi": "Latn", "fil": "Latn", "fr": "Latn", "gl": "Latn", "gu": "Gujr", "he": "Hebr",
	"hi": "Deva", "hr": "Latn", "hu": "Latn", "hy": "Armn", "id": "Latn", "in": "Latn",
	"is": "Latn", "it": "Latn", "iw": "Hebr", "ja": "Jpan", "ka": "Geor", "kk": "Cyrl",
	"km": "Khmr", "kn": "Knda", "ko": "Kore", "ky": "Cyrl", "lo": "Laoo", "lt": "Latn",
	"lv": "Latn", "mk": "Cyrl", "ml": "Mlym", "mn": "Cyrl", "mr": "Deva", "ms": "Latn",
	"my": "Mymr", "nb": "Latn", "ne": "Deva", "nl": "Latn", "pa": "Guru", "pl": "Latn",
	"pt": "Latn", "ro": "Latn", "ru": "Cyrl", "si": "Sinh", "sk": "Latn", "sl": "Latn",
	"sq": "Latn", "sr": "Cyrl", "sv": "Latn", "sw": "Latn", "ta": "Taml", "te": "Telu",
	"th": "Thai", "tr": "Latn", "uk": "Cyrl", "ur": "Arab", "uz": "Latn", "vi": "Latn",
	"zh": "Hans", "zu": "Latn",
}

// Regions whose likely script differs from the language default.
var likelyRegionScripts = map[string]string{
	"zh-TW": "Hant", "zh-HK": "Hant", "zh-MO": "Hant",
	"pa-PK": "Arab", "uz-AF": "Arab", "sr-ME": "Latn",
}

func computeScript(lang, region [2]byte) (out [4]byte) {
	if lang[0] == 0 {
		return
	}
	l := unpackLanguageOrRegion(lang, 'a')
	if r := unpackLanguageOrRegion(region, '0'); r != "" {
		if s, ok := likelyRegionScripts[l+"-"+r]; ok {
			copy(out[:], s)
			return
		}
	}
	copy(out[:], likelyScripts[l])
	return
}

// English variants that follow US conventions rather than en-001.
var usEnglishRegions = map[string]bool{
	"": true, "US": true, "AS": true, "GU": true, "MH": true, "MP": true,
	"PR": true, "UM": true, "VI": true,
}

func isCloseToUSEnglish(region [2]byte) bool {
	return usEnglishRegions[unpackLanguageOrRegion(region, '0')]
}

// compareRegions prefers an exact match of the requested region, then no
// region over a different one.
func compareRegions(left, right, requested [2]byte) int {
	if left == right {
		return 0
	}
	if left == requested {
		return 1
	}
	if right == requested {
		return -1
	}
	if left[0] == 0 {
		return 1
	}
	if right[0] == 0 {
		return -1
	}
	return 0
}
