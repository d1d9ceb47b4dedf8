package restable

import (
	"fmt"
	"strconv"
	"strings"
)

func invert(m map[int]string) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

var (
	parseScreenSize  = invert(screenSizeNames)
	parseScreenLong  = invert(screenLongNames)
	parseScreenRound = invert(screenRoundNames)
	parseOrientation = invert(orientationNames)
	parseUIModeType  = invert(uiModeTypeNames)
	parseUIModeNight = invert(uiModeNightNames)
	parseDensity     = invert(densityNames)
	parseTouchscreen = invert(touchscreenNames)
	parseKeysHidden  = invert(keysHiddenNames)
	parseKeyboard    = invert(keyboardNames)
	parseNavHidden   = invert(navHiddenNames)
	parseNavigation  = invert(navigationNames)
)

func isLower(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

func parseDecimal(s string, max int) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 0 && n <= max
}

// ParseConfig parses resource qualifiers like "fr-rCA-land-xhdpi-v21" or
// "b+sr+Latn-night". Qualifiers may appear in any order.
func ParseConfig(s string) (Config, error) {
	var c Config
	c.Size = configSize
	if s == "" || s == "default" {
		return c, nil
	}
	parts := strings.Split(s, "-")
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		lp := strings.ToLower(p)
		if v, ok := parseScreenSize[lp]; ok && lp != "normal" {
			c.ScreenLayout |= uint8(v)
			continue
		}
		if lp == "normal" {
			// "normal" names both a screen size and a ui mode type; treat it
			// as ui mode once a screen size is present.
			if c.ScreenLayout&MaskScreenSize == 0 {
				c.ScreenLayout |= ScreenSizeNormal
			} else {
				c.UiMode |= UIModeTypeNormal
			}
			continue
		}
		if handled, err := c.parseNamed(lp); err != nil {
			return c, err
		} else if handled {
			continue
		}
		switch {
		case strings.HasPrefix(lp, "mcc"):
			n, ok := parseDecimal(lp[3:], 999)
			if !ok {
				return c, fmt.Errorf("bad mcc qualifier %q", p)
			}
			c.Mcc = uint16(n)
		case strings.HasPrefix(lp, "mnc"):
			n, ok := parseDecimal(lp[3:], 999)
			if !ok {
				return c, fmt.Errorf("bad mnc qualifier %q", p)
			}
			c.Mnc = uint16(n)
			if n == 0 {
				c.Mnc = 0xffff
			}
		case strings.HasPrefix(lp, "b+"):
			if !c.SetLocale(strings.ReplaceAll(p[2:], "+", "-")) {
				return c, fmt.Errorf("bad locale qualifier %q", p)
			}
		case lp == "ldltr":
			c.ScreenLayout |= LayoutDirLTR
		case lp == "ldrtl":
			c.ScreenLayout |= LayoutDirRTL
		case strings.HasPrefix(lp, "sw") && strings.HasSuffix(lp, "dp"):
			n, ok := parseDecimal(lp[2:len(lp)-2], 0xffff)
			if !ok {
				return c, fmt.Errorf("bad smallest width qualifier %q", p)
			}
			c.SmallestScreenWidthDp = uint16(n)
		case strings.HasPrefix(lp, "w") && strings.HasSuffix(lp, "dp"):
			n, ok := parseDecimal(lp[1:len(lp)-2], 0xffff)
			if !ok {
				return c, fmt.Errorf("bad width qualifier %q", p)
			}
			c.ScreenWidthDp = uint16(n)
		case strings.HasPrefix(lp, "h") && strings.HasSuffix(lp, "dp"):
			n, ok := parseDecimal(lp[1:len(lp)-2], 0xffff)
			if !ok {
				return c, fmt.Errorf("bad height qualifier %q", p)
			}
			c.ScreenHeightDp = uint16(n)
		case strings.HasSuffix(lp, "dpi"):
			n, ok := parseDecimal(lp[:len(lp)-3], 0xfffd)
			if !ok || n == 0 {
				return c, fmt.Errorf("bad density qualifier %q", p)
			}
			c.Density = uint16(n)
		case strings.HasPrefix(lp, "v"):
			major, minor, _ := strings.Cut(lp[1:], ".")
			n, ok := parseDecimal(major, 0xffff)
			if !ok {
				return c, fmt.Errorf("bad version qualifier %q", p)
			}
			c.SdkVersion = uint16(n)
			if minor != "" {
				m, ok := parseDecimal(minor, 0xffff)
				if !ok {
					return c, fmt.Errorf("bad version qualifier %q", p)
				}
				c.MinorVersion = uint16(m)
			}
		case strings.Contains(lp, "x") && lp[0] >= '0' && lp[0] <= '9':
			ws, hs, _ := strings.Cut(lp, "x")
			w, ok1 := parseDecimal(ws, 0xffff)
			h, ok2 := parseDecimal(hs, 0xffff)
			if !ok1 || !ok2 {
				return c, fmt.Errorf("bad screen size qualifier %q", p)
			}
			c.ScreenWidth, c.ScreenHeight = uint16(w), uint16(h)
		case (len(p) == 2 || len(p) == 3) && isLower(p) && c.Language[0] == 0:
			c.SetLanguage(p)
			if i+1 < len(parts) && len(parts[i+1]) == 3 && parts[i+1][0] == 'r' {
				c.SetRegion(parts[i+1][1:])
				i++
			}
			c.LocaleScriptWasComputed = true
			c.LocaleScript = computeScript(c.Language, c.Country)
		default:
			return c, fmt.Errorf("unknown qualifier %q", p)
		}
	}
	return c, nil
}

func (c *Config) parseNamed(lp string) (bool, error) {
	if v, ok := parseScreenLong[lp]; ok {
		c.ScreenLayout |= uint8(v)
	} else if v, ok := parseScreenRound[lp]; ok {
		c.ScreenLayout2 |= uint8(v)
	} else if v, ok := parseOrientation[lp]; ok {
		c.Orientation = uint8(v)
	} else if v, ok := parseUIModeType[lp]; ok {
		c.UiMode |= uint8(v)
	} else if v, ok := parseUIModeNight[lp]; ok {
		c.UiMode |= uint8(v)
	} else if v, ok := parseDensity[lp]; ok {
		c.Density = uint16(v)
	} else if v, ok := parseTouchscreen[lp]; ok {
		c.Touchscreen = uint8(v)
	} else if v, ok := parseKeysHidden[lp]; ok {
		c.InputFlags |= uint8(v)
	} else if v, ok := parseKeyboard[lp]; ok {
		c.Keyboard = uint8(v)
	} else if v, ok := parseNavHidden[lp]; ok {
		c.InputFlags |= uint8(v)
	} else if v, ok := parseNavigation[lp]; ok {
		c.Navigation = uint8(v)
	} else {
		return false, nil
	}
	return true, nil
}
