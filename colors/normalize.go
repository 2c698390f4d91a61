// Package colors extracts the ink colors of design objects and merges perceptually
// similar colors into clusters for billing.
package colors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// RGB is an opaque 8-bit color
type RGB struct {
	R, G, B uint8
}

// Hex returns the canonical lowercase #rrggbb form
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// NormalizeColor converts a CSS color string (hex, rgb(), rgba() or a named color) to
// canonical #rrggbb. ok is false for values that put no ink on the garment:
// empty, "none", "transparent", fully transparent alpha, or unparseable strings.
func NormalizeColor(value string) (hex string, ok bool) {
	c, ok := ParseColor(value)
	if !ok {
		return "", false
	}
	return c.Hex(), true
}

// ParseColor parses a CSS color string into RGB, see NormalizeColor
func ParseColor(value string) (RGB, bool) {
	s := strings.ToLower(strings.TrimSpace(value))
	switch {
	case s == "" || s == "none" || s == "transparent":
		return RGB{}, false
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		return parseRGBFunc(s)
	}

	named, exists := colornames.Map[s]
	if !exists || named.A == 0 {
		return RGB{}, false
	}
	return RGB{R: named.R, G: named.G, B: named.B}, true
}

func parseHex(s string) (RGB, bool) {
	digits := s[1:]
	switch len(digits) {
	case 4, 8:
		// trailing alpha digits
		alphaDigits := digits[len(digits)/4*3:]
		alpha, err := strconv.ParseUint(alphaDigits, 16, 8)
		if err != nil || alpha == 0 {
			return RGB{}, false
		}
		digits = digits[:len(digits)-len(alphaDigits)]
	case 3, 6:
	default:
		return RGB{}, false
	}

	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return RGB{}, false
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, true
}

func parseRGBFunc(s string) (RGB, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return RGB{}, false
	}
	body := s[open+1 : len(s)-1]
	// both "rgb(1, 2, 3)" and "rgb(1 2 3 / 0.5)" are accepted
	body = strings.NewReplacer(",", " ", "/", " ").Replace(body)
	parts := strings.Fields(body)
	if len(parts) != 3 && len(parts) != 4 {
		return RGB{}, false
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(parts[i])
		if !ok {
			return RGB{}, false
		}
		channels[i] = v
	}
	if len(parts) == 4 {
		alpha, ok := parseAlpha(parts[3])
		if !ok || alpha <= 0 {
			return RGB{}, false
		}
	}
	return RGB{R: channels[0], G: channels[1], B: channels[2]}, true
}

func parseChannel(part string) (uint8, bool) {
	if strings.HasSuffix(part, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(part, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clampByte(pct / 100 * 255), true
	}
	v, err := strconv.ParseFloat(part, 64)
	if err != nil {
		return 0, false
	}
	return clampByte(v), true
}

func parseAlpha(part string) (float64, bool) {
	if strings.HasSuffix(part, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(part, "%"), 64)
		if err != nil {
			return 0, false
		}
		return pct / 100, true
	}
	v, err := strconv.ParseFloat(part, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
