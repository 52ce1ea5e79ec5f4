package canvas

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ANSI escape codes
const (
	ColorReset = "\033[0m"
	StyleBold  = "\033[1m"
	StyleDim   = "\033[2m"
)

// ParseColor parses a CSS hex colour (#rgb or #rrggbb). Empty strings,
// "none" and "transparent" report false so callers can skip painting.
func ParseColor(s string) (colorful.Color, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", "transparent":
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// RGBA converts a CSS hex colour to an opaque color.RGBA.
func RGBA(s string) (color.RGBA, bool) {
	c, ok := ParseColor(s)
	if !ok {
		return color.RGBA{}, false
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}

// ANSI returns the 24-bit foreground escape sequence for a CSS hex colour,
// or "" when it cannot be parsed.
func ANSI(s string) string {
	c, ok := ParseColor(s)
	if !ok {
		return ""
	}
	r, g, b := c.Clamped().RGB255()
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b)
}
