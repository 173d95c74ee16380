package formats

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrInvalidColor is returned for color values that are neither a known name,
// a hex string nor an RGB triple.
var ErrInvalidColor = errors.New("invalid color")

// Color is an RGB color with components in 0..1. Set is false when the
// payload did not supply a color, so callers can apply their own default.
type Color struct {
	R, G, B float32
	Set     bool
}

// cssColors covers the color names that appear in scene payloads.
var cssColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"lime":    "#00ff00",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
	"grey":    "#808080",
	"gray":    "#808080",
	"silver":  "#c0c0c0",
	"gold":    "#ffd700",
	"navy":    "#000080",
	"teal":    "#008080",
}

// MustColor parses a hex or named color and panics on failure. Intended for
// package-level defaults.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseColor accepts "#rgb", "#rrggbb", "0xrrggbb", a CSS color name, a
// bare number read as 0xrrggbb, or an [r, g, b] triple given either in
// 0..255 or in 0..1.
func ParseColor(v any) (Color, error) {
	switch val := v.(type) {
	case nil:
		return Color{}, nil
	case string:
		return parseColorString(val)
	case []any:
		if len(val) < 3 {
			return Color{}, fmt.Errorf("%w: expected 3 components, got %d", ErrInvalidColor, len(val))
		}
		var rgb [3]float64
		for i := 0; i < 3; i++ {
			f, ok := toFloat(val[i])
			if !ok {
				return Color{}, fmt.Errorf("%w: component %d is not a number", ErrInvalidColor, i)
			}
			rgb[i] = f
		}
		return colorFromTriple(rgb), nil
	case [3]float64:
		return colorFromTriple(val), nil
	}

	if f, ok := toFloat(v); ok {
		if f < 0 || f > 0xffffff || f != float64(uint32(f)) {
			return Color{}, fmt.Errorf("%w: %v is not a 0xrrggbb value", ErrInvalidColor, f)
		}
		return colorFromHex(uint64(f)), nil
	}
	return Color{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidColor, v)
}

func colorFromHex(n uint64) Color {
	return Color{
		R:   float32((n>>16)&0xff) / 255,
		G:   float32((n>>8)&0xff) / 255,
		B:   float32(n&0xff) / 255,
		Set: true,
	}
}

func colorFromTriple(rgb [3]float64) Color {
	scale := 1.0
	if rgb[0] > 1 || rgb[1] > 1 || rgb[2] > 1 {
		scale = 1.0 / 255.0
	}
	return Color{
		R:   clamp01(float32(rgb[0] * scale)),
		G:   clamp01(float32(rgb[1] * scale)),
		B:   clamp01(float32(rgb[2] * scale)),
		Set: true,
	}
}

func parseColorString(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Color{}, nil
	}
	if named, ok := cssColors[s]; ok {
		s = named
	}

	switch {
	case strings.HasPrefix(s, "#"):
		s = s[1:]
	case strings.HasPrefix(s, "0x"):
		s = s[2:]
	default:
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	// Expand #rgb shorthand
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return colorFromHex(n), nil
}

// Or returns c when it was supplied, def otherwise.
func (c Color) Or(def Color) Color {
	if c.Set {
		return c
	}
	return def
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B))
}

// Array returns the components as an array.
func (c Color) Array() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}

// NRGBA converts to an image color with the given alpha in 0..1.
func (c Color) NRGBA(alpha float32) color.NRGBA {
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(alpha)}
}

func to8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
