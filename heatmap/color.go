package heatmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String returns the color as "rgb(r, g, b)".
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// MarshalText encodes the color as "#rrggbb".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// ParseHexColor parses "#rrggbb" or "#rgb" (the leading '#' is optional).
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Scale maps an activity level in [0,1] to a color.
// Empty is used for zero activity; anything above zero is interpolated
// between Low and High.
type Scale struct {
	Empty Color
	Low   Color
	High  Color
}

// DefaultScale is the dark green scale used by the dashboard.
var DefaultScale = Scale{
	Empty: Color{R: 0x16, G: 0x1b, B: 0x22},
	Low:   Color{R: 0x0e, G: 0x44, B: 0x29},
	High:  Color{R: 0x39, G: 0xd3, B: 0x53},
}

// NewScale builds a scale from three hex colors.
func NewScale(empty, low, high string) (Scale, error) {
	var s Scale
	var err error
	if s.Empty, err = ParseHexColor(empty); err != nil {
		return Scale{}, err
	}
	if s.Low, err = ParseHexColor(low); err != nil {
		return Scale{}, err
	}
	if s.High, err = ParseHexColor(high); err != nil {
		return Scale{}, err
	}
	return s, nil
}

// Map returns the color for intensity p. p is clamped to [0,1]; NaN counts as 0.
func (s Scale) Map(p float64) Color {
	if math.IsNaN(p) || p <= 0 {
		return s.Empty
	}
	if p > 1 {
		p = 1
	}
	return Color{
		R: lerp(s.Low.R, s.High.R, p),
		G: lerp(s.Low.G, s.High.G, p),
		B: lerp(s.Low.B, s.High.B, p),
	}
}

func lerp(a, b uint8, p float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*p))
}

// LegendSteps are the intensities shown in the "Less ... More" legend.
var LegendSteps = []float64{0, 0.25, 0.5, 0.75, 1}

// Legend returns the colors for LegendSteps.
func (s Scale) Legend() []Color {
	colors := make([]Color, len(LegendSteps))
	for i, p := range LegendSteps {
		colors[i] = s.Map(p)
	}
	return colors
}

// MapToColor maps p onto DefaultScale.
func MapToColor(p float64) Color {
	return DefaultScale.Map(p)
}

// Normalization turns a raw count into an intensity in [0,1].
type Normalization string

const (
	// Linear is count/max.
	Linear Normalization = "linear"
	// Logarithmic is ln(count)/ln(max), which keeps rare busy days from
	// washing out the rest of the year.
	Logarithmic Normalization = "log"
)

// ParseNormalization accepts "linear", "log" or "" (linear).
func ParseNormalization(s string) (Normalization, error) {
	switch Normalization(s) {
	case "", Linear:
		return Linear, nil
	case Logarithmic:
		return Logarithmic, nil
	}
	return "", fmt.Errorf("unknown normalization %q", s)
}

// Normalize returns count's intensity relative to maxCount. maxCount below 1 is treated as 1.
func (n Normalization) Normalize(count, maxCount int) float64 {
	if count <= 0 {
		return 0
	}
	if maxCount < 1 {
		maxCount = 1
	}
	if count > maxCount {
		count = maxCount
	}
	if n == Logarithmic {
		if maxCount == 1 {
			return 1
		}
		return math.Log(float64(count)) / math.Log(float64(maxCount))
	}
	return float64(count) / float64(maxCount)
}
