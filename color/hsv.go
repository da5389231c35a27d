// Package color holds the color model used to track what a MagicHome controller is believed to be displaying. HSV is
// authoritative; RGB is always derived from it and never stored.
package color

import (
	"fmt"
	"log/slog"
	"math"
)

// HSV is a color in the Hue-Saturation-Value model. Hue is an angle in degrees [0,360), Saturation and Value are
// percentages [0,100]. HSV is a value type: the With* methods return a modified copy. It implements fmt.Stringer and
// slog.LogValuer.
type HSV struct {
	h, s, v float64
}

// White is full-brightness white, the color every accessory starts with.
var White = NewHSV(0, 0, 100)

// NewHSV constructs an HSV color. Values are not range checked.
func NewHSV(hue, saturation, value float64) HSV {
	return HSV{h: hue, s: saturation, v: value}
}

// Hue, Saturation and Value return the components of c.
func (c HSV) Hue() float64        { return c.h }
func (c HSV) Saturation() float64 { return c.s }
func (c HSV) Value() float64      { return c.v }

// WithHue returns a copy of c with the hue replaced.
func (c HSV) WithHue(hue float64) HSV {
	c.h = hue
	return c
}

// WithSaturation returns a copy of c with the saturation replaced.
func (c HSV) WithSaturation(saturation float64) HSV {
	c.s = saturation
	return c
}

// WithValue returns a copy of c with the value (brightness) replaced.
func (c HSV) WithValue(value float64) HSV {
	c.v = value
	return c
}

// IsPureWhite reports whether c has neither hue nor saturation, regardless of its value. Controllers with a dedicated
// white channel drive these colors through it instead of mixing RGB.
func (c HSV) IsPureWhite() bool {
	return c.s == 0 && c.h == 0
}

// RGB converts c to 8-bit RGB, rounding each channel to the nearest integer. Out-of-range inputs are not clamped and
// may produce channels outside [0,255].
func (c HSV) RGB() RGB {
	s := c.s / 100
	v := c.v / 100

	h := math.Mod(c.h, 360)
	if h < 0 {
		h += 360
	}

	sector := h / 60
	i := math.Floor(sector)
	f := sector - i

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return RGB{
		R: int(math.Round(r * 255)),
		G: int(math.Round(g * 255)),
		B: int(math.Round(b * 255)),
	}
}

func (c HSV) String() string {
	return fmt.Sprintf("hsv(%g, %g%%, %g%%)", c.h, c.s, c.v)
}

func (c HSV) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("h", c.h),
		slog.Float64("s", c.s),
		slog.Float64("v", c.v),
	)
}

// RGB holds integer Red, Green, and Blue channels, nominally [0,255]. It implements fmt.Stringer and slog.LogValuer.
type RGB struct {
	R, G, B int
}

// Gray returns the neutral RGB color with every channel set to level.
func Gray(level int) RGB {
	return RGB{R: level, G: level, B: level}
}

// HSV converts c back to the HSV model. Achromatic colors get a hue of 0.
func (c RGB) HSV() HSV {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	delta := hi - lo

	var h float64
	switch {
	case delta == 0:
		h = 0
	case hi == r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case hi == g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}

	var s float64
	if hi > 0 {
		s = delta / hi
	}

	return HSV{h: h, s: s * 100, v: hi * 100}
}

func (c RGB) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

func (c RGB) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("r", c.R),
		slog.Int("g", c.G),
		slog.Int("b", c.B),
	)
}
