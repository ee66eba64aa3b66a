// Package pixel holds the 8-bit RGB value pushed to each LED and the few
// integer color operations the patterns are built from.
package pixel

import (
	"fmt"
	"math"
)

// Color is the state of a single LED.
type Color struct {
	R uint8
	G uint8
	B uint8
}

var Black = Color{}

// FromUint32 unpacks a 0xRRGGBB integer as sent by control clients.
// Bits above 24 are ignored.
func FromUint32(v uint32) Color {
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

func (c Color) Uint32() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c Color) IsBlack() bool { return c == Black }

func (c Color) String() string {
	return fmt.Sprintf("#%06x", c.Uint32())
}

// Scale multiplies every channel by s/256, rounding so 255 keeps full value.
func (c Color) Scale(s uint8) Color {
	return Color{R: scale8(c.R, s), G: scale8(c.G, s), B: scale8(c.B, s)}
}

// FadeBy dims the color by amount/256. Any lit channel strictly decreases
// for amount > 0, so repeated fades always reach black.
func (c Color) FadeBy(amount uint8) Color {
	return c.Scale(255 - amount)
}

// Add blends o on top of c, saturating each channel at 255.
func (c Color) Add(o Color) Color {
	return Color{R: qadd8(c.R, o.R), G: qadd8(c.G, o.G), B: qadd8(c.B, o.B)}
}

func scale8(v, s uint8) uint8 {
	return uint8((uint16(v) * (1 + uint16(s))) >> 8)
}

func qadd8(a, b uint8) uint8 {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}

// HSV converts hue, saturation and value on the 0..255 wheel to RGB using the
// standard six-sector conversion. Hue wraps: 0 and 256 are both red.
func HSV(h, s, v uint8) Color {
	r, g, b := hsvToRGB(float64(h)/256.0, float64(s)/255.0, float64(v)/255.0)
	return Color{R: unit8(r), G: unit8(g), B: unit8(b)}
}

// HSV returns the hue, saturation and value of c on the 0..255 scale.
func (c Color) HSV() (h, s, v uint8) {
	r := float64(c.R) / 255.0
	g := float64(c.G) / 255.0
	b := float64(c.B) / 255.0
	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	d := mx - mn

	var hh float64
	switch {
	case d == 0:
		hh = 0
	case mx == r:
		hh = math.Mod((g-b)/d, 6)
	case mx == g:
		hh = (b-r)/d + 2
	default:
		hh = (r-g)/d + 4
	}
	if hh < 0 {
		hh += 6
	}
	var ss float64
	if mx > 0 {
		ss = d / mx
	}
	return uint8(int(math.Round(hh/6*256)) & 0xFF), unit8(ss), unit8(mx)
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func unit8(x float64) uint8 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 255
	}
	return uint8(math.Round(x * 255))
}

// Fill sets every entry of buf to c.
func Fill(buf []Color, c Color) {
	for i := range buf {
		buf[i] = c
	}
}

// FadeToBlackBy dims every entry of buf by amount/256.
func FadeToBlackBy(buf []Color, amount uint8) {
	for i := range buf {
		buf[i] = buf[i].FadeBy(amount)
	}
}

// Clear blanks buf.
func Clear(buf []Color) {
	Fill(buf, Black)
}

// AllBlack reports whether every entry of buf is off.
func AllBlack(buf []Color) bool {
	for _, c := range buf {
		if !c.IsBlack() {
			return false
		}
	}
	return true
}
