package render

import (
	"math/rand"

	"github.com/coreman2200/ledmatrix/internal/layout"
	"github.com/coreman2200/ledmatrix/internal/panel"
	"github.com/coreman2200/ledmatrix/internal/pixel"
)

// Solid fills the panel with the state's hue/saturation/brightness.
type Solid struct{}

func (Solid) Pattern() panel.Pattern { return panel.Fill }

func (Solid) Render(dst []pixel.Color, _ layout.Layout, f *panel.Frame) {
	pixel.Fill(dst, f.Color())
}

// Sweep is a diagonal rainbow: hue = phase + x + y at full saturation.
type Sweep struct{}

func (Sweep) Pattern() panel.Pattern { return panel.Fade }

func (Sweep) Render(dst []pixel.Color, l layout.Layout, f *panel.Frame) {
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			dst[l.Index(x, y)] = pixel.HSV(f.Phase+uint8(x+y), 255, f.Brightness)
		}
	}
}

const (
	confettiHueSpread  = 64
	confettiSaturation = 200
)

// Confetti decays the whole frame by Fade and adds one random speckle near
// the current phase hue. Rand must not be shared with other goroutines.
type Confetti struct {
	Fade uint8
	Rand *rand.Rand
}

func (c *Confetti) Pattern() panel.Pattern { return panel.Confetti }

func (c *Confetti) Render(dst []pixel.Color, _ layout.Layout, f *panel.Frame) {
	if len(dst) == 0 {
		return
	}
	pixel.FadeToBlackBy(dst, c.Fade)
	pos := c.Rand.Intn(len(dst))
	hue := f.Phase + uint8(c.Rand.Intn(confettiHueSpread))
	dst[pos] = dst[pos].Add(pixel.HSV(hue, confettiSaturation, 255))
}

// Overlay writes the override cells and leaves every other LED as it was.
type Overlay struct{}

func (Overlay) Pattern() panel.Pattern { return panel.Grid }

func (Overlay) Render(dst []pixel.Color, _ layout.Layout, f *panel.Frame) {
	for i, ok := range f.Set {
		if ok && i < len(dst) {
			dst[i] = f.Cells[i]
		}
	}
}

// DefaultRegistry registers one renderer per pattern.
func DefaultRegistry(confettiFade uint8, rng *rand.Rand) *Registry {
	reg := NewRegistry()
	reg.Register(Solid{})
	reg.Register(Sweep{})
	reg.Register(&Confetti{Fade: confettiFade, Rand: rng})
	reg.Register(Overlay{})
	return reg
}
