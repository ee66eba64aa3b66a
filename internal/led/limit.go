package led

import (
	"sync"

	"github.com/coreman2200/ledmatrix/internal/pixel"
)

// Limited caps the estimated supply current of a strip. It tracks the
// requested global brightness and, for each frame, forwards the highest
// brightness at which the frame stays within BudgetmA. Frames under budget
// pass through at the requested brightness.
type Limited struct {
	Driver
	BudgetmA  float64
	ChannelmA float64 // full-on current of one channel, 20 for WS2812

	mu        sync.Mutex
	requested uint8
	applied   int // -1 until the first push
}

func NewLimited(d Driver, budgetmA, channelmA float64) *Limited {
	if channelmA <= 0 {
		channelmA = 20
	}
	return &Limited{Driver: d, BudgetmA: budgetmA, ChannelmA: channelmA, requested: 255, applied: -1}
}

func (l *Limited) SetGlobalBrightness(v uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requested = v
	return l.push(v)
}

func (l *Limited) Submit(buf []pixel.Color) error {
	l.mu.Lock()
	v := l.Allowed(buf, l.requested)
	err := l.push(v)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	return l.Driver.Submit(buf)
}

// push must be called with mu held.
func (l *Limited) push(v uint8) error {
	if int(v) == l.applied {
		return nil
	}
	if err := l.Driver.SetGlobalBrightness(v); err != nil {
		return err
	}
	l.applied = int(v)
	return nil
}

// Current estimates the draw of buf at brightness v in mA.
func (l *Limited) Current(buf []pixel.Color, v uint8) float64 {
	var sum int
	for _, c := range buf {
		s := c.Scale(v)
		sum += int(s.R) + int(s.G) + int(s.B)
	}
	return float64(sum) / 255 * l.ChannelmA
}

// Allowed is the largest brightness <= v that keeps buf within budget.
func (l *Limited) Allowed(buf []pixel.Color, v uint8) uint8 {
	if l.BudgetmA <= 0 {
		return v
	}
	total := l.Current(buf, v)
	if total <= l.BudgetmA {
		return v
	}
	scaled := uint8(float64(v) * l.BudgetmA / total)
	for scaled > 0 && l.Current(buf, scaled) > l.BudgetmA {
		scaled--
	}
	return scaled
}
