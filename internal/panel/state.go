// Package panel holds the authoritative configuration of the LED matrix.
//
// A State is shared between the frame loop and the control path. Every
// mutator takes the state lock for the whole change, and readers take a
// Snapshot (or fill a Frame) under the same lock, so a render never sees half
// of a command applied.
package panel

import (
	"sync"

	"github.com/coreman2200/ledmatrix/internal/pixel"
)

const (
	DefaultBrightness uint8 = 32
	DefaultSaturation uint8 = 255
)

// Snapshot is a coherent copy of the client-visible fields plus the animation
// phase. Generation increases by one for every accepted mutation.
type Snapshot struct {
	Power      bool
	Hue        uint8
	Saturation uint8
	Brightness uint8
	Pattern    Pattern
	Phase      uint8
	Generation uint64
}

// Color is the single Fill color described by hue, saturation and brightness.
func (s Snapshot) Color() pixel.Color {
	return pixel.HSV(s.Hue, s.Saturation, s.Brightness)
}

// Frame is a render-side copy of the state including the override cells.
// Cells and Set are sized once by NewFrame and refilled in place each tick.
type Frame struct {
	Snapshot
	Cells []pixel.Color
	Set   []bool
}

func NewFrame(n int) *Frame {
	return &Frame{Cells: make([]pixel.Color, n), Set: make([]bool, n)}
}

type State struct {
	mu sync.RWMutex

	power      bool
	hue        uint8
	saturation uint8
	brightness uint8
	pattern    Pattern
	phase      uint8
	generation uint64

	// override cells, indexed by LED index
	cells []pixel.Color
	set   []bool
	nset  int
}

// New returns the power-on defaults for a panel of n LEDs: off, red hue,
// brightness 32, Fill.
func New(n int) *State {
	return &State{
		saturation: DefaultSaturation,
		brightness: DefaultBrightness,
		pattern:    Fill,
		cells:      make([]pixel.Color, n),
		set:        make([]bool, n),
	}
}

// Len is the number of addressable cells.
func (s *State) Len() int { return len(s.cells) }

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *State) snapshot() Snapshot {
	return Snapshot{
		Power:      s.power,
		Hue:        s.hue,
		Saturation: s.saturation,
		Brightness: s.brightness,
		Pattern:    s.pattern,
		Phase:      s.phase,
		Generation: s.generation,
	}
}

// Fill copies the state into f under a single read lock.
// f must have been created with NewFrame(s.Len()).
func (s *State) Fill(f *Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f.Snapshot = s.snapshot()
	copy(f.Cells, s.cells)
	copy(f.Set, s.set)
}

// Overrides returns the explicit cell colors currently stored.
func (s *State) Overrides() map[int]pixel.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]pixel.Color, s.nset)
	for i, ok := range s.set {
		if ok {
			out[i] = s.cells[i]
		}
	}
	return out
}

// SetPower stores on and reports whether it changed.
func (s *State) SetPower(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.power == on {
		return false
	}
	s.power = on
	s.generation++
	return true
}

// TogglePower flips power and returns the new value.
func (s *State) TogglePower() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.power = !s.power
	s.generation++
	return s.power
}

// SetHue stores v wrapped onto the 0..255 color wheel.
func (s *State) SetHue(v int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hue = wrap8(v)
	s.generation++
	return s.hue
}

// SetSaturation stores v clamped to 0..255.
func (s *State) SetSaturation(v int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saturation = clamp8(v)
	s.generation++
	return s.saturation
}

// SetBrightness stores v clamped to 0..255. It does not touch the output
// driver; callers push the returned value to the driver separately.
func (s *State) SetBrightness(v int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brightness = clamp8(v)
	s.generation++
	return s.brightness
}

// SetHueSaturation stores hue and saturation in one step. Brightness is
// left alone.
func (s *State) SetHueSaturation(h, sat uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hue, s.saturation = h, sat
	s.generation++
}

// SetPattern switches to p. Unknown patterns are ignored and leave the state
// untouched. The return reports whether the pattern actually changed.
func (s *State) SetPattern(p Pattern) bool {
	if !p.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pattern == p {
		return false
	}
	s.pattern = p
	s.generation++
	return true
}

// ApplyOverrides merges c into every listed cell. Black removes the override,
// indices outside the panel are skipped. It returns how many cells were
// written.
func (s *State) ApplyOverrides(cells []int, c pixel.Color) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, i := range cells {
		if i < 0 || i >= len(s.cells) {
			continue
		}
		switch {
		case c.IsBlack() && s.set[i]:
			s.set[i] = false
			s.cells[i] = pixel.Black
			s.nset--
		case !c.IsBlack():
			if !s.set[i] {
				s.nset++
			}
			s.set[i] = true
			s.cells[i] = c
		}
		n++
	}
	if n > 0 {
		s.generation++
	}
	return n
}

// ClearOverrides drops every override cell. Other fields are left alone.
func (s *State) ClearOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.set {
		s.set[i] = false
		s.cells[i] = pixel.Black
	}
	s.nset = 0
	s.generation++
}

// AdvancePhase moves the animation phase one step. Only the frame loop calls
// it; it does not count as a client-visible mutation.
func (s *State) AdvancePhase() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase++
	return s.phase
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func wrap8(v int) uint8 {
	return uint8(((v % 256) + 256) % 256)
}
