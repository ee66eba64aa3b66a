package panel

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ledmatrix/internal/pixel"
)

func TestDefaults(t *testing.T) {
	s := New(450)
	snap := s.Snapshot()
	assert.False(t, snap.Power)
	assert.Equal(t, DefaultBrightness, snap.Brightness)
	assert.Equal(t, Fill, snap.Pattern)
	assert.Equal(t, uint64(0), snap.Generation)
	assert.Empty(t, s.Overrides())
	assert.Equal(t, 450, s.Len())
}

func TestColorFieldsStayInDomain(t *testing.T) {
	s := New(4)
	assert.Equal(t, uint8(255), s.SetBrightness(1000))
	assert.Equal(t, uint8(0), s.SetBrightness(-5))
	assert.Equal(t, uint8(255), s.SetSaturation(256))
	assert.Equal(t, uint8(0), s.SetSaturation(-1))
	assert.Equal(t, uint8(4), s.SetHue(260))
	assert.Equal(t, uint8(255), s.SetHue(-1))
}

func TestRandomMutationsKeepStateValid(t *testing.T) {
	s := New(16)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		v := rng.Intn(2000) - 1000
		switch rng.Intn(6) {
		case 0:
			s.SetHue(v)
		case 1:
			s.SetSaturation(v)
		case 2:
			s.SetBrightness(v)
		case 3:
			s.SetPattern(Pattern(rng.Intn(256)))
		case 4:
			s.ApplyOverrides([]int{v, rng.Intn(16)}, pixel.FromUint32(uint32(rng.Int63())))
		case 5:
			s.TogglePower()
		}
		snap := s.Snapshot()
		require.True(t, snap.Pattern.Valid(), "pattern %d", snap.Pattern)
		for idx := range s.Overrides() {
			require.True(t, idx >= 0 && idx < 16)
		}
	}
}

func TestSetPatternRejectsUnknown(t *testing.T) {
	s := New(4)
	require.True(t, s.SetPattern(Confetti))
	gen := s.Snapshot().Generation

	assert.False(t, s.SetPattern(Pattern(99)))
	snap := s.Snapshot()
	assert.Equal(t, Confetti, snap.Pattern)
	assert.Equal(t, gen, snap.Generation)

	assert.False(t, s.SetPattern(Confetti), "same pattern is not a change")
}

func TestOverridesMergeAndClear(t *testing.T) {
	s := New(20)
	a, b := pixel.FromUint32(0x00FF00), pixel.FromUint32(0x0000FF)

	assert.Equal(t, 2, s.ApplyOverrides([]int{5, 10}, a))
	assert.Equal(t, 1, s.ApplyOverrides([]int{10, 20, -3}, b))
	assert.Equal(t, map[int]pixel.Color{5: a, 10: b}, s.Overrides())

	s.ApplyOverrides([]int{5}, pixel.Black)
	assert.Equal(t, map[int]pixel.Color{10: b}, s.Overrides())

	s.SetHue(40)
	s.ClearOverrides()
	once := s.Snapshot()
	assert.Empty(t, s.Overrides())

	s.ClearOverrides()
	twice := s.Snapshot()
	assert.Empty(t, s.Overrides())
	once.Generation, twice.Generation = 0, 0
	assert.Equal(t, once, twice)
	assert.Equal(t, uint8(40), twice.Hue)
}

func TestFillCopiesCells(t *testing.T) {
	s := New(8)
	c := pixel.FromUint32(0x123456)
	s.ApplyOverrides([]int{3}, c)
	s.SetPattern(Grid)

	f := NewFrame(s.Len())
	s.Fill(f)
	assert.Equal(t, Grid, f.Pattern)
	assert.True(t, f.Set[3])
	assert.Equal(t, c, f.Cells[3])
	assert.False(t, f.Set[2])

	s.ClearOverrides()
	assert.True(t, f.Set[3], "frame is a copy")
}

func TestPowerAndPhase(t *testing.T) {
	s := New(1)
	assert.True(t, s.SetPower(true))
	assert.False(t, s.SetPower(true))
	assert.False(t, s.TogglePower())

	gen := s.Snapshot().Generation
	for i := 0; i < 256; i++ {
		s.AdvancePhase()
	}
	snap := s.Snapshot()
	assert.Equal(t, uint8(0), snap.Phase)
	assert.Equal(t, gen, snap.Generation)
}

func TestConcurrentColorUpdatesAreCoherent(t *testing.T) {
	s := New(1)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			v := uint8(i)
			s.SetHueSaturation(v, v)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := s.Snapshot()
			if snap.Generation == 0 {
				continue
			}
			assert.Equal(t, snap.Hue, snap.Saturation)
			assert.Equal(t, DefaultBrightness, snap.Brightness)
		}
	}()
	wg.Wait()
}

func TestPatternNames(t *testing.T) {
	for _, p := range Patterns() {
		got, ok := ParsePattern(p.String())
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := PatternFromID(4)
	assert.False(t, ok)
	p, ok := PatternFromID(3)
	assert.True(t, ok)
	assert.Equal(t, Grid, p)
	assert.Equal(t, "unknown", Pattern(9).String())
}
