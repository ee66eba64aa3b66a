package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(0, 15)
	assert.Error(t, err)
	_, err = New(30, -1)
	assert.Error(t, err)
}

func TestIndexIsBijective(t *testing.T) {
	l, err := New(30, 15)
	require.NoError(t, err)

	seen := make(map[int]bool, l.Count())
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			i := l.Index(x, y)
			require.GreaterOrEqual(t, i, 0)
			require.Less(t, i, l.Count())
			require.False(t, seen[i], "index %d produced twice", i)
			seen[i] = true

			cx, cy := l.Coord(i)
			assert.Equal(t, x, cx)
			assert.Equal(t, y, cy)
		}
	}
	assert.Len(t, seen, l.Count())
}

func TestIndexSerpentineDirection(t *testing.T) {
	l := Layout{Width: 7, Height: 4}
	for y := 0; y < l.Height; y++ {
		for x := 1; x < l.Width; x++ {
			prev, cur := l.Index(x-1, y), l.Index(x, y)
			if y%2 == 0 {
				assert.Greater(t, cur, prev, "even row %d must run forwards", y)
			} else {
				assert.Less(t, cur, prev, "odd row %d must run backwards", y)
			}
		}
	}
}

func TestIndexKnownValues(t *testing.T) {
	l := Layout{Width: 30, Height: 15}
	assert.Equal(t, 0, l.Index(0, 0))
	assert.Equal(t, 29, l.Index(29, 0))
	assert.Equal(t, 59, l.Index(0, 1))
	assert.Equal(t, 30, l.Index(29, 1))
	assert.Equal(t, 449, l.Index(29, 14))
}

func TestIndexOutOfRangePanics(t *testing.T) {
	l := Layout{Width: 4, Height: 4}
	assert.Panics(t, func() { l.Index(4, 0) })
	assert.Panics(t, func() { l.Index(0, -1) })
	assert.Panics(t, func() { l.Coord(16) })
}
