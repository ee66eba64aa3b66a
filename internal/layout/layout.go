package layout

import "fmt"

// Layout describes a single row-serpentine panel: even rows run left to right,
// odd rows run right to left, so the data line snakes through the matrix.
type Layout struct {
	Width  int
	Height int
}

func New(width, height int) (Layout, error) {
	if width <= 0 || height <= 0 {
		return Layout{}, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	return Layout{Width: width, Height: height}, nil
}

// Index maps x,y -> linear LED index (0..N-1).
// Coordinates outside the panel are a caller bug and panic.
func (l Layout) Index(x, y int) int {
	if x < 0 || x >= l.Width || y < 0 || y >= l.Height {
		panic(fmt.Sprintf("layout: (%d,%d) outside %dx%d", x, y, l.Width, l.Height))
	}
	if y&1 == 1 {
		return y*l.Width + (l.Width - 1 - x)
	}
	return y*l.Width + x
}

// Coord is the inverse of Index.
func (l Layout) Coord(i int) (x, y int) {
	if i < 0 || i >= l.Count() {
		panic(fmt.Sprintf("layout: index %d outside 0..%d", i, l.Count()-1))
	}
	y = i / l.Width
	x = i % l.Width
	if y&1 == 1 {
		x = l.Width - 1 - x
	}
	return x, y
}

func (l Layout) Count() int {
	return l.Width * l.Height
}
