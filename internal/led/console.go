package led

import (
	"image"
	"image/color"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/ledmatrix/internal/pixel"
)

// Console previews the strip as a row of colored cells in the terminal.
// Frames arriving faster than Throttle are dropped.
type Console struct {
	Throttle time.Duration

	mu       sync.Mutex
	drawer   display.Drawer
	img      *image.NRGBA
	enc      *encoder
	lastEmit time.Time
	dark     bool // the last drawn frame was all black
}

func NewConsole(count int) *Console {
	return NewConsoleDrawer(screen.New(count), count)
}

// NewConsoleDrawer renders through any display.Drawer one pixel high.
func NewConsoleDrawer(d display.Drawer, count int) *Console {
	return &Console{
		Throttle: 50 * time.Millisecond, // ~20 FPS to the terminal
		drawer:   d,
		img:      image.NewNRGBA(image.Rect(0, 0, count, 1)),
		enc:      newEncoder(count, RGB, 255),
	}
}

func (c *Console) Submit(buf []pixel.Color) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	black := pixel.AllBlack(buf)
	// a blackout is always drawn so the preview never stays lit after power off
	if c.lastEmit.Add(c.Throttle).After(now) && (!black || c.dark) {
		return nil
	}
	raw, err := c.enc.encode(buf)
	if err != nil {
		return err
	}
	c.lastEmit = now
	c.dark = black
	for i := 0; i < len(buf); i++ {
		c.img.SetNRGBA(i, 0, color.NRGBA{R: raw[i*3], G: raw[i*3+1], B: raw[i*3+2], A: 255})
	}
	return c.drawer.Draw(c.drawer.Bounds(), c.img, image.Point{})
}

func (c *Console) SetGlobalBrightness(v uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enc.brightness = v
	return nil
}

func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawer.Halt()
}
