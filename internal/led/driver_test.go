package led

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/ledmatrix/internal/pixel"
)

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("grb")
	require.NoError(t, err)
	assert.Equal(t, "GRB", o.String())

	for _, bad := range []string{"", "RG", "RRB", "RGBW", "XYZ"} {
		_, err := ParseOrder(bad)
		assert.Error(t, err, bad)
	}
}

func TestEncoderOrderAndBrightness(t *testing.T) {
	grb, _ := ParseOrder("GRB")
	e := newEncoder(2, grb, 255)
	raw, err := e.encode([]pixel.Color{{R: 1, G: 2, B: 3}, {R: 255}})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 1, 3, 0, 255, 0}, raw)

	e.brightness = 127
	raw, err = e.encode([]pixel.Color{{R: 255, G: 255, B: 255}, {}})
	require.NoError(t, err)
	assert.Equal(t, []byte{127, 127, 127, 0, 0, 0}, raw)

	_, err = e.encode(make([]pixel.Color, 3))
	assert.Error(t, err)
}

func TestSimKeepsLastFrame(t *testing.T) {
	s := NewSim(2)
	require.NoError(t, s.SetGlobalBrightness(255))
	require.NoError(t, s.Submit([]pixel.Color{{R: 9}, {B: 7}}))
	assert.Equal(t, []byte{9, 0, 0, 0, 0, 7}, s.Last())
	assert.Equal(t, 1, s.Frames())
	assert.Error(t, s.Submit([]pixel.Color{{}}))
	assert.NoError(t, s.Close())
}

func TestNRZWritesEncodedStream(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := NewNRZPort(spitest.NewRecordRaw(&buf), 4, RGB, 2500*physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", d.String())

	frame := []pixel.Color{{R: 255}, {G: 255}, {B: 255}, {}}
	require.NoError(t, d.Submit(frame))
	assert.NotZero(t, buf.Len())

	assert.Error(t, d.Submit(frame[:2]))
	require.NoError(t, d.Close())
	assert.Error(t, d.Submit(frame))
	assert.NoError(t, d.Close())
}

func TestNRZRejectsEmptyStrip(t *testing.T) {
	_, err := NewNRZPort(spitest.NewRecordRaw(&bytes.Buffer{}), 0, RGB, 0)
	assert.Error(t, err)
}

// recordDrawer is a display.Drawer that keeps the last image.
type recordDrawer struct {
	w      int
	last   *image.NRGBA
	draws  int
	halted bool
}

func (r *recordDrawer) String() string          { return "record" }
func (r *recordDrawer) Halt() error             { r.halted = true; return nil }
func (r *recordDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (r *recordDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, r.w, 1) }
func (r *recordDrawer) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	img := src.(*image.NRGBA)
	r.draws++
	r.last = image.NewNRGBA(img.Rect)
	copy(r.last.Pix, img.Pix)
	return nil
}

func TestConsoleThrottlesAndDraws(t *testing.T) {
	rd := &recordDrawer{w: 2}
	c := NewConsoleDrawer(rd, 2)
	require.NoError(t, c.SetGlobalBrightness(255))

	require.NoError(t, c.Submit([]pixel.Color{{R: 200}, {G: 100}}))
	require.NotNil(t, rd.last)
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, rd.last.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 100, A: 255}, rd.last.NRGBAAt(1, 0))

	require.NoError(t, c.Submit([]pixel.Color{{B: 1}, {B: 1}}))
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, rd.last.NRGBAAt(0, 0), "second frame inside throttle window is dropped")

	require.NoError(t, c.Close())
	assert.True(t, rd.halted)
}

func TestConsoleAlwaysDrawsBlackout(t *testing.T) {
	rd := &recordDrawer{w: 2}
	c := NewConsoleDrawer(rd, 2)
	c.Throttle = time.Hour

	require.NoError(t, c.Submit([]pixel.Color{{R: 200}, {G: 100}}))
	require.NoError(t, c.Submit([]pixel.Color{{R: 100}, {G: 50}}))
	assert.Equal(t, 1, rd.draws)

	require.NoError(t, c.Submit(make([]pixel.Color, 2)))
	assert.Equal(t, 2, rd.draws, "black frame bypasses the throttle")
	assert.Equal(t, color.NRGBA{A: 255}, rd.last.NRGBAAt(0, 0))

	require.NoError(t, c.Submit(make([]pixel.Color, 2)))
	assert.Equal(t, 2, rd.draws, "repeated black frames are still throttled")
}

type fakeSwitch struct {
	states []bool
	closed bool
	err    error
}

func (f *fakeSwitch) SetPower(on bool) error { f.states = append(f.states, on); return f.err }
func (f *fakeSwitch) Close() error           { f.closed = true; return nil }

func TestSwitchedDelegates(t *testing.T) {
	sw := &fakeSwitch{}
	d := &Switched{Driver: NewSim(1), Switch: sw}
	require.NoError(t, d.SetPower(true))
	require.NoError(t, d.SetPower(false))
	assert.Equal(t, []bool{true, false}, sw.states)
	require.NoError(t, d.Submit([]pixel.Color{{R: 1}}))
	require.NoError(t, d.Close())
	assert.True(t, sw.closed)

	sw.err = errors.New("relay stuck")
	assert.Error(t, d.SetPower(true))
}
