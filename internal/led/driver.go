package led

import (
	"fmt"
	"strings"

	"github.com/coreman2200/ledmatrix/internal/pixel"
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Submit pushes a frame to hardware. len(buf) must be the LED count.
	Submit(buf []pixel.Color) error
	// SetGlobalBrightness scales every following frame by v/255.
	SetGlobalBrightness(v uint8) error
	// Close releases resources.
	Close() error
}

// Order is the byte order a strip expects on the wire, e.g. "GRB".
type Order [3]byte

var RGB = Order{'R', 'G', 'B'}

func ParseOrder(s string) (Order, error) {
	s = strings.ToUpper(s)
	if len(s) != 3 || strings.Count(s, "R") != 1 || strings.Count(s, "G") != 1 || strings.Count(s, "B") != 1 {
		return Order{}, fmt.Errorf("invalid color order %q", s)
	}
	return Order{s[0], s[1], s[2]}, nil
}

func (o Order) String() string { return string(o[:]) }

// encoder turns a frame into raw strip bytes with global brightness applied.
type encoder struct {
	order      Order
	brightness uint8
	raw        []byte
}

func newEncoder(count int, order Order, brightness uint8) *encoder {
	return &encoder{order: order, brightness: brightness, raw: make([]byte, count*3)}
}

func (e *encoder) encode(buf []pixel.Color) ([]byte, error) {
	if len(buf)*3 != len(e.raw) {
		return nil, fmt.Errorf("frame length %d does not match count %d", len(buf), len(e.raw)/3)
	}
	for i, c := range buf {
		c = c.Scale(e.brightness)
		for j, ch := range e.order {
			var v uint8
			switch ch {
			case 'R':
				v = c.R
			case 'G':
				v = c.G
			default:
				v = c.B
			}
			e.raw[i*3+j] = v
		}
	}
	return e.raw, nil
}
