package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/ledmatrix/internal/pixel"
)

// DefaultNRZFreq is 3 SPI bits per 800kHz data bit plus headroom.
const DefaultNRZFreq = ((800 * 3) + 100) * physic.KiloHertz

// NRZ drives WS281x strips through periph's nrzled SPI encoder.
type NRZ struct {
	mu   sync.Mutex
	port spi.PortCloser
	dev  *nrzled.Dev
	enc  *encoder
}

// NewNRZ initialises the host, opens the SPI port by name ("" picks the
// first one) and prepares an nrzled device for count pixels.
func NewNRZ(port string, count int, order Order, freq physic.Frequency) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", port, err)
	}
	d, err := NewNRZPort(p, count, order, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	d.port = p
	return d, nil
}

// NewNRZPort builds the driver on an already opened port.
func NewNRZPort(p spi.Port, count int, order Order, freq physic.Frequency) (*NRZ, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if freq == 0 {
		freq = DefaultNRZFreq
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &NRZ{dev: dev, enc: newEncoder(count, order, 255)}, nil
}

func (n *NRZ) Submit(buf []pixel.Color) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return fmt.Errorf("nrz closed")
	}
	raw, err := n.enc.encode(buf)
	if err != nil {
		return err
	}
	if _, err := n.dev.Write(raw); err != nil {
		return fmt.Errorf("nrz write: %w", err)
	}
	return nil
}

func (n *NRZ) SetGlobalBrightness(v uint8) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enc.brightness = v
	return nil
}

func (n *NRZ) String() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return "nrz{closed}"
	}
	return n.dev.String()
}

// Close blanks the strip and releases the port.
func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return nil
	}
	err := n.dev.Halt()
	n.dev = nil
	if n.port != nil {
		if cerr := n.port.Close(); err == nil {
			err = cerr
		}
		n.port = nil
	}
	return err
}
