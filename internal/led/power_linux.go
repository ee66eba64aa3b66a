//go:build linux

package led

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSwitch drives a supply-enable line (relay or MOSFET gate) through the
// GPIO character device. The line starts low.
type GPIOSwitch struct {
	line *gpiocdev.Line
}

func OpenGPIOSwitch(chip string, offset int) (*GPIOSwitch, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("ledmatrix"))
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}
	return &GPIOSwitch{line: l}, nil
}

func (g *GPIOSwitch) SetPower(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return g.line.SetValue(v)
}

func (g *GPIOSwitch) Close() error {
	return g.line.Close()
}
