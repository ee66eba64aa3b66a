//go:build !linux

package led

import "fmt"

type GPIOSwitch struct{}

func OpenGPIOSwitch(chip string, offset int) (*GPIOSwitch, error) {
	return nil, fmt.Errorf("gpio power switch not supported on this platform")
}

func (g *GPIOSwitch) SetPower(on bool) error { return nil }

func (g *GPIOSwitch) Close() error { return nil }
