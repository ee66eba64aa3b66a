package led

import "io"

// Switch turns the LED supply on and off.
type Switch interface {
	SetPower(on bool) error
	io.Closer
}

// Switched pairs a Driver with a supply Switch so the frame loop can cut
// power once the strip has faded to black.
type Switched struct {
	Driver
	Switch Switch
}

func (s *Switched) SetPower(on bool) error {
	return s.Switch.SetPower(on)
}

func (s *Switched) Close() error {
	err := s.Driver.Close()
	if serr := s.Switch.Close(); err == nil {
		err = serr
	}
	return err
}
