package led

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledmatrix/internal/pixel"
)

// Sim is a headless driver. It keeps the last encoded frame and logs a
// compact summary every LogEvery frames at debug level.
type Sim struct {
	LogEvery int

	mu    sync.Mutex
	enc   *encoder
	count int
	last  []byte
}

func NewSim(count int) *Sim {
	return &Sim{LogEvery: 120, enc: newEncoder(count, RGB, 255)}
}

func (s *Sim) Submit(buf []pixel.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.enc.encode(buf)
	if err != nil {
		return err
	}
	s.count++
	s.last = append(s.last[:0], raw...)

	if s.LogEvery > 0 && s.count%s.LogEvery == 0 {
		var r, g, b int
		for i := 0; i+2 < len(raw); i += 3 {
			r += int(raw[i])
			g += int(raw[i+1])
			b += int(raw[i+2])
		}
		n := len(raw) / 3
		if n == 0 {
			n = 1
		}
		log.Debug().Int("frame", s.count).
			Ints("avg", []int{r / n, g / n, b / n}).
			Str("first", buf[0].String()).
			Msg("sim frame")
	}
	return nil
}

func (s *Sim) SetGlobalBrightness(v uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enc.brightness = v
	return nil
}

// Last returns a copy of the last frame as R,G,B bytes after brightness.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Sim) Close() error { return nil }
