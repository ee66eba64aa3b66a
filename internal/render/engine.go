package render

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/coreman2200/ledmatrix/internal/layout"
	"github.com/coreman2200/ledmatrix/internal/panel"
	"github.com/coreman2200/ledmatrix/internal/pixel"
)

// Driver abstracts the LED transport (SPI, console, etc.).
type Driver interface {
	// Submit pushes one frame. len(buf) is the LED count.
	Submit(buf []pixel.Color) error
	// SetGlobalBrightness scales every following frame by v/255.
	SetGlobalBrightness(v uint8) error
}

// PowerSwitcher is implemented by drivers that can cut LED supply power.
// The engine enables it before the first lit frame and disables it once the
// power-off fade has finished.
type PowerSwitcher interface {
	SetPower(on bool) error
}

// Options are the startup constants of the frame loop.
type Options struct {
	FPS           int
	PhaseInterval time.Duration
	ConfettiFade  uint8
	PowerOffFade  uint8
	PowerOffTicks int
	Rand          *rand.Rand
}

func DefaultOptions() Options {
	return Options{
		FPS:           120,
		PhaseInterval: 100 * time.Millisecond,
		ConfettiFade:  10,
		PowerOffFade:  64,
		PowerOffTicks: 16,
	}
}

// Engine is the frame scheduler. It owns the pixel buffer and the driver:
// each tick it copies the panel state, runs the active renderer into the
// buffer and submits it.
type Engine struct {
	Layout layout.Layout

	state *panel.State
	reg   *Registry
	opts  Options

	mu       sync.Mutex
	drv      Driver
	buf      []pixel.Color
	frame    *panel.Frame
	lit      bool // the last tick rendered with power on
	fadeLeft int  // remaining power-off fade ticks

	frames     atomic.Uint64
	submitErrs atomic.Uint64
	lastWarn   time.Time
	t0         time.Time
}

// NewEngine allocates the pixel buffer and pushes the initial brightness to drv.
func NewEngine(l layout.Layout, state *panel.State, reg *Registry, drv Driver, opts Options) (*Engine, error) {
	if l.Count() == 0 {
		return nil, errors.New("invalid dimensions")
	}
	if state.Len() != l.Count() {
		return nil, errors.New("panel state size does not match layout")
	}
	if drv == nil {
		return nil, errors.New("driver is nil")
	}
	def := DefaultOptions()
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}
	if opts.PhaseInterval <= 0 {
		opts.PhaseInterval = def.PhaseInterval
	}
	if opts.PowerOffTicks <= 0 {
		opts.PowerOffTicks = 1
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if reg == nil {
		reg = DefaultRegistry(opts.ConfettiFade, opts.Rand)
	}

	e := &Engine{
		Layout: l,
		state:  state,
		reg:    reg,
		opts:   opts,
		drv:    drv,
		buf:    make([]pixel.Color, l.Count()),
		frame:  panel.NewFrame(l.Count()),
		t0:     time.Now(),
	}
	if err := drv.SetGlobalBrightness(state.Snapshot().Brightness); err != nil {
		return nil, err
	}
	return e, nil
}

// RenderOnce runs a single tick. While power is off the renderer is skipped;
// right after an on->off transition the buffer is faded over PowerOffTicks
// ticks and only the last one is fully black.
func (e *Engine) RenderOnce() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Fill(e.frame)
	f := e.frame

	if f.Power {
		if !e.lit {
			e.lit = true
			e.fadeLeft = 0
			e.switchPower(true)
		}
		if rr, ok := e.reg.Get(f.Pattern); ok {
			rr.Render(e.buf, e.Layout, f)
		}
		return e.submit()
	}

	if e.lit {
		e.lit = false
		e.fadeLeft = e.opts.PowerOffTicks
	}
	if e.fadeLeft == 0 {
		return nil
	}
	e.fadeLeft--
	if e.fadeLeft == 0 {
		pixel.Clear(e.buf)
	} else {
		pixel.FadeToBlackBy(e.buf, e.opts.PowerOffFade)
	}
	err := e.submit()
	if e.fadeLeft == 0 {
		e.switchPower(false)
	}
	return err
}

func (e *Engine) submit() error {
	e.frames.Inc()
	if err := e.drv.Submit(e.buf); err != nil {
		e.submitErrs.Inc()
		return err
	}
	return nil
}

func (e *Engine) switchPower(on bool) {
	ps, ok := e.drv.(PowerSwitcher)
	if !ok {
		return
	}
	if err := ps.SetPower(on); err != nil {
		log.Warn().Err(err).Bool("on", on).Msg("led supply switch failed")
	}
}

// Blank zeroes the pixel buffer right away. The next tick renders on top of
// the blank buffer.
func (e *Engine) Blank() {
	e.mu.Lock()
	defer e.mu.Unlock()
	pixel.Clear(e.buf)
}

// PushBrightness forwards the global brightness to the driver.
func (e *Engine) PushBrightness(v uint8) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drv.SetGlobalBrightness(v)
}

// Pixels returns a copy of the current buffer.
func (e *Engine) Pixels() []pixel.Color {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]pixel.Color, len(e.buf))
	copy(out, e.buf)
	return out
}

// Fading reports whether a power-off fade is still running.
func (e *Engine) Fading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fadeLeft > 0
}

func (e *Engine) Frames() uint64        { return e.frames.Load() }
func (e *Engine) SubmitErrors() uint64  { return e.submitErrs.Load() }
func (e *Engine) Uptime() time.Duration { return time.Since(e.t0) }
func (e *Engine) FPS() int              { return e.opts.FPS }

// Run drives the frame ticker and the phase ticker until ctx is done.
// The phase advances on its own interval so animation speed does not depend
// on the achieved frame rate.
func (e *Engine) Run(ctx context.Context) error {
	frame := time.NewTicker(time.Second / time.Duration(e.opts.FPS))
	defer frame.Stop()
	phase := time.NewTicker(e.opts.PhaseInterval)
	defer phase.Stop()

	log.Info().Int("fps", e.opts.FPS).Int("leds", e.Layout.Count()).Msg("frame loop starting")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-phase.C:
			e.state.AdvancePhase()
		case <-frame.C:
			if err := e.RenderOnce(); err != nil {
				e.warnSubmit(err)
			}
		}
	}
}

// warnSubmit logs driver failures at most once per second.
func (e *Engine) warnSubmit(err error) {
	now := time.Now()
	if now.Sub(e.lastWarn) < time.Second {
		return
	}
	e.lastWarn = now
	log.Warn().Err(err).Uint64("failed", e.submitErrs.Load()).Msg("frame submit failed")
}
