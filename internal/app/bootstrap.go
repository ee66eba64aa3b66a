package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/ledmatrix/internal/config"
	"github.com/coreman2200/ledmatrix/internal/control"
	"github.com/coreman2200/ledmatrix/internal/layout"
	"github.com/coreman2200/ledmatrix/internal/led"
	"github.com/coreman2200/ledmatrix/internal/panel"
	"github.com/coreman2200/ledmatrix/internal/render"
	"github.com/coreman2200/ledmatrix/internal/ws"
)

// Core is everything the device runs: panel state, the frame loop, the
// control handler and the websocket hub, all sharing one driver.
type Core struct {
	Layout  layout.Layout
	State   *panel.State
	Engine  *render.Engine
	Handler *control.Handler
	Hub     *ws.Hub
	Driver  led.Driver

	staticDir string
}

// OpenDriver builds the driver named by cfg.Driver. Hardware that fails to
// initialise falls back to the simulator; the returned name is the driver
// actually in use.
func OpenDriver(cfg *config.Config, count int) (led.Driver, string) {
	var drv led.Driver
	selected := cfg.Driver

	switch cfg.Driver {
	case "spi":
		order, err := led.ParseOrder(cfg.ColorOrder)
		if err != nil {
			log.Warn().Err(err).Msg("bad color order; using RGB")
			order = led.RGB
		}
		freq := physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz
		d, err := led.NewNRZ(cfg.SPI.Dev, count, order, freq)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", cfg.SPI.Dev).
				Int("speed_hz", cfg.SPI.SpeedHz).
				Msg("SPI init failed; falling back to SIM")
			drv, selected = led.NewSim(count), "sim"
		} else {
			drv = d
		}
	case "console":
		drv = led.NewConsole(count)
	case "sim":
		drv = led.NewSim(count)
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using SIM")
		drv, selected = led.NewSim(count), "sim"
	}

	if cfg.PowerLimit.BudgetmA > 0 {
		drv = led.NewLimited(drv, cfg.PowerLimit.BudgetmA, cfg.PowerLimit.ChannelmA)
	}
	if cfg.PowerGPIO.Line >= 0 {
		sw, err := led.OpenGPIOSwitch(cfg.PowerGPIO.Chip, cfg.PowerGPIO.Line)
		if err != nil {
			log.Warn().Err(err).Msg("power switch unavailable; supply stays on")
		} else {
			drv = &led.Switched{Driver: drv, Switch: sw}
		}
	}
	return drv, selected
}

// New wires a Core around drv. The Core owns drv from here on.
func New(cfg *config.Config, drv led.Driver, rng *rand.Rand) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	l, err := layout.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	state := panel.New(l.Count())
	state.SetBrightness(cfg.Brightness)

	opts := render.Options{
		FPS:           cfg.FPS,
		PhaseInterval: cfg.PhaseInterval(),
		ConfettiFade:  uint8(cfg.ConfettiFade),
		PowerOffFade:  uint8(cfg.PowerOffFade),
		PowerOffTicks: cfg.PowerOffTicks,
		Rand:          rng,
	}
	eng, err := render.NewEngine(l, state, nil, drv, opts)
	if err != nil {
		return nil, err
	}
	h := control.NewHandler(state, eng)

	return &Core{
		Layout:    l,
		State:     state,
		Engine:    eng,
		Handler:   h,
		Hub:       ws.NewHub(h, eng, l),
		Driver:    drv,
		staticDir: cfg.StaticDir,
	}, nil
}

// Routes is the HTTP surface: /ws for control, /diag for rejected-message
// diagnostics, /health, and the optional static UI at /.
func (c *Core) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", c.Hub.HandleControlWS)
	mux.HandleFunc("/diag", c.Hub.HandleDiagWS)
	mux.HandleFunc("/health", c.Hub.HandleHealth)
	if c.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(c.staticDir)))
	}
	return withCORS(mux)
}

// Run serves HTTP on ln and drives the frame loop until ctx is done.
func (c *Core) Run(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      c.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = c.Engine.Run(ctx)
	}()

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server starting")
		srvErr <- srv.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-srvErr:
		log.Error().Err(err).Msg("http server stopped")
	}
	cancel()

	c.Hub.Close()
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	<-loopDone

	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

// Close sends one black frame and releases the driver.
func (c *Core) Close() error {
	c.Engine.Blank()
	if err := c.Driver.Submit(c.Engine.Pixels()); err != nil {
		log.Warn().Err(err).Msg("final blank frame failed")
	}
	return c.Driver.Close()
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
