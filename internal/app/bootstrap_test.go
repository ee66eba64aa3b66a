package app

import (
	"context"
	"encoding/json"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ledmatrix/internal/config"
	"github.com/coreman2200/ledmatrix/internal/led"
	"github.com/coreman2200/ledmatrix/internal/panel"
)

func newCore(t *testing.T) (*Core, *led.Sim) {
	t.Helper()
	cfg := config.Default()
	sim := led.NewSim(cfg.Width * cfg.Height)
	sim.LogEvery = 0
	c, err := New(cfg, sim, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return c, sim
}

func TestOpenDriverFallsBackToSim(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "pwm"
	drv, name := OpenDriver(cfg, 450)
	assert.Equal(t, "sim", name)
	assert.IsType(t, &led.Sim{}, drv)

	cfg.Driver = "sim"
	cfg.PowerLimit.BudgetmA = 2000
	drv, _ = OpenDriver(cfg, 450)
	assert.IsType(t, &led.Limited{}, drv)

	cfg.PowerLimit.BudgetmA = 0
	cfg.Driver = "console"
	_, name = OpenDriver(cfg, 450)
	assert.Equal(t, "console", name)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Height = 0
	_, err := New(cfg, led.NewSim(1), nil)
	assert.Error(t, err)
}

func TestControlReachesDriver(t *testing.T) {
	c, sim := newCore(t)
	assert.Equal(t, 450, c.Layout.Count())

	_, err := c.Handler.Handle([]byte(`{"action":"brightness","value":255}`))
	require.NoError(t, err)
	_, err = c.Handler.Handle([]byte(`{"action":"power","value":true}`))
	require.NoError(t, err)
	require.NoError(t, c.Engine.RenderOnce())

	last := sim.Last()
	require.Len(t, last, 450*3)
	assert.Equal(t, []byte{255, 0, 0}, last[:3], "hue 0 full saturation is red")

	_, err = c.Handler.Handle([]byte(`{"action":"pattern","value":"grid"}`))
	require.NoError(t, err)
	assert.Equal(t, panel.Grid, c.State.Snapshot().Pattern)

	require.NoError(t, c.Close())
	last = sim.Last()
	for _, b := range last {
		require.Zero(t, b)
	}
}

func TestRoutes(t *testing.T) {
	c, _ := newCore(t)
	srv := httptest.NewServer(c.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 30, body["width"])

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/ws", nil)
	require.NoError(t, err)
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, http.StatusOK, pre.StatusCode)
}

func TestRunStopsOnCancel(t *testing.T) {
	c, sim := newCore(t)
	c.State.SetPower(true)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, ln) }()

	require.Eventually(t, func() bool { return sim.Frames() > 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
}
