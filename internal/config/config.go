package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type SPI struct {
	Dev     string `yaml:"dev"`      // "" picks the first registered port
	SpeedHz int    `yaml:"speed_hz"` // 0 uses the nrzled default
}

// PowerGPIO is the optional supply-enable line. Line < 0 disables it.
type PowerGPIO struct {
	Chip string `yaml:"chip"`
	Line int    `yaml:"line"`
}

// PowerLimit caps the estimated strip current. BudgetmA <= 0 disables it.
type PowerLimit struct {
	BudgetmA  float64 `yaml:"budget_ma"`
	ChannelmA float64 `yaml:"channel_ma"`
}

type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	FPS             int `yaml:"fps"`
	PhaseIntervalMs int `yaml:"phase_interval_ms"`
	ConfettiFade    int `yaml:"confetti_fade"`
	PowerOffFade    int `yaml:"power_off_fade"`
	PowerOffTicks   int `yaml:"power_off_ticks"`
	Brightness      int `yaml:"brightness"`

	Driver     string     `yaml:"driver"` // "sim" | "spi" | "console"
	ColorOrder string     `yaml:"color_order"`
	SPI        SPI        `yaml:"spi,omitempty"`
	PowerGPIO  PowerGPIO  `yaml:"power_gpio"`
	PowerLimit PowerLimit `yaml:"power_limit"`

	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir,omitempty"`
	LogLevel  string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		Width:           30,
		Height:          15,
		FPS:             120,
		PhaseIntervalMs: 100,
		ConfettiFade:    10,
		PowerOffFade:    64,
		PowerOffTicks:   16,
		Brightness:      32,
		Driver:          "sim",
		ColorOrder:      "RGB",
		PowerGPIO:       PowerGPIO{Chip: "gpiochip0", Line: -1},
		PowerLimit:      PowerLimit{ChannelmA: 20},
		Addr:            ":80",
		LogLevel:        "info",
	}
}

// Load reads path on top of Default, so a partial file keeps the defaults
// for every field it leaves out.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) PhaseInterval() time.Duration {
	return time.Duration(c.PhaseIntervalMs) * time.Millisecond
}

func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("width/height: must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.FPS <= 0 || c.FPS > 1000 {
		errs = append(errs, fmt.Errorf("fps: out of range: %d", c.FPS))
	}
	if c.PhaseIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("phase_interval_ms: must be positive, got %d", c.PhaseIntervalMs))
	}
	for name, v := range map[string]int{
		"confetti_fade":  c.ConfettiFade,
		"power_off_fade": c.PowerOffFade,
		"brightness":     c.Brightness,
	} {
		if v < 0 || v > 255 {
			errs = append(errs, fmt.Errorf("%s: must be 0..255, got %d", name, v))
		}
	}
	if c.PowerOffTicks <= 0 {
		errs = append(errs, fmt.Errorf("power_off_ticks: must be positive, got %d", c.PowerOffTicks))
	}
	if c.PowerLimit.BudgetmA > 0 && c.PowerLimit.ChannelmA <= 0 {
		errs = append(errs, fmt.Errorf("power_limit.channel_ma: must be positive when a budget is set"))
	}
	switch c.Driver {
	case "sim", "spi", "console":
	default:
		errs = append(errs, fmt.Errorf("driver: unknown %q", c.Driver))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}
