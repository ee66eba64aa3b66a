package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/ledmatrix/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ledmatrix",
	Short: "LED matrix pattern engine with websocket control",
	Long: `Drives a serpentine-wired WS281x matrix and serves a websocket control
protocol. Every accepted command is answered with the full panel state,
broadcast to all connected clients.

Examples:
  ledmatrix serve --driver sim --addr :8080     # headless, logs frame summaries
  ledmatrix serve --config /etc/ledmatrix.yaml  # hardware setup from YAML
  ledmatrix map --width 8 --height 4            # print the wiring index grid`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")
}

// loadConfig reads configPath, falling back to defaults when the file is
// missing. Flags the user set explicitly override the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Warn().Str("path", configPath).Msg("config not found; using defaults")
		cfg = config.Default()
	}

	f := cmd.Flags()
	override := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	override("width", func() { cfg.Width, _ = f.GetInt("width") })
	override("height", func() { cfg.Height, _ = f.GetInt("height") })
	override("fps", func() { cfg.FPS, _ = f.GetInt("fps") })
	override("brightness", func() { cfg.Brightness, _ = f.GetInt("brightness") })
	override("driver", func() { cfg.Driver, _ = f.GetString("driver") })
	override("color-order", func() { cfg.ColorOrder, _ = f.GetString("color-order") })
	override("spi-dev", func() { cfg.SPI.Dev, _ = f.GetString("spi-dev") })
	override("addr", func() { cfg.Addr, _ = f.GetString("addr") })
	override("static", func() { cfg.StaticDir, _ = f.GetString("static") })
	override("log-level", func() { cfg.LogLevel, _ = f.GetString("log-level") })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}
