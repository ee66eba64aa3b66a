package cmd

import (
	"context"
	"math/rand"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/ledmatrix/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the frame loop and the control server",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.Int("width", 30, "LEDs per row")
	f.Int("height", 15, "rows")
	f.Int("fps", 120, "target frames per second")
	f.Int("brightness", 32, "initial global brightness 0..255")
	f.String("driver", "sim", "driver: sim | spi | console")
	f.String("color-order", "RGB", "channel order handed to the strip encoder")
	f.String("spi-dev", "", "SPI port name (empty picks the first)")
	f.String("addr", ":80", "HTTP listen address")
	f.String("static", "", "directory served at / (optional)")
	f.String("log-level", "info", "trace | debug | info | warn | error")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging("info")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	drv, selected := app.OpenDriver(cfg, cfg.Width*cfg.Height)
	core, err := app.New(cfg, drv, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		_ = drv.Close()
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Warn().Err(err).Msg("driver close")
		}
	}()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	log.Info().
		Str("driver", selected).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("ledmatrix starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = core.Run(ctx, ln)
	log.Info().Msg("shutting down")
	return err
}
