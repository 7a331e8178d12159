package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-lightserver/internal/app"
	"github.com/coreman2200/funtimes-lightserver/internal/config"
)

func main() {
	// ---- Flags (override config.yaml) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		addr       = flag.String("addr", "", "HTTP listen address (default from config, :8080)")
		driver     = flag.String("driver", "", "driver: sim | console | spi")
		leds       = flag.Int("leds", 0, "number of LEDs on the strip")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *driver != "" {
		cfg.Driver.Type = *driver
	}
	if *leds > 0 {
		cfg.Strip.LEDs = *leds
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.New(ctx, cfg, app.Options{ConfigPath: *configPath})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver.Type).Msg("startup failed")
	}
	log.Info().Int("leds", cfg.Strip.LEDs).Int("tick_ms", cfg.Engine.TickMS).Str("version", app.Version).Msg("light server starting")

	runErr := core.Run(ctx)
	if err := core.Close(); err != nil {
		log.Warn().Err(err).Msg("close")
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("light server stopped")
	}
	log.Info().Msg("shut down")
}
