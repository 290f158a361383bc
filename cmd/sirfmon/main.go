package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/clint456/sirflink/frame"
	"github.com/clint456/sirflink/internal/config"
	"github.com/clint456/sirflink/internal/logging"
	"github.com/clint456/sirflink/internal/metrics"
	"github.com/clint456/sirflink/serialcomm"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	port := flag.String("port", "", "serial device, overrides the config file")
	baud := flag.Int("baud", 0, "baud rate, overrides the config file")
	pollVersion := flag.Bool("poll-version", false, "poll the receiver software version after connecting")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *port, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sirfmon: %v\n", err)
		os.Exit(1)
	}

	logger := logging.ConfigureRuntime("sirfmon")
	if os.Getenv(logging.EnvLogLevel) == "" {
		if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
			zerolog.SetGlobalLevel(lvl)
		} else {
			logger.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping default")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *pollVersion); err != nil {
		logger.Error().Err(err).Msg("sirfmon stopped")
		os.Exit(1)
	}
}

func loadConfig(path, port string, baud int) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if port != "" {
		cfg.Port = port
	}
	if baud > 0 {
		cfg.Baud = baud
	}
	return cfg, config.Validate(cfg)
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger, pollVersion bool) error {
	rec := metrics.NewLink()
	link, err := serialcomm.Open(&serialcomm.SerialConfig{
		PortName:    cfg.Port,
		BaudRate:    cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	},
		serialcomm.WithCodec(frame.NewCodec(frame.WithChecksum(cfg.ChecksumFunc()))),
		serialcomm.WithLogger(logger),
		serialcomm.WithRecorder(rec),
	)
	if err != nil {
		return err
	}
	defer link.Close()

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := rec.Register(reg); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		srv := serveHTTP(cfg.MetricsAddr, newHTTPRouter(reg, link.Receiver.Stats, logger), logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info().Str("port", cfg.Port).Int("baud", cfg.Baud).Str("checksum", cfg.Checksum).Msg("serial link opened")
	return monitor(ctx, link, logger, monitorOptions{
		pollVersion: pollVersion,
		pollTimeout: cfg.PollTimeout,
	})
}
