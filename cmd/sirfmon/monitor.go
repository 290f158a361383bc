package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clint456/sirflink/frame"
	"github.com/clint456/sirflink/serialcomm"
	"github.com/clint456/sirflink/sirf"
)

type monitorOptions struct {
	pollVersion bool
	pollTimeout time.Duration
}

// monitor logs every message on the link until ctx ends or the receive loop
// stops, and optionally polls the software version once.
func monitor(ctx context.Context, link *serialcomm.Link, logger zerolog.Logger, opts monitorOptions) error {
	unsubscribe := watch(link, logger)
	defer unsubscribe()

	if err := link.Start(); err != nil {
		return err
	}

	if opts.pollVersion {
		go func() {
			v, err := sirf.PollSoftwareVersion(ctx, link, sirf.WithTimeout(opts.pollTimeout))
			if err != nil {
				logger.Warn().Err(err).Msg("software version poll failed")
				return
			}
			logger.Info().Str("version", v).Msg("receiver software version")
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		return nil
	case <-link.Done():
		return link.Err()
	}
}

// watch attaches the logging handlers and returns a func that detaches them.
func watch(link *serialcomm.Link, logger zerolog.Logger) func() {
	offAll := link.Router.SubscribeAll(func(msg frame.Message) {
		logger.Info().
			Uint8("id", msg.ID).
			Str("name", sirf.Describe(msg.ID)).
			Hex("body", msg.Body).
			Msg("message")
	})
	offNav := link.Router.Subscribe(sirf.MeasuredNavigationData, func(msg frame.Message) {
		nav, err := sirf.DecodeNavigation(msg)
		if err != nil {
			logger.Warn().Err(err).Msg("navigation data unreadable")
			return
		}
		logger.Info().
			Int32("x", nav.X).Int32("y", nav.Y).Int32("z", nav.Z).
			Int16("vx", nav.VX).Int16("vy", nav.VY).Int16("vz", nav.VZ).
			Msg("navigation")
	})
	return func() {
		offAll()
		offNav()
	}
}
