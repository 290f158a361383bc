package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clint456/sirflink/frame"
	"github.com/clint456/sirflink/internal/config"
	"github.com/clint456/sirflink/internal/logging"
	"github.com/clint456/sirflink/router"
	"github.com/clint456/sirflink/serialcomm"
	"github.com/clint456/sirflink/sirf"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	port := flag.String("port", "", "serial device, overrides the config file")
	payloadHex := flag.String("payload", "8400", "hex payload to send, first byte is the message id")
	expect := flag.String("expect", "", "reply message id to wait for, e.g. 0x06; empty sends without waiting")
	retries := flag.Int("retries", 3, "send attempts while no reply arrives")
	flag.Parse()

	logger := logging.ConfigureRuntime("sirfsend")
	if err := realMain(*configPath, *port, *payloadHex, *expect, *retries, logger); err != nil {
		fmt.Fprintf(os.Stderr, "sirfsend: %v\n", err)
		os.Exit(1)
	}
}

func realMain(configPath, port, payloadHex, expect string, retries int, logger zerolog.Logger) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if port != "" {
		cfg.Port = port
	}

	payload, err := parsePayload(payloadHex)
	if err != nil {
		return err
	}
	req := request{payload: payload, attempts: retries, timeout: cfg.PollTimeout}
	if expect != "" {
		id, err := parseID(expect)
		if err != nil {
			return err
		}
		req.expect = &id
	}

	link, err := serialcomm.Open(&serialcomm.SerialConfig{
		PortName:    cfg.Port,
		BaudRate:    cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	},
		serialcomm.WithCodec(frame.NewCodec(frame.WithChecksum(cfg.ChecksumFunc()))),
		serialcomm.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer link.Close()
	if err := link.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	_, err = send(ctx, link, req, logger)
	return err
}

type request struct {
	payload  []byte
	expect   *byte
	attempts int
	timeout  time.Duration
}

// send writes the request and, when a reply id is expected, resends it up
// to attempts times while each wait times out.
func send(ctx context.Context, r sirf.Requester, req request, logger zerolog.Logger) (frame.Message, error) {
	if req.expect == nil {
		s, ok := r.(interface{ Send([]byte) error })
		if !ok {
			return frame.Message{}, errors.New("requester cannot send without a reply")
		}
		if err := s.Send(req.payload); err != nil {
			return frame.Message{}, err
		}
		logger.Info().Hex("payload", req.payload).Msg("sent")
		return frame.Message{}, nil
	}

	attempts := max(req.attempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info().Int("attempt", attempt).Int("of", attempts).Str("expect", sirf.Describe(*req.expect)).Msg("sending")
		msg, err := r.Request(ctx, req.payload, *req.expect, req.timeout)
		if err == nil {
			logger.Info().Stringer("reply", msg).Str("name", sirf.Describe(msg.ID)).Msg("reply received")
			return msg, nil
		}
		if !errors.Is(err, router.ErrTimeout) {
			return frame.Message{}, err
		}
		lastErr = err
	}
	return frame.Message{}, fmt.Errorf("no reply after %d attempts: %w", attempts, lastErr)
}

func parsePayload(raw string) ([]byte, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	payload, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("payload is not hex: %w", err)
	}
	if len(payload) == 0 {
		return nil, frame.ErrEmptyPayload
	}
	if len(payload) > frame.MaxPayloadLen {
		return nil, frame.ErrPayloadTooLarge
	}
	return payload, nil
}

func parseID(raw string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("reply id %q: %w", raw, err)
	}
	return byte(v), nil
}
