package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/clint456/sirflink/internal/logging"
)

// Start configures test logging and marks the start of t in the log.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logger := logging.ConfigureTests()
	logger.Info().Str("test", t.Name()).Msg("start")
	return logger
}
