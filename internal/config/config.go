package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/clint456/sirflink/frame"
)

const (
	ChecksumSum15       = "sum15"
	ChecksumCRC16Modbus = "crc16-modbus"
)

// Config is the runtime configuration of the link monitor.
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
	Checksum    string
	PollTimeout time.Duration
	MetricsAddr string
	LogLevel    string
}

type fileConfig struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	ReadTimeout string `toml:"read_timeout"`
	Checksum    string `toml:"checksum"`
	PollTimeout string `toml:"poll_timeout"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
}

func Default() Config {
	return Config{
		Port:        "/dev/ttyUSB0",
		Baud:        4800,
		ReadTimeout: 500 * time.Millisecond,
		Checksum:    ChecksumSum15,
		PollTimeout: 3 * time.Second,
		LogLevel:    "info",
	}
}

// Load overlays the keys present in the TOML file at path onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("checksum") {
		cfg.Checksum = strings.ToLower(strings.TrimSpace(raw.Checksum))
	}
	if meta.IsDefined("poll_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_timeout: %w", err)
		}
		cfg.PollTimeout = d
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("config missing port")
	}
	if cfg.Baud <= 0 {
		return fmt.Errorf("config baud must be positive, got %d", cfg.Baud)
	}
	if cfg.ReadTimeout < 0 {
		return fmt.Errorf("config read_timeout must not be negative")
	}
	if cfg.PollTimeout <= 0 {
		return fmt.Errorf("config poll_timeout must be positive")
	}
	switch cfg.Checksum {
	case ChecksumSum15, ChecksumCRC16Modbus:
	default:
		return fmt.Errorf("config checksum %q not one of %s, %s", cfg.Checksum, ChecksumSum15, ChecksumCRC16Modbus)
	}
	return nil
}

// ChecksumFunc maps the configured checksum name to its implementation.
func (c Config) ChecksumFunc() frame.ChecksumFunc {
	if c.Checksum == ChecksumCRC16Modbus {
		return frame.CRC16Modbus
	}
	return frame.Checksum
}
