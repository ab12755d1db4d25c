// Package config loads the celtd server configuration: built-in defaults,
// then an optional YAML file, then a .env file, then CELTD_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thesyncim/gocelt"
	log "github.com/thesyncim/gocelt/internal/logger"
)

// Config is the server configuration.
type Config struct {
	ListenAddr     string        `yaml:"listen_addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxStreams     int           `yaml:"max_streams"`
	AllowedOrigins []string      `yaml:"allowed_origins"`

	WSPingInterval time.Duration `yaml:"ws_ping_interval"`
	WSPongWait     time.Duration `yaml:"ws_pong_wait"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Codec Codec `yaml:"codec"`
}

// Codec holds the stream defaults used when a client omits a query
// parameter.
type Codec struct {
	SampleRate int    `yaml:"sample_rate"`
	FrameSize  int    `yaml:"frame_size"`
	Channels   int    `yaml:"channels"`
	Format     string `yaml:"format"`
	PacketSize int    `yaml:"packet_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:     ":8090",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxStreams:     64,
		WSPingInterval: 30 * time.Second,
		WSPongWait:     60 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
		Codec: Codec{
			SampleRate: 48000,
			FrameSize:  256,
			Channels:   1,
			Format:     gocelt.FormatInt16LE.String(),
			PacketSize: gocelt.DefaultPacketSize,
		},
	}
}

// SessionConfig returns the codec defaults as a session configuration.
func (c Codec) SessionConfig() gocelt.Config {
	return gocelt.Config{
		SampleRate: c.SampleRate,
		FrameSize:  c.FrameSize,
		Channels:   c.Channels,
	}
}

var loadEnvOnce sync.Once

func loadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded", "err", err)
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decodeYAML(f, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	loadEnvOnce.Do(loadEnv)
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. The environment is not consulted.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// applyEnv overrides cfg from CELTD_* variables and reports every
// malformed value.
func applyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error

	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid duration format for %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("CELTD_LISTEN_ADDR", &cfg.ListenAddr)
	dur("CELTD_READ_TIMEOUT", &cfg.ReadTimeout)
	dur("CELTD_WRITE_TIMEOUT", &cfg.WriteTimeout)
	dur("CELTD_IDLE_TIMEOUT", &cfg.IdleTimeout)
	num("CELTD_MAX_STREAMS", &cfg.MaxStreams)
	if v := getenv("CELTD_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitAndTrim(v)
	}
	dur("CELTD_WS_PING_INTERVAL", &cfg.WSPingInterval)
	dur("CELTD_WS_PONG_WAIT", &cfg.WSPongWait)
	str("CELTD_LOG_LEVEL", &cfg.LogLevel)
	str("CELTD_LOG_FORMAT", &cfg.LogFormat)
	num("CELTD_SAMPLE_RATE", &cfg.Codec.SampleRate)
	num("CELTD_FRAME_SIZE", &cfg.Codec.FrameSize)
	num("CELTD_CHANNELS", &cfg.Codec.Channels)
	str("CELTD_FORMAT", &cfg.Codec.Format)
	num("CELTD_PACKET_SIZE", &cfg.Codec.PacketSize)

	return errors.Join(errs...)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if _, port, err := net.SplitHostPort(c.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("listen_addr %q: %w", c.ListenAddr, err))
	} else if p, err := strconv.Atoi(port); err != nil || p < 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("listen_addr %q: invalid port", c.ListenAddr))
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"idle_timeout":     c.IdleTimeout,
		"ws_ping_interval": c.WSPingInterval,
		"ws_pong_wait":     c.WSPongWait,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.WSPongWait > 0 && c.WSPingInterval >= c.WSPongWait {
		errs = append(errs, fmt.Errorf("ws_ping_interval %s must be shorter than ws_pong_wait %s", c.WSPingInterval, c.WSPongWait))
	}
	if c.MaxStreams < 1 {
		errs = append(errs, fmt.Errorf("max_streams must be at least 1, got %d", c.MaxStreams))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q is invalid; valid values: text, json", c.LogFormat))
	}

	if err := c.Codec.SessionConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("codec: %w", err))
	}
	if _, err := gocelt.ParseSampleFormat(c.Codec.Format); err != nil {
		errs = append(errs, fmt.Errorf("codec: %w", err))
	}
	if c.Codec.PacketSize < 1 || c.Codec.PacketSize > gocelt.MaxPacketSize {
		errs = append(errs, fmt.Errorf("codec: packet_size must be in [1, %d], got %d", gocelt.MaxPacketSize, c.Codec.PacketSize))
	}
	return errors.Join(errs...)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}
