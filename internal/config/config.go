// Package config loads newsdesk settings from defaults, YAML files, .env and
// NEWSDESK_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config is the resolved application configuration.
type Config struct {
	APIURL         string         `mapstructure:"api_url"`
	WSPath         string         `mapstructure:"ws_path"`
	TokenFile      string         `mapstructure:"token_file"`
	RequestTimeout time.Duration  `mapstructure:"request_timeout"`
	OverdueAfter   time.Duration  `mapstructure:"overdue_after"`
	Realtime       RealtimeConfig `mapstructure:"realtime"`
	Log            LogConfig      `mapstructure:"log"`
}

// RealtimeConfig tunes the board WebSocket client.
type RealtimeConfig struct {
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
}

// LogConfig selects logger level and format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required, is.URL),
		validation.Field(&c.WSPath, validation.Required),
		validation.Field(&c.TokenFile, validation.Required),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.OverdueAfter, validation.Required, validation.Min(time.Minute)),
	)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Realtime.InitialBackoff <= 0 || c.Realtime.MaxBackoff < c.Realtime.InitialBackoff {
		return fmt.Errorf("invalid config: realtime backoff must satisfy 0 < initial_backoff <= max_backoff")
	}
	if c.Realtime.PingInterval <= 0 {
		return fmt.Errorf("invalid config: realtime.ping_interval must be positive")
	}
	return nil
}

// WebSocketURL derives the board socket URL from the API URL, switching
// http -> ws and https -> wss.
func (c *Config) WebSocketURL() (string, error) {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse api_url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported api_url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(c.WSPath, "/")
	return u.String(), nil
}

// expandHome replaces a leading ~ with home.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
