// Package app wires configuration, logging, the token store and the API
// client together for the CLI and the TUI.
package app

import (
	"fmt"
	"strings"

	"github.com/pablasso/newsdesk/internal/api"
	"github.com/pablasso/newsdesk/internal/auth"
	"github.com/pablasso/newsdesk/internal/config"
	"github.com/pablasso/newsdesk/internal/logging"
	"github.com/pablasso/newsdesk/internal/realtime"
	"github.com/pablasso/newsdesk/internal/store"
)

// Options are the command-line overrides applied on top of loaded config.
type Options struct {
	ConfigFile string
	HomeDir    string
	WorkDir    string

	APIURL    string
	LogLevel  string
	LogFormat string

	// Silent replaces every logger with a no-op, for the TUI.
	Silent bool
}

// App holds the shared dependencies of one invocation.
type App struct {
	Config *config.Config
	Tokens *auth.TokenStore
	API    *api.Client

	logs   *logging.Provider
	silent bool
}

// New loads configuration and builds the API client.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(config.Options{
		HomeDir:    opts.HomeDir,
		WorkDir:    opts.WorkDir,
		ConfigFile: opts.ConfigFile,
	})
	if err != nil {
		return nil, err
	}

	if opts.APIURL != "" {
		cfg.APIURL = strings.TrimRight(opts.APIURL, "/")
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Tokens: auth.NewTokenStore(cfg.TokenFile),
		silent: opts.Silent,
	}

	if !opts.Silent {
		a.logs, err = logging.NewProvider(logging.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure logging: %w", err)
		}
	}

	a.API, err = api.New(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithTokenSource(a.Tokens),
		api.WithLogger(a.Logger(logging.ModuleAPI)),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Logger returns the logger for module. The provider is nil when silent,
// which yields a no-op logger.
func (a *App) Logger(module string) logging.Logger {
	return a.logs.Logger(module)
}

// NewStore creates a task store backed by the API client.
func (a *App) NewStore() *store.Store {
	return store.New(a.API,
		store.WithLogger(a.Logger(logging.ModuleStore)),
		store.WithOverdueAfter(a.Config.OverdueAfter),
	)
}

// NewRealtime creates a board socket client reporting to events.
func (a *App) NewRealtime(events realtime.Events) (*realtime.Client, error) {
	url, err := a.Config.WebSocketURL()
	if err != nil {
		return nil, err
	}
	return realtime.New(realtime.Options{
		URL:            url,
		Tokens:         a.Tokens,
		InitialBackoff: a.Config.Realtime.InitialBackoff,
		MaxBackoff:     a.Config.Realtime.MaxBackoff,
		PingInterval:   a.Config.Realtime.PingInterval,
		Logger:         a.Logger(logging.ModuleRealtime),
	}, events)
}

// NewSyncer creates a syncer that keeps s in step with realtime messages.
func (a *App) NewSyncer(s *store.Store) *realtime.Syncer {
	return realtime.NewSyncer(s, a.Logger(logging.ModuleRealtime))
}
