// Package app provides the application context and dependency management
// for the parkmerge CLI: configuration, logging and the lazily built merge
// engine shared by every command.
package app

import (
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/parkmerge"
	"github.com/agentstation/parkmerge/pkg/errors"
)

// App represents the parkmerge application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Command output; nil means the cobra default (stdout)
	out io.Writer

	// Engine instance (lazy-initialized, rebuilt when flags change the config)
	mu     sync.Mutex
	engine parkmerge.Engine
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Engine returns the merge engine, creating it from the current
// configuration if needed.
func (a *App) Engine() (parkmerge.Engine, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine != nil {
		return a.engine, nil
	}

	engine, err := parkmerge.New(
		parkmerge.WithLogger(a.logger),
		parkmerge.WithReconcilerOptions(a.config.ReconcilerOptions()...),
	)
	if err != nil {
		return nil, errors.NewConfigError("engine", "invalid engine settings", err)
	}
	a.engine = engine
	return engine, nil
}

// reset drops the cached engine so the next call picks up config changes.
func (a *App) reset() {
	a.mu.Lock()
	a.engine = nil
	a.mu.Unlock()
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = config
		logger := NewLogger(config)
		a.logger = &logger
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput redirects command output (useful for testing).
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
