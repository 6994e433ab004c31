// Package app provides the application context and dependency wiring
// for the lorekeep CLI. It centralizes configuration, logging, and the
// lazily created engine instance.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep"
	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/capability/gemini"
	"github.com/lorekeep/lorekeep/pkg/capability/heuristic"
	"github.com/lorekeep/lorekeep/pkg/capability/ollama"
	"github.com/lorekeep/lorekeep/pkg/errors"
)

// App represents the lorekeep application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Engine instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	engine *lorekeep.Engine
}

// New creates a new App instance with the given version information.
func New(version, commit, date string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
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

// Version returns the version string.
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

// Engine returns the engine instance, creating it lazily. This is
// thread-safe and ensures only one instance is created.
func (a *App) Engine(ctx context.Context) (*lorekeep.Engine, error) {
	a.mu.RLock()
	if a.engine != nil {
		engine := a.engine
		a.mu.RUnlock()
		return engine, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine != nil {
		return a.engine, nil
	}

	cap, err := a.buildCapability(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := lorekeep.New(
		lorekeep.WithCapability(cap),
		lorekeep.WithLogger(*a.logger),
	)
	if err != nil {
		return nil, err
	}

	a.engine = engine
	return engine, nil
}

// buildCapability constructs the intelligence capability selected by
// the configuration.
func (a *App) buildCapability(ctx context.Context) (capability.Analyzer, error) {
	switch a.config.Backend {
	case "", heuristic.Backend:
		return heuristic.New(), nil
	case gemini.Backend:
		var opts []gemini.Option
		if a.config.Model != "" {
			opts = append(opts, gemini.WithModel(a.config.Model))
		}
		return gemini.New(ctx, a.config.APIKey, opts...)
	case ollama.Backend:
		var opts []ollama.Option
		if a.config.Model != "" {
			opts = append(opts, ollama.WithModel(a.config.Model))
		}
		if a.config.BaseURL != "" {
			opts = append(opts, ollama.WithBaseURL(a.config.BaseURL))
		}
		return ollama.New(opts...), nil
	}
	return nil, errors.NewConfigError("backend",
		"unknown backend "+a.config.Backend+", expected heuristic, gemini, or ollama", nil)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
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

// WithEngine sets a custom engine instance (useful for testing).
func WithEngine(engine *lorekeep.Engine) Option {
	return func(a *App) error {
		a.engine = engine
		return nil
	}
}
