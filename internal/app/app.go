// Package app provides the player host. It wires configuration, plugin
// loading, state persistence, library construction and playback together,
// and is the plugin.Host every plugin talks to.
package app

import (
	"log/slog"
	"sync/atomic"

	"github.com/dshills/playercore/internal/config"
	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/persist"
	"github.com/dshills/playercore/internal/pipeline"
	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
	"github.com/dshills/playercore/internal/plugins/core"
	"github.com/dshills/playercore/internal/plugins/extras"
)

// CatalogFunc builds a fresh native catalog.
type CatalogFunc func() *plugin.Catalog

// DefaultCatalogs returns the catalogs shipped with the player.
func DefaultCatalogs() map[string]CatalogFunc {
	return map[string]CatalogFunc{
		core.CatalogName:   func() *plugin.Catalog { return core.Catalog() },
		extras.CatalogName: extras.Catalog,
	}
}

// Options configures the application.
type Options struct {
	// Config is the configuration. Defaults to config.Default().
	Config *config.Config

	// Units replaces the units configured in Config when non-nil.
	Units []plugin.LoadUnit

	// Catalogs maps native catalog names to constructors. Defaults to
	// DefaultCatalogs().
	Catalogs map[string]CatalogFunc

	// Output is the audio backend. Defaults to playback.NopOutput.
	Output playback.Output

	// Logger defaults to NullLogger.
	Logger *slog.Logger
}

// App is the player host.
//
// Startup is sequential: Init loads the plugins, restores their state,
// builds the library and creates the playback machine. Until Init has
// completed, Library and SetPlaybackState report plugin.ErrHostNotReady.
// Shutdown persists every plugin exactly once, however often it is called.
type App struct {
	cfg     *config.Config
	opts    Options
	logger  *slog.Logger
	metrics *Metrics
	persist *persist.Manager

	registry *plugin.Registry
	pipeline *pipeline.Pipeline
	library  *library.Library
	machine  *playback.Machine

	initialized atomic.Bool
	ready       atomic.Bool
	closed      atomic.Bool
}

// New creates an application. Nothing is loaded until Init.
func New(opts Options) *App {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Catalogs == nil {
		opts.Catalogs = DefaultCatalogs()
	}
	if opts.Output == nil {
		opts.Output = playback.NopOutput{}
	}
	if opts.Logger == nil {
		opts.Logger = NullLogger
	}

	a := &App{
		cfg:     opts.Config,
		opts:    opts,
		logger:  opts.Logger,
		metrics: NewMetrics(),
	}
	a.persist = persist.NewManager(
		persist.NewStore(a.cfg.StateDir()),
		persist.WithLogger(a.logger),
		persist.WithPersistHook(a.metrics.recordPersist),
	)
	return a
}

// Config returns the configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Metrics returns the application's metrics.
func (a *App) Metrics() *Metrics {
	return a.metrics
}

// Store returns the persisted state store.
func (a *App) Store() *persist.Store {
	return a.persist.Store()
}

// IsReady reports whether Init has completed.
func (a *App) IsReady() bool {
	return a.ready.Load()
}

// IsClosed reports whether Shutdown has run.
func (a *App) IsClosed() bool {
	return a.closed.Load()
}
