package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/playercore/internal/config"
	"github.com/dshills/playercore/internal/pipeline"
	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
	"github.com/dshills/playercore/internal/plugin/lua"
)

// Init runs the startup sequence: open the load units, load the enabled
// plugins, restore their state, build the library and create the playback
// machine. Any failure aborts startup, releases the units and is returned
// as an *InitError naming the stage.
func (a *App) Init() error {
	if a.closed.Load() {
		return ErrClosed
	}
	if !a.initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	timer := StartTimer()

	units, err := a.openUnits()
	if err != nil {
		a.closed.Store(true)
		return &InitError{Stage: StageUnits, Err: err}
	}

	var loaderOpts []plugin.LoaderOption
	loaderOpts = append(loaderOpts, plugin.WithLoaderLogger(a.logger))
	if ids, ok := a.cfg.Enabled(); ok {
		loaderOpts = append(loaderOpts, plugin.WithEnabled(ids...))
	}

	// A failed load has already closed the units.
	reg, err := plugin.NewLoader(units, loaderOpts...).Load(a)
	if err != nil {
		a.closed.Store(true)
		return &InitError{Stage: StageLoad, Err: err}
	}
	a.registry = reg
	a.metrics.pluginsLoaded.Set(float64(reg.Len()))

	if err := a.restore(); err != nil {
		a.abort()
		return &InitError{Stage: StageRestore, Err: err}
	}

	a.pipeline = pipeline.New(reg.Contributors(),
		pipeline.WithLogger(a.logger),
		pipeline.WithStep(a.metrics.recordContribution),
	)
	lib, err := a.pipeline.Library()
	if err != nil {
		a.abort()
		return &InitError{Stage: StageLibrary, Err: err}
	}
	a.library = lib

	listeners := make([]playback.Listener, 0, len(reg.Listeners()))
	for _, l := range reg.Listeners() {
		listeners = append(listeners, l)
	}
	a.machine = playback.NewMachine(listeners,
		playback.WithOutput(a.opts.Output),
		playback.WithObserver(a.metrics),
		playback.WithLogger(a.logger),
	)

	a.ready.Store(true)

	elapsed := timer.Elapsed()
	a.metrics.startupSeconds.Set(elapsed.Seconds())
	a.logger.Info("application ready",
		"plugins", reg.Len(),
		"playlists", lib.Len(),
		"duration", elapsed.Round(time.Microsecond),
	)
	return nil
}

// restore restores every plugin in load order and records its state.
func (a *App) restore() error {
	for _, e := range a.registry.Entries() {
		if err := a.persist.Restore(e.Plugin); err != nil {
			a.registry.SetState(e.Descriptor.ID, plugin.StateError)
			return err
		}
		a.registry.SetState(e.Descriptor.ID, plugin.StateRestored)
	}
	return nil
}

// abort releases the units after a failed startup. Plugins are not
// persisted: their state was never fully restored.
func (a *App) abort() {
	if err := a.registry.Close(); err != nil {
		a.logger.Warn("closing units after failed startup", "error", err)
	}
	a.closed.Store(true)
}

// openUnits builds the load units, from Options.Units or the configuration.
// Units opened before a failure are closed again.
func (a *App) openUnits() ([]plugin.LoadUnit, error) {
	if a.opts.Units != nil {
		return a.opts.Units, nil
	}

	configured, err := a.cfg.Units()
	if err != nil {
		return nil, err
	}

	units := make([]plugin.LoadUnit, 0, len(configured))
	for _, u := range configured {
		unit, err := a.openUnit(u)
		if err != nil {
			var errs []error
			for _, lu := range units {
				errs = append(errs, lu.Unit.Close())
			}
			return nil, errors.Join(append([]error{fmt.Errorf("unit %q: %w", u.Name, err)}, errs...)...)
		}
		units = append(units, plugin.LoadUnit{
			Unit:        unit,
			Classes:     u.Classes,
			DiscoverAll: u.Discover,
		})
	}
	return units, nil
}

func (a *App) openUnit(u config.Unit) (plugin.Unit, error) {
	switch u.Kind {
	case config.UnitNative:
		build, ok := a.opts.Catalogs[u.Catalog]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCatalog, u.Catalog)
		}
		return build(), nil
	case config.UnitLua:
		return lua.Open(u.Path,
			lua.WithLogger(a.logger),
			lua.WithTimeout(a.cfg.LuaTimeout()),
		)
	default:
		return nil, fmt.Errorf("unsupported unit kind %q", u.Kind)
	}
}
