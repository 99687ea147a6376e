package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/persist"
	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
)

// Library returns the aggregate library.
func (a *App) Library() (*library.Library, error) {
	if !a.ready.Load() {
		return nil, plugin.ErrHostNotReady
	}
	return a.library, nil
}

// Machine returns the playback machine, or nil before Init.
func (a *App) Machine() *playback.Machine {
	if !a.ready.Load() {
		return nil
	}
	return a.machine
}

// PlaybackState returns the current playback state. It is Stopped before
// Init.
func (a *App) PlaybackState() playback.State {
	if !a.ready.Load() {
		return playback.Stopped()
	}
	return a.machine.State()
}

// SetPlaybackState transitions playback. Plugins may call it from inside
// their own listener callback.
func (a *App) SetPlaybackState(s playback.State) error {
	if err := a.usable(); err != nil {
		return err
	}
	return a.machine.Set(s)
}

// StartPlayback starts playing pl at index from.
func (a *App) StartPlayback(pl *library.Playlist, from int) error {
	if err := a.usable(); err != nil {
		return err
	}
	return a.machine.Start(pl, from)
}

// StartPlaylist starts playing the first library playlist named name.
func (a *App) StartPlaylist(name string, from int) error {
	lib, err := a.Library()
	if err != nil {
		return err
	}
	pl, ok := lib.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrPlaylistNotFound, name)
	}
	return a.StartPlayback(pl, from)
}

// NextOrStop advances to the next track or stops at the end of the
// playlist. It reports whether playback continues.
func (a *App) NextOrStop() (bool, error) {
	if err := a.usable(); err != nil {
		return false, err
	}
	return a.machine.FinishedTrack()
}

func (a *App) usable() error {
	if a.closed.Load() {
		return ErrClosed
	}
	if !a.ready.Load() {
		return plugin.ErrHostNotReady
	}
	return nil
}

// Settings returns the settings table of a plugin.
func (a *App) Settings(pluginID string) map[string]any {
	return a.cfg.PluginSettings(pluginID)
}

// Logger returns the logger handed to plugins.
func (a *App) Logger() *slog.Logger {
	return a.logger.With("component", "plugins")
}

// FindSinglePlugin returns the one loaded plugin of the given class or
// supertype. See plugin.Registry.FindSingle.
func (a *App) FindSinglePlugin(className string) (plugin.Plugin, bool) {
	if a.registry == nil {
		return nil, false
	}
	return a.registry.FindSingle(className)
}

// Plugins returns the loaded plugins in load order.
func (a *App) Plugins() []plugin.Entry {
	if a.registry == nil {
		return nil
	}
	return a.registry.Entries()
}

// Shutdown persists every plugin, releases the audio output and closes the
// load units. Only the first call does any work; later calls return nil.
// A plugin that fails to persist does not keep the others from persisting.
func (a *App) Shutdown() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !a.ready.Load() {
		return nil
	}

	var errs []error

	plugins := a.registry.Usable()
	_, err := a.persist.PersistAll(plugins)
	for _, p := range plugins {
		a.registry.SetState(p.ID(), plugin.StatePersisted)
	}
	if err != nil {
		for _, id := range failedPlugins(err) {
			a.registry.SetState(id, plugin.StateError)
		}
		errs = append(errs, err)
	}

	if err := a.machine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close output: %w", err))
	}
	if err := a.registry.Close(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shut down", "plugins", len(plugins))
	return errors.Join(errs...)
}

// failedPlugins returns the ids named by the persist errors joined in err.
func failedPlugins(err error) []string {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	var ids []string
	for _, e := range errs {
		var pe *persist.Error
		if errors.As(e, &pe) {
			ids = append(ids, pe.Plugin)
		}
	}
	return ids
}

// WipePersistedPluginData deletes persisted plugin state. After Init only
// the loaded plugins' state is deleted; before, the whole store is wiped.
func (a *App) WipePersistedPluginData() error {
	store := a.persist.Store()

	if a.registry == nil {
		n, err := store.Wipe()
		a.logger.Info("persisted state wiped", "plugins", n)
		return err
	}

	var errs []error
	for _, id := range a.registry.IDs() {
		if err := store.Delete(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
