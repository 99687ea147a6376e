package playback

import (
	"log/slog"

	"github.com/dshills/playercore/internal/library"
)

// Output is the audio backend driven by the machine. Decoding and device
// access live behind it.
type Output interface {
	Play(track *library.Track, resumed bool) error
	Pause()
	Stop()
	Close() error
}

// NopOutput discards every command.
type NopOutput struct{}

func (NopOutput) Play(*library.Track, bool) error { return nil }
func (NopOutput) Pause()                          {}
func (NopOutput) Stop()                           {}
func (NopOutput) Close() error                    { return nil }

// LogOutput reports every command to a logger instead of a device.
type LogOutput struct {
	Logger *slog.Logger
}

// NewLogOutput creates a LogOutput.
func NewLogOutput(logger *slog.Logger) *LogOutput {
	return &LogOutput{Logger: logger.With("component", "output")}
}

func (o *LogOutput) Play(track *library.Track, resumed bool) error {
	o.Logger.Info("play", "track", track.String(), "resumed", resumed)
	return nil
}

func (o *LogOutput) Pause() {
	o.Logger.Info("pause")
}

func (o *LogOutput) Stop() {
	o.Logger.Info("stop")
}

func (o *LogOutput) Close() error {
	o.Logger.Debug("close")
	return nil
}
