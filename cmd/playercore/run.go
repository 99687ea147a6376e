package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/playercore/internal/app"
	"github.com/dshills/playercore/internal/playback"
)

var runFrom int

var runCmd = &cobra.Command{
	Use:   "run [playlist]",
	Short: "Play a playlist to the end",
	Long: `Starts the host, plays the named playlist (the first one when no name
is given) through a logging output and persists plugin state on exit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runFrom, "from", 0, "index of the first track")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(app.Options{Output: playback.NewLogOutput(logger)})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Shutdown())
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	lib, err := a.Library()
	if err != nil {
		return err
	}
	if lib.Len() == 0 {
		fmt.Println("Library is empty")
		return nil
	}

	name := lib.Playlist(0).Name()
	if len(args) == 1 {
		name = args[0]
	}
	if err := a.StartPlaylist(name, runFrom); err != nil {
		return err
	}

	for {
		select {
		case <-signals:
			return nil
		default:
		}

		more, err := a.NextOrStop()
		if err != nil {
			var le *playback.ListenerError
			if !errors.As(err, &le) {
				return err
			}
			logger.Warn("listener failed", "plugin", le.Listener, "error", le.Err)
		}
		if !more {
			return nil
		}
	}
}
