package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/playercore/internal/app"
	"github.com/dshills/playercore/internal/config"
)

var (
	cfgFile  string
	stateDir string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "playercore",
	Short: "Music player core with a plugin host",
	Long: `playercore loads plugin units, builds the music library from their
contributions and drives playback while plugins listen in.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("playercore %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (toml or yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory holding plugin state")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg = config.Default()
		err = cfg.Validate()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if stateDir != "" {
		if err := cfg.Set("state_dir", stateDir); err != nil {
			return err
		}
	}
	if logLevel != "" {
		if err := cfg.Set("log_level", logLevel); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger = app.NewLogger(app.LoggerConfig{
		Level:  cfg.LogLevel(),
		Format: cfg.LogFormat(),
		Output: os.Stderr,
	})
	return nil
}

// newApp creates and initializes the application.
func newApp(opts app.Options) (*app.App, error) {
	opts.Config = cfg
	opts.Logger = logger

	a := app.New(opts)
	if err := a.Init(); err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return a, nil
}
