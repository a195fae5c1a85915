// Package main is the devmirror command line.
package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/frudas24/devmirror/internal/config"
	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/webrtc"
)

// commandContext lazily loads configuration shared by subcommands.
type commandContext struct {
	configFlag *string
	debugFlag  *bool

	once   sync.Once
	config config.Config
	logger *slog.Logger
	err    error
}

// ensure loads config and builds the logger once.
func (c *commandContext) ensure() (config.Config, *slog.Logger, error) {
	c.once.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.err = err
			return
		}
		level := cfg.LogLevel
		if *c.debugFlag {
			level = "debug"
		}
		logger, err := logging.New(logging.Options{Level: level, Format: cfg.LogFormat})
		if err != nil {
			c.err = err
			return
		}
		webrtc.SetDebugLogging(*c.debugFlag)
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.logger, c.err
}

// newRootCommand builds the command tree. Without a subcommand it runs the mirror.
func newRootCommand() *cobra.Command {
	var configFlag string
	var debugFlag bool
	ctx := &commandContext{configFlag: &configFlag, debugFlag: &debugFlag}

	runCmd := newRunCommand(ctx)
	rootCmd := &cobra.Command{
		Use:           "devmirror",
		Short:         "Mirror and control an adb-attached device",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}
	rootCmd.Flags().AddFlagSet(runCmd.Flags())

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable verbose debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newProbeCommand(ctx))
	return rootCmd
}
