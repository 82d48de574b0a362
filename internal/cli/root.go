// Package cli provides the command-line interface for netdout.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netdout/netdout/internal/config"
	"github.com/netdout/netdout/internal/logging"
)

var (
	cfgFile string
	verbose bool

	logger *logging.Logger

	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version is set by main at startup.
var Version = "v0.1.0-dev"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netdout",
		Short: "netdout - background download agent",
		Long: `netdout ` + Version + `

A background download agent: submit a URL and destination path, and netdout
fetches it over parallel HTTP byte-range requests, resuming across restarts
from a durable per-chunk progress log.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefault()
			if verbose {
				logging.SetGlobalLevel(-1)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = Version
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI, cancelling the shared context on SIGINT/SIGTERM.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if sig != nil {
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newStatusCmd())
}

// GetLogger returns the global CLI logger, creating a default one if
// Execute hasn't run yet (e.g. under test).
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return logger
}

// GetContext returns the global CLI context, cancelled on SIGINT/SIGTERM.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig loads the configuration from the --config flag, falling back to
// defaults when unset or absent.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
