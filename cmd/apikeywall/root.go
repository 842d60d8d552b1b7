package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RichardSufliarsky/apikeywall/pkg/cli"
	"github.com/RichardSufliarsky/apikeywall/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "apikeywall",
	Short: "apikeywall - placeholder-to-credential substituting forward proxy",
	Long: `apikeywall is a local forward proxy that keeps real API keys out of
application configuration.

Clients send requests with a placeholder bearer token. When a request is
bound for a host the placeholder is registered for, the proxy replaces the
placeholder with the real key before forwarding it.

Secrets are delivered through a one-shot JSON file that is claimed, read and
deleted as soon as the proxy sees it.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the status matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// loadConfig reads the configuration named by --config with environment
// overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg, nil
}
