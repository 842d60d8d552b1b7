package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/RichardSufliarsky/apikeywall/pkg/cli"
	"github.com/RichardSufliarsky/apikeywall/pkg/config"
	"github.com/RichardSufliarsky/apikeywall/pkg/gateway"
	"github.com/RichardSufliarsky/apikeywall/pkg/reload"
	"github.com/RichardSufliarsky/apikeywall/pkg/telemetry/logging"
)

type runOptions struct {
	listenAddress string
	logLevel      string
	secretsPath   string
	reloadMode    string
	allowEmpty    bool
	dryRun        bool
}

var runFlags runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the apikeywall proxy",
	Long: `Start the apikeywall forward proxy with the specified configuration.

At startup the secrets file is claimed and loaded. Unless --allow-empty is
set, a missing or unreadable secrets file stops the process. Afterwards the
reload scheduler picks up every new secrets file the operator drops in place.

Examples:
  # Start with defaults
  apikeywall run

  # Start with a config file
  apikeywall run --config /etc/apikeywall/config.yaml

  # Override listen address and reload on file system events
  apikeywall run --listen 127.0.0.1:9000 --reload-mode watch

  # Validate config without starting the proxy
  apikeywall run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.secretsPath, "secrets", "", "override secrets file path")
	runCmd.Flags().StringVar(&runFlags.reloadMode, "reload-mode", "", "override reload mode (interval, request, watch)")
	runCmd.Flags().BoolVar(&runFlags.allowEmpty, "allow-empty", false, "start with no rules when the secrets file is missing")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
}

// applyRunFlags copies command line overrides onto cfg and revalidates it.
func applyRunFlags(cfg *config.Config) error {
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.secretsPath != "" {
		cfg.Secrets.Path = runFlags.secretsPath
	}
	if runFlags.reloadMode != "" {
		if _, err := reload.ParseMode(runFlags.reloadMode); err != nil {
			return cli.NewConfigError("reload.mode", err.Error())
		}
		cfg.Reload.Mode = runFlags.reloadMode
	}
	if runFlags.allowEmpty {
		cfg.Secrets.AllowMissingOnStartup = true
	}

	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return err
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
		return nil
	}

	gw, err := gateway.New(cfg, gateway.WithLogger(logger))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Warn("failed to close reload journal", "error", err)
		}
	}()

	ctx, stop := cli.SetupSignalHandler(context.Background(), logger)
	defer stop()

	logger.Info("starting apikeywall",
		"version", Version,
		"listen_address", cfg.Proxy.ListenAddress,
		"reload_mode", cfg.Reload.Mode,
	)

	if err := gw.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	logger.Info("apikeywall stopped")
	return nil
}
