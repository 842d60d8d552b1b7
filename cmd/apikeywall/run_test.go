package main

import (
	"strings"
	"testing"

	"github.com/RichardSufliarsky/apikeywall/pkg/cli"
	"github.com/RichardSufliarsky/apikeywall/pkg/config"
)

func resetRunFlags(t *testing.T) {
	t.Helper()
	saved := runFlags
	savedVerbose := verbose
	t.Cleanup(func() {
		runFlags = saved
		verbose = savedVerbose
	})
}

func TestApplyRunFlags(t *testing.T) {
	resetRunFlags(t)

	runFlags.listenAddress = "127.0.0.1:9999"
	runFlags.logLevel = "warn"
	runFlags.secretsPath = "/tmp/secrets.json"
	runFlags.reloadMode = "watch"
	runFlags.allowEmpty = true

	cfg := config.Default()
	if err := applyRunFlags(cfg); err != nil {
		t.Fatalf("applyRunFlags() error = %v", err)
	}

	if cfg.Proxy.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("ListenAddress = %q", cfg.Proxy.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Level = %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Secrets.Path != "/tmp/secrets.json" {
		t.Errorf("Secrets.Path = %q", cfg.Secrets.Path)
	}
	if cfg.Reload.Mode != config.ReloadModeWatch {
		t.Errorf("Reload.Mode = %q", cfg.Reload.Mode)
	}
	if !cfg.Secrets.AllowMissingOnStartup {
		t.Error("AllowMissingOnStartup should be set by --allow-empty")
	}
}

func TestApplyRunFlags_VerboseDefersToLogLevel(t *testing.T) {
	resetRunFlags(t)
	runFlags = runOptions{}

	verbose = true
	cfg := config.Default()
	if err := applyRunFlags(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}

	runFlags.logLevel = "error"
	if err := applyRunFlags(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Telemetry.Logging.Level != "error" {
		t.Errorf("Level = %q, want error", cfg.Telemetry.Logging.Level)
	}
}

func TestApplyRunFlags_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		apply func()
		want  string
	}{
		{name: "reload mode", apply: func() { runFlags.reloadMode = "poll" }, want: "unknown reload mode"},
		{name: "log level", apply: func() { runFlags.logLevel = "loud" }, want: "telemetry.logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetRunFlags(t)
			runFlags = runOptions{}
			tt.apply()

			err := applyRunFlags(config.Default())
			if err == nil {
				t.Fatal("expected error")
			}
			if cli.ExitCode(err) != cli.ExitConfig {
				t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestRunCommand_DryRun(t *testing.T) {
	resetRunFlags(t)
	t.Setenv("APIKEYWALL_TELEMETRY_LOGGING_LEVEL", "error")

	out, err := executeCommand(t, "run", "--dry-run", "--secrets", t.TempDir()+"/apikeywall.json")
	if err != nil {
		t.Fatalf("run --dry-run error = %v", err)
	}
	if !strings.Contains(out, "configuration is valid") {
		t.Errorf("output = %q", out)
	}
}
