package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/RichardSufliarsky/apikeywall/pkg/cli"
	"github.com/RichardSufliarsky/apikeywall/pkg/rules"
)

var checkFlags struct {
	output string
}

var checkCmd = &cobra.Command{
	Use:   "check [secrets-file]",
	Short: "Validate a secrets file without consuming it",
	Long: `Validate a secrets file against the rule schema.

The file is read in place and left on disk. Only placeholder counts and
endpoint hosts are printed; real keys never appear in the output.

When no file is given, the configured secrets path is checked.

Examples:
  # Check the configured secrets file
  apikeywall check

  # Check a specific file and print the result as JSON
  apikeywall check ./apikeywall.json --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFlags.output, "output", "o", string(cli.FormatText), "output format (text, json, yaml)")
}

// checkReport summarizes a secrets file.
type checkReport struct {
	Path      string   `json:"path" yaml:"path"`
	Valid     bool     `json:"valid" yaml:"valid"`
	Rules     int      `json:"rules" yaml:"rules"`
	Endpoints []string `json:"endpoints" yaml:"endpoints"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (r checkReport) String() string {
	var b strings.Builder
	if r.Valid {
		fmt.Fprintf(&b, "%s: OK (%d rules)\n", r.Path, r.Rules)
		for _, host := range r.Endpoints {
			fmt.Fprintf(&b, "  %s\n", host)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "%s: INVALID\n", r.Path)
	for _, msg := range r.Errors {
		fmt.Fprintf(&b, "  %s\n", msg)
	}
	return b.String()
}

// inspectSecrets validates the secrets file at path without renaming or
// deleting it.
func inspectSecrets(path string) (checkReport, error) {
	report := checkReport{Path: path, Endpoints: []string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read secrets file: %w", err)
	}
	defer clear(data)

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		report.Errors = []string{fmt.Sprintf("invalid JSON: %v", err)}
		return report, nil
	}

	errs, parsed := rules.Validate(raw)
	if len(errs) > 0 {
		report.Errors = errs
		return report, nil
	}

	table := rules.NewStore().Replace(parsed)
	report.Valid = true
	report.Rules = table.Len()
	report.Endpoints = table.Endpoints()
	return report, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(checkFlags.output))
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if path, err = cfg.SecretsPath(); err != nil {
			return cli.NewConfigError("secrets.path", err.Error())
		}
	}

	report, err := inspectSecrets(path)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return cli.NewCommandError("check", err)
	}

	if !report.Valid {
		return &cli.ValidationFailedError{Path: path, Errors: len(report.Errors)}
	}
	return nil
}
