package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/RichardSufliarsky/apikeywall/pkg/cli"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

var versionFlags struct {
	output string
}

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func (v versionInfo) String() string {
	return "apikeywall " + v.Version + "\n" +
		"Git Commit: " + v.GitCommit + "\n" +
		"Build Date: " + v.BuildDate + "\n" +
		"Go Version: " + v.GoVersion + "\n" +
		"OS/Arch: " + v.Platform + "\n"
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit and build date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := cli.NewFormatter(cli.OutputFormat(versionFlags.output))
		if err != nil {
			return cli.NewConfigError("output", err.Error())
		}
		return formatter.FormatTo(cmd.OutOrStdout(), currentVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFlags.output, "output", "o", string(cli.FormatText), "output format (text, json, yaml)")
}
