package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RichardSufliarsky/apikeywall/pkg/cli"
	"github.com/RichardSufliarsky/apikeywall/pkg/journal"
)

var historyFlags struct {
	limit   int
	outcome string
	since   time.Duration
	output  string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent secrets reloads from the journal",
	Long: `Show recent secrets reload attempts recorded in the reload journal.

The journal only records outcomes, generations and counts. It never contains
placeholders or real keys.

Examples:
  # Last 20 reloads
  apikeywall history

  # Rejected files from the last day, as JSON
  apikeywall history --outcome rejected --since 24h -o json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "maximum number of entries")
	historyCmd.Flags().StringVar(&historyFlags.outcome, "outcome", "", "only show entries with this outcome")
	historyCmd.Flags().DurationVar(&historyFlags.since, "since", 0, "only show entries newer than this duration")
	historyCmd.Flags().StringVarP(&historyFlags.output, "output", "o", string(cli.FormatText), "output format (text, json, yaml)")
}

type historyReport []journal.Entry

func (h historyReport) String() string {
	if len(h) == 0 {
		return "no reloads recorded\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-25s  %-13s  %10s  %5s  %6s\n", "TIME", "OUTCOME", "GENERATION", "RULES", "ERRORS")
	for _, e := range h {
		fmt.Fprintf(&b, "%-25s  %-13s  %10d  %5d  %6d\n",
			e.Time.Format(time.RFC3339), e.Outcome, e.Generation, e.Rules, e.Errors)
	}
	return b.String()
}

func runHistory(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(historyFlags.output))
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}
	if historyFlags.limit < 0 {
		return cli.NewConfigError("limit", "must not be negative")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer store.Close()

	q := journal.Query{Limit: historyFlags.limit, Outcome: historyFlags.outcome}
	if historyFlags.since > 0 {
		q.Since = time.Now().Add(-historyFlags.since)
	}

	entries, err := store.List(context.Background(), q)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	if entries == nil {
		entries = []journal.Entry{}
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), historyReport(entries)); err != nil {
		return cli.NewCommandError("history", err)
	}
	return nil
}
