/*
Package cli provides command-line helpers for the apikeywall command.

Output Formatting:

Command results can be printed as text, JSON or YAML:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Text output uses the value's String method when it has one.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background(), logger)
	defer stop()

Exit Codes:

ExitCode maps a command error to the process exit status.
*/
package cli
