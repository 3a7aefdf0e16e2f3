/*
Package cli provides helpers shared by the xacmlcore commands.

Output Formatting:

Results are written as text or JSON depending on the --format flag:

	format, err := cli.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Results implement TextRenderer to control their text form; NewTable aligns
columns.

Errors:

ConfigError and CommandError classify failures; ExitCode maps them to the
process exit status.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
