package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"jdk25tracker/internal/config"
	"jdk25tracker/internal/flags"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/manual"
	"jdk25tracker/internal/output"
	"jdk25tracker/internal/tracking"
	"jdk25tracker/internal/validate"

	"github.com/spf13/cobra"
)

var validateManual string

var validateCmd = &cobra.Command{
	Use:   "validate <tracking.json>",
	Short: "Compare automated JDK 25 detection with the manual spreadsheet export",
	Long: `Compare the plugins a tracking report marks compatible with the manually
maintained CSV export, checking that every manual plugin was found and
that its pull request and merge status agree.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON document or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown report
	- --no-console: suppress the console sink

	NDJSON mode emits one JSON object per line: a validation.started event,
	one finding per manual or additional plugin, then validation.finished
	carrying the summary and verdict.

Exit codes:
	0 = PASS, every manual plugin found with matching details
	1 = PARTIAL, every manual plugin found but some details differ
	2 = FAIL, some manual plugins are missing
	3 = fatal error (inputs missing or unreadable)

Examples:
	jdk25tracker validate reports/jdk25_tracking_with_prs_2025-10-09.json
	jdk25tracker validate reports/latest.json --no-console --emit ndjson
`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		report, err := runValidate(ctx, validateManual, args[0])
		if err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		report.Generated = time.Now()

		sinks, err := validationSinks(cmd.OutOrStdout(), cfg)
		if err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		writeErr := output.WriteReport(sinks, report)
		if err := errors.Join(writeErr, sinks.Close()); err != nil {
			return err
		}

		if code := report.Verdict().ExitCode(); code != exitOK {
			return &exitError{code: code}
		}
		return nil
	},
}

func runValidate(ctx context.Context, manualPath, trackingPath string) (validate.Report, error) {
	log := logging.FromContext(ctx)

	manualEntries, err := manual.Load(manualPath)
	if err != nil {
		return validate.Report{}, err
	}
	log.Info().Str("file", manualPath).Int("plugins", len(manualEntries)).Msg("Loaded manual spreadsheet")

	automated, err := tracking.LoadReport(trackingPath)
	if err != nil {
		return validate.Report{}, err
	}
	log.Info().Str("file", trackingPath).Int("entries", len(automated)).Msg("Loaded automated results")

	report := validate.Compare(manualEntries, automated)
	log.Info().
		Int("found", report.Summary.Found).
		Int("missing", report.Summary.Missing).
		Int("additional", report.Summary.Additional).
		Str("verdict", string(report.Verdict())).
		Msg("Validation complete")
	return report, nil
}

func validationSinks(stdout io.Writer, c *config.Config) (*output.Manager, error) {
	m := output.NewManager()
	if !c.Output.NoConsole {
		if err := m.AddSink(output.NewConsoleSink(stdout, c.Output.ConsoleFormat, c.Output.ConsoleFilterStatus)); err != nil {
			return nil, err
		}
	}
	for _, format := range c.Output.Emit {
		sink, err := output.NewEmitSink(stdout, format)
		if err != nil {
			return nil, err
		}
		if err := m.AddSink(sink); err != nil {
			return nil, err
		}
	}
	if c.Output.Out != "" {
		sink, err := output.NewFileSink(c.Output.Out, c.Output.OutFormat)
		if err != nil {
			return nil, err
		}
		if err := m.AddSink(sink); err != nil {
			return nil, err
		}
	}
	if c.Output.Report != "" {
		sink, err := output.NewReportSink(c.Output.Report)
		if err != nil {
			return nil, err
		}
		if err := m.AddSink(sink); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateManual, flags.FlagManual, manual.DefaultCSV, "Manual spreadsheet export (CSV)")

	// Output
	validateCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	validateCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (FOUND, MISSING, NEW). Comma-separated.")
	validateCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	validateCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	validateCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	validateCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	validateCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
}
