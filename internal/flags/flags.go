// Package flags defines canonical CLI flag names shared across the CLI and
// the configuration loader. Keeping them as constants avoids drift between
// Cobra flag wiring and the code that decides whether a flag overrides the
// environment.
//
// These are flag *names* without leading dashes:
//
//	cmd.Flags().StringVar(&cfg.Reports.Dir, flags.FlagReportsDir, "reports", "...")
//	arg := "--" + flags.FlagReportsDir
package flags

const (
	// Global
	FlagConfig    = "config"
	FlagVerbose   = "verbose"
	FlagLogFormat = "log-format"

	// Google Sheets
	FlagSpreadsheet = "spreadsheet"
	FlagCredentials = "credentials"
	FlagWritePause  = "write-pause"
	FlagRetries     = "retries"

	// Reports
	FlagReportsDir   = "reports-dir"
	FlagHistory      = "history"
	FlagPlugins      = "plugins"
	FlagUpdateCenter = "update-center"
	FlagInput        = "input"
	FlagFailing      = "failing"
	FlagManual       = "manual"

	// GitHub
	FlagToken     = "token"
	FlagGitHubURL = "github-url"
	FlagStart     = "start"
	FlagEnd       = "end"
	FlagTop       = "top"
	FlagMatched   = "matched"
	FlagFound     = "found"
	FlagGrouped   = "grouped"

	// Files
	FlagCSV      = "csv"
	FlagColumn   = "column"
	FlagNamesOut = "names-out"
	FlagFormat   = "format"
	FlagOutput   = "output"
	FlagSheet    = "sheet"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
)
