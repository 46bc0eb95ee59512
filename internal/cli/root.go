package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"jdk25tracker/internal/config"
	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/flags"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/retry"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var (
	cfg        = config.New()
	configFile string
)

// Exit codes shared by every command. validate additionally exits with
// its verdict.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 3
)

var rootCmd = &cobra.Command{
	Use:   "jdk25tracker",
	Short: "Track Jenkins plugin compatibility with JDK 25",
	Long: `jdk25tracker collects, reconciles and publishes the JDK 25 readiness of
Jenkins plugins.

Examples:
	# Scan the 250 most popular plugins and write dated reports
	jdk25tracker detect --top 250

	# Push the latest reports to the tracking spreadsheet
	jdk25tracker update reports/jdk25_tracking_with_prs_2025-10-09.json \
		reports/jdk25_open_prs_tracking_2025-10-09.json $SPREADSHEET_ID

	# Compare automation with the manually maintained sheet
	jdk25tracker validate reports/jdk25_tracking_with_prs_2025-10-09.json

	# Print build info
	jdk25tracker version

Configuration:
	Settings are read from flags, then the environment (SPREADSHEET_ID,
	GOOGLE_APPLICATION_CREDENTIALS, GITHUB_TOKEN, REPORTS_DIR, ...), then
	jdk25tracker.yaml in the working directory. .env.local and .env are
	loaded into the environment first.

Exit codes:
	0 = success
	1 = runtime error
	3 = invalid configuration or usage`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, flags.FlagConfig, "", "Configuration file (default: ./jdk25tracker.yaml when present)")
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every GitHub API call and full error details)")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.LogFormat, flags.FlagLogFormat, cfg.Runtime.LogFormat, "Log format: auto|console|json (default: auto)")
	rootCmd.PersistentFlags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout (default: 30m)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})
}

// setup loads configuration on top of the parsed flags and installs the
// logger for the command.
func setup(cmd *cobra.Command) error {
	if err := config.Load(cfg, configFile, cmd.Flags().Changed); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := logging.DefaultConfig().WithVerbose(cfg.Runtime.Verbose)
	logCfg.Format = cfg.Runtime.LogFormat
	logger := logging.Configure(logCfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithLogger(ctx, &logger)
	cmd.SetContext(logging.WithCommand(ctx, cmd.Name()))
	return nil
}

// commandContext bounds a command by the configured timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, cfg.Runtime.Timeout)
}

// sheetsRetryPolicy is the retry policy for spreadsheet calls.
func sheetsRetryPolicy(c *config.Config) retry.Policy {
	p := retry.DefaultPolicy()
	p.Attempts = c.Sheets.Attempts
	p.InitialDelay = c.Sheets.InitialDelay
	return p
}

// exitError carries a specific process exit status. A nil err exits
// silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		return nil
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, pkgerrors.ErrInvalidInput) {
		return exitUsage
	}
	return exitFailure
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}
	var ee *exitError
	if !errors.As(err, &ee) || ee.err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
