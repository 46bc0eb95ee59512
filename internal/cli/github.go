package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"jdk25tracker/internal/collector"
	"jdk25tracker/internal/config"
	"jdk25tracker/internal/detect"
	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/flags"
	"jdk25tracker/internal/github"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/plugins"

	"github.com/spf13/cobra"
)

// Commands that read from GitHub.

const githubHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	jdk25tracker authenticates to GitHub using an access token.

	Sources (in order):
	1) --token
	2) GITHUB_TOKEN environment variable (or .env / .env.local)
	3) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

	Public repository data is enough: a classic PAT without scopes or a
	fine-grained PAT with public repository access works.

	Examples:
		# macOS/Linux
		export GITHUB_TOKEN="<your_token>"
		jdk25tracker detect --top 100

		# GitHub CLI auth
		gh auth login
		jdk25tracker collect --start 2025-01-01 --end 2025-03-31
`

var collectOpts struct {
	start string
	end   string
	paths collector.Paths
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect modernizer pull requests opened against Jenkins plugins",
	Long: `Search the jenkinsci organization month by month for pull requests created
between --start and --end (inclusive). Pull requests on plugin repositories,
not opened by dependency bots, whose description mentions the plugin
modernizer or a recipe are kept.

Search requests are paced at one per second and retried on failure.

Output:
	--matched  the kept pull requests
	--found    every pull request the search returned (skipped when none)
	--grouped  the kept pull requests grouped by title, as read by upload
	--failing  the kept pull requests whose checks fail, as read by upload

Examples:
	jdk25tracker collect --start 2025-01-01 --end 2025-06-30
	jdk25tracker upload grouped_prs.json
`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRange(collectOpts.start, collectOpts.end)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		client, err := githubClient(ctx, cfg)
		if err != nil {
			return err
		}
		registry, err := loadRegistry(ctx, cfg)
		if err != nil {
			return err
		}

		opts := collector.DefaultOptions()
		opts.Start, opts.End = start, end
		res, err := collector.New(client, registry, opts).Run(ctx)
		if err != nil {
			return err
		}
		if err := collector.Write(ctx, collectOpts.paths, res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Searched %d windows (%d pages): %d pull requests found, %d matched\n",
			res.Windows, res.Pages, len(res.Found), len(res.Matched))
		return nil
	},
}

// parseRange reads --start and --end. The end date covers its whole day.
func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, pkgerrors.NewConfigError("--start/--end", "both dates are required (YYYY-MM-DD)", nil)
	}
	start, err := time.Parse(collector.DateLayout, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.NewConfigError("--"+flags.FlagStart, fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", startRaw), err)
	}
	end, err := time.Parse(collector.DateLayout, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.NewConfigError("--"+flags.FlagEnd, fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", endRaw), err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, pkgerrors.NewConfigError("--"+flags.FlagEnd, "must not be before --start", nil)
	}
	return start, collector.EndOfDay(end), nil
}

var detectTop int

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan the most popular plugins for JDK 25 support",
	Long: `Read the Jenkinsfile and the JDK 25 pull requests of the most popular
plugins and write a dated tracking report and open-PR report into
--reports-dir. Those reports are the inputs of update and validate.

A plugin is JDK 25 compatible when its Jenkinsfile builds with jdk: 25.
The recorded pull request is a merged one when there is one, otherwise
the most recent.

Repositories that cannot be read are reported and left out.

Examples:
	jdk25tracker detect --top 250
	jdk25tracker detect --plugins plugins.json --concurrency 4
`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if detectTop <= 0 {
			return pkgerrors.NewConfigError("--"+flags.FlagTop, "must be >= 1", nil)
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		client, err := githubClient(ctx, cfg)
		if err != nil {
			return err
		}
		registry, err := loadRegistry(ctx, cfg)
		if err != nil {
			return err
		}
		return runDetect(ctx, cmd.OutOrStdout(), client, registry.Top(detectTop), time.Now())
	},
}

func runDetect(ctx context.Context, w io.Writer, src detect.Source, list []plugins.Plugin, now time.Time) error {
	res, err := detect.Scan(ctx, src, list, detect.Options{Concurrency: cfg.Runtime.Concurrency, Verbose: cfg.Runtime.Verbose})
	if err != nil {
		return err
	}
	trackingPath, openPath, err := detect.Write(ctx, cfg.Reports.Dir, now, res)
	if err != nil {
		return err
	}

	open := 0
	for _, e := range res.Open {
		open += len(e.OpenPRs)
	}
	fmt.Fprintf(w, "Scanned %d plugins: %d JDK 25 compatible, %d open JDK 25 PRs, %d failed\n",
		len(res.Entries), res.Compatible(), open, len(res.Failures))
	fmt.Fprintf(w, "Tracking report: %s\n", trackingPath)
	fmt.Fprintf(w, "Open PR report:  %s\n", openPath)
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  failed: %s: %s\n", f.Repository, github.Describe(f.Err, cfg.Runtime.Verbose))
	}
	return nil
}

func githubClient(ctx context.Context, c *config.Config) (*github.Client, error) {
	token, source, err := github.ResolveAuthToken(ctx, c.GitHub.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve GitHub auth token: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.NewConfigError("token", "GitHub auth token is required (set GITHUB_TOKEN or run 'gh auth login')", nil)
	}
	logging.FromContext(ctx).Debug().Str("source", string(source)).Msg("Resolved GitHub token")

	opts := []github.Option{github.WithVerbose(c.Runtime.Verbose, nil)}
	if c.GitHub.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(c.GitHub.BaseURL))
	}
	client, err := github.NewClient(ctx, token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return client, nil
}

func addGitHubFlags(cmd *cobra.Command) {
	cmd.SetHelpTemplate(githubHelpTemplate)
	cmd.Flags().StringVar(&cfg.GitHub.Token, flags.FlagToken, "", "GitHub token (default: GITHUB_TOKEN, then gh auth token)")
	cmd.Flags().StringVar(&cfg.GitHub.BaseURL, flags.FlagGitHubURL, "", "GitHub Enterprise API URL, e.g. https://ghe.example.com/api/v3/")
	cmd.Flags().StringVar(&cfg.Reports.Plugins, flags.FlagPlugins, "", "Local plugins.json; the update center is fetched when empty")
	cmd.Flags().StringVar(&cfg.Reports.UpdateCenter, flags.FlagUpdateCenter, cfg.Reports.UpdateCenter, "Update center URL")
}

func init() {
	rootCmd.AddCommand(collectCmd, detectCmd)

	addGitHubFlags(collectCmd)
	def := collector.DefaultPaths()
	collectCmd.Flags().StringVar(&collectOpts.start, flags.FlagStart, "", "First creation date, YYYY-MM-DD (required)")
	collectCmd.Flags().StringVar(&collectOpts.end, flags.FlagEnd, "", "Last creation date, YYYY-MM-DD, inclusive (required)")
	collectCmd.Flags().StringVar(&collectOpts.paths.Matched, flags.FlagMatched, def.Matched, "Matched pull requests file")
	collectCmd.Flags().StringVar(&collectOpts.paths.Found, flags.FlagFound, def.Found, "All found pull requests file")
	collectCmd.Flags().StringVar(&collectOpts.paths.Grouped, flags.FlagGrouped, def.Grouped, "Grouped pull requests file")
	collectCmd.Flags().StringVar(&collectOpts.paths.Failing, flags.FlagFailing, def.Failing, "Failing pull requests file")

	addGitHubFlags(detectCmd)
	detectCmd.Flags().IntVar(&detectTop, flags.FlagTop, 250, "Number of most popular plugins to scan")
	detectCmd.Flags().StringVar(&cfg.Reports.Dir, flags.FlagReportsDir, cfg.Reports.Dir, "Directory for the dated reports (env: REPORTS_DIR)")
	detectCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Repositories scanned at once")
}
