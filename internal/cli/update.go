package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jdk25tracker/internal/config"
	"jdk25tracker/internal/flags"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/plugins"
	"jdk25tracker/internal/publish"
	"jdk25tracker/internal/reconcile"
	"jdk25tracker/internal/retry"
	"jdk25tracker/internal/sheets"
	"jdk25tracker/internal/tracking"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <tracking.json> [open-prs.json] [spreadsheet-id-or-url]",
	Short: "Write the latest tracking report to the progress spreadsheet",
	Long: `Fold the historical tracking reports into the given one, reconcile the
result with the progress worksheet and rewrite it, together with the
Statistics worksheet and, when an open-PR report is given, the open-PR
worksheet.

A plugin marked compatible in any historical report stays compatible.

The second argument is read as the open-PR report when it ends in .json;
otherwise it names the spreadsheet. The spreadsheet can also come from
--spreadsheet, SPREADSHEET_ID or JDK25_SPREADSHEET_ID.

Examples:
	jdk25tracker update reports/jdk25_tracking_with_prs_2025-10-09.json
	jdk25tracker update reports/jdk25_tracking_with_prs_2025-10-09.json \
		reports/jdk25_open_prs_tracking_2025-10-09.json \
		https://docs.google.com/spreadsheets/d/<id>/edit
`,
	Args: usageArgs(cobra.RangeArgs(1, 3)),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, spreadsheet := parseUpdateArgs(args)
		if spreadsheet != "" {
			cfg.Sheets.Spreadsheet = spreadsheet
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		if err := cfg.RequireSpreadsheet(); err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		ss, err := openSpreadsheet(ctx, cfg)
		if err != nil {
			return err
		}
		return runUpdate(ctx, cmd.OutOrStdout(), ss, in)
	},
}

type updateInput struct {
	Tracking string
	OpenPRs  string
}

func parseUpdateArgs(args []string) (updateInput, string) {
	in := updateInput{Tracking: args[0]}
	rest := args[1:]
	if len(rest) > 0 && strings.HasSuffix(rest[0], ".json") {
		in.OpenPRs = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return in, rest[0]
	}
	return in, ""
}

func openSpreadsheet(ctx context.Context, c *config.Config) (*sheets.Client, error) {
	svc, err := sheets.NewService(ctx, c.Sheets.Credentials)
	if err != nil {
		return nil, err
	}
	return sheets.Open(ctx, svc, c.Sheets.Spreadsheet,
		sheets.WithRetryPolicy(sheetsRetryPolicy(c)),
		sheets.WithWritePause(c.Sheets.WritePause),
	)
}

// loadRegistry reads the local plugins.json when configured and the update
// center otherwise.
func loadRegistry(ctx context.Context, c *config.Config) (*plugins.Registry, error) {
	log := logging.FromContext(ctx)
	if c.Reports.Plugins != "" {
		reg, err := plugins.Load(c.Reports.Plugins)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", c.Reports.Plugins).Int("plugins", reg.Len()).Msg("Loaded plugin registry")
		return reg, nil
	}
	reg, err := plugins.Fetch(ctx, http.DefaultClient, c.Reports.UpdateCenter, retry.DefaultPolicy())
	if err != nil {
		return nil, err
	}
	log.Info().Int("plugins", reg.Len()).Msg("Fetched plugin registry")
	return reg, nil
}

func runUpdate(ctx context.Context, w io.Writer, ss sheets.Spreadsheet, in updateInput) error {
	log := logging.FromContext(ctx)

	current, err := tracking.LoadReport(in.Tracking)
	if err != nil {
		return err
	}
	log.Info().Str("file", in.Tracking).Int("entries", len(current)).Msg("Loaded tracking report")

	files, err := tracking.HistoryFiles(cfg.Reports.History, in.Tracking)
	if err != nil {
		return err
	}
	history := tracking.LoadHistory(ctx, files)
	combined := tracking.Combine(current, history)
	log.Info().
		Int("history_files", len(files)).
		Int("recovered", combined.Recovered).
		Int("retained", combined.Retained).
		Msg("Merged historical reports")

	var open []tracking.OpenEntry
	if in.OpenPRs != "" {
		open, err = tracking.LoadOpenPRs(in.OpenPRs)
		if err != nil {
			return err
		}
		if open == nil {
			open = []tracking.OpenEntry{}
		}
	}

	// Without a registry, installation counts are left as they are.
	registry, err := loadRegistry(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Cannot load plugin registry, installation counts will not be refreshed")
		registry = plugins.Empty()
	}

	pub := publish.New(ss, publish.Options{})
	report, err := pub.UpdateProgress(ctx, publish.ProgressInput{
		Entries:  combined.Entries,
		Registry: registry,
		OpenPRs:  open,
	})
	if err != nil {
		return err
	}
	printProgress(w, ss.URL(), report)
	return nil
}

func printProgress(w io.Writer, url string, r publish.ProgressReport) {
	s := r.Stats
	fmt.Fprintf(w, "Updated %q\n", r.Worksheet)
	fmt.Fprintf(w, "  Plugins scanned:     %d\n", s.Scanned)
	fmt.Fprintf(w, "  JDK 25 compatible:   %d (%.2f%%)\n", s.Compatible, reconcile.Percent(s.Compatible, s.Scanned))
	fmt.Fprintf(w, "  With a JDK 25 PR:    %d\n", s.WithPR)
	fmt.Fprintf(w, "  Merged:              %d\n", s.Merged)
	fmt.Fprintf(w, "  Rows updated/cleared/added: %d/%d/%d\n", s.RowsUpdated, s.RowsCleared, s.RowsAdded)
	if r.Age.Count > 0 {
		fmt.Fprintf(w, "  Open PRs:            %d (%d drafts, median %.0f days open)\n", r.Age.Count, r.Age.Drafts, r.Age.Median)
	}
	fmt.Fprintf(w, "Spreadsheet: %s\n", url)
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&cfg.Sheets.Spreadsheet, flags.FlagSpreadsheet, "", "Spreadsheet ID or docs.google.com URL (env: SPREADSHEET_ID)")
	updateCmd.Flags().StringVar(&cfg.Sheets.Credentials, flags.FlagCredentials, cfg.Sheets.Credentials, "Service account key file (env: GOOGLE_APPLICATION_CREDENTIALS)")
	updateCmd.Flags().DurationVar(&cfg.Sheets.WritePause, flags.FlagWritePause, cfg.Sheets.WritePause, "Pause after each spreadsheet write")
	updateCmd.Flags().IntVar(&cfg.Sheets.Attempts, flags.FlagRetries, cfg.Sheets.Attempts, "Attempts for rate-limited spreadsheet calls")
	updateCmd.Flags().StringVar(&cfg.Reports.Dir, flags.FlagReportsDir, cfg.Reports.Dir, "Directory holding the dated reports (env: REPORTS_DIR)")
	updateCmd.Flags().StringVar(&cfg.Reports.History, flags.FlagHistory, "", "Glob of historical tracking reports (default: <reports-dir>/jdk25_tracking_with_prs_*.json)")
	updateCmd.Flags().StringVar(&cfg.Reports.Plugins, flags.FlagPlugins, "", "Local plugins.json; the update center is fetched when empty")
	updateCmd.Flags().StringVar(&cfg.Reports.UpdateCenter, flags.FlagUpdateCenter, cfg.Reports.UpdateCenter, "Update center URL")
}
