package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/flags"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/prs"
	"jdk25tracker/internal/publish"
	"jdk25tracker/internal/sheets"

	"github.com/spf13/cobra"
)

var uploadFailing string

var uploadCmd = &cobra.Command{
	Use:   "upload <grouped-prs.json>",
	Short: "Write grouped pull requests to the PR tracker spreadsheet",
	Long: `Write a Summary worksheet, one worksheet per PR group and, when the
failing-PR file exists, a Failing PRs worksheet.

A group whose worksheet cannot be written is reported and the remaining
groups are still written.

Examples:
	jdk25tracker collect --start 2025-01-01 --end 2025-06-30
	jdk25tracker upload grouped_prs.json --spreadsheet <id>
`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSpreadsheet(); err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		ss, err := openSpreadsheet(ctx, cfg)
		if err != nil {
			return err
		}
		return runUpload(ctx, cmd.OutOrStdout(), ss, args[0], uploadFailing)
	},
}

func runUpload(ctx context.Context, w io.Writer, ss sheets.Spreadsheet, groupedPath, failingPath string) error {
	log := logging.FromContext(ctx)

	groups, err := prs.LoadGroups(groupedPath)
	if err != nil {
		return err
	}
	log.Info().Str("file", groupedPath).Int("groups", len(groups)).Msg("Loaded grouped PRs")

	var failing []prs.FailingPR
	if failingPath != "" {
		failing, err = prs.LoadFailing(failingPath)
		switch {
		case pkgerrors.IsNotFound(err):
			log.Info().Str("file", failingPath).Msg("No failing-PR file, skipping Failing PRs worksheet")
			failing = nil
		case errors.Is(err, prs.ErrUnexpectedShape):
			log.Warn().Err(err).Str("file", failingPath).Msg("Ignoring failing-PR file")
			failing = nil
		case err != nil:
			return err
		}
	}

	report, err := publish.New(ss, publish.Options{}).UploadGroups(ctx, publish.UploadInput{Groups: groups, Failing: failing})
	s := report.Summary
	fmt.Fprintf(w, "Uploaded %d groups (%d PRs: %d open, %d closed, %d merged)\n", len(groups)-len(report.Failed), s.Total, s.Open, s.Closed, s.Merged)
	for _, title := range report.Failed {
		fmt.Fprintf(w, "  failed: %s\n", title)
	}
	fmt.Fprintf(w, "Spreadsheet: %s\n", ss.URL())
	return err
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVar(&uploadFailing, flags.FlagFailing, "failing-prs.json", "Failing-PR file; skipped when absent")
	uploadCmd.Flags().StringVar(&cfg.Sheets.Spreadsheet, flags.FlagSpreadsheet, "", "Spreadsheet ID or docs.google.com URL (env: SPREADSHEET_ID)")
	uploadCmd.Flags().StringVar(&cfg.Sheets.Credentials, flags.FlagCredentials, cfg.Sheets.Credentials, "Service account key file (env: GOOGLE_APPLICATION_CREDENTIALS)")
	uploadCmd.Flags().DurationVar(&cfg.Sheets.WritePause, flags.FlagWritePause, cfg.Sheets.WritePause, "Pause after each spreadsheet write")
	uploadCmd.Flags().IntVar(&cfg.Sheets.Attempts, flags.FlagRetries, cfg.Sheets.Attempts, "Attempts for rate-limited spreadsheet calls")
}
