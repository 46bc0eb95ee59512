package publish

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/prs"
	"jdk25tracker/internal/sheets"
)

var (
	mergedGreen = &sheets.Color{Green: 1}
	openAmber   = &sheets.Color{Red: 1, Green: 0.5}
	closedRed   = &sheets.Color{Red: 1}
	plainWhite  = &sheets.Color{Red: 1, Green: 1, Blue: 1}
)

// StateColor is the background used for a PR row in a group worksheet.
func StateColor(state string) *sheets.Color {
	switch state {
	case prs.StateMerged:
		return mergedGreen
	case prs.StateOpen:
		return openAmber
	case prs.StateClosed:
		return closedRed
	}
	return plainWhite
}

// UploadInput is the data written by UploadGroups.
type UploadInput struct {
	Groups []prs.Group

	// Failing is nil when no failing-PR report was loaded. An empty,
	// non-nil slice still produces a Failing PRs worksheet.
	Failing []prs.FailingPR
}

// UploadReport describes what UploadGroups wrote.
type UploadReport struct {
	Summary prs.Summary
	Sheets  map[string]string // group title -> worksheet title
	Failed  []string          // group titles whose worksheet could not be written
}

// UploadGroups writes the Summary worksheet, a Failing PRs worksheet when
// failing PRs were loaded, and one worksheet per group. A failure on one
// group worksheet is logged and the remaining groups are still written;
// the joined errors are returned.
func (p *Publisher) UploadGroups(ctx context.Context, in UploadInput) (UploadReport, error) {
	log := logging.FromContext(ctx)
	report := UploadReport{Summary: prs.Summarize(in.Groups), Sheets: make(map[string]string, len(in.Groups))}

	summary, _, err := sheets.Ensure(ctx, p.ss, p.opts.SummaryTitle, 100, 10)
	if err != nil {
		return report, err
	}

	names := prs.NewSheetNames(p.opts.SummaryTitle, p.opts.FailingTitle)
	targets := make([]sheets.Worksheet, len(in.Groups))
	for i, g := range in.Groups {
		name := names.Unique(g.Title)
		ws, _, err := sheets.Ensure(ctx, p.ss, name, 100, 10)
		if err != nil {
			return report, fmt.Errorf("worksheet for %q: %w", g.Title, err)
		}
		targets[i] = ws
		report.Sheets[g.Title] = ws.Title
	}

	var failing *sheets.Worksheet
	if in.Failing != nil {
		ws, _, err := sheets.Ensure(ctx, p.ss, p.opts.FailingTitle, len(in.Failing)+10, 3)
		if err != nil {
			return report, err
		}
		failing = &ws
	}

	if err := p.replace(ctx, summary, SummaryRows(in.Groups, targets, failing, len(in.Failing))); err != nil {
		return report, err
	}
	if err := p.ss.Move(ctx, summary.ID, 0); err != nil {
		return report, err
	}
	if err := p.ss.Format(ctx, summary.ID,
		sheets.Style{Range: sheets.Row(0, 2), Bold: true},
		sheets.Style{Range: sheets.Row(summaryTableRow, 6), Bold: true, Background: headerGray, Center: true},
	); err != nil {
		return report, err
	}

	if failing != nil {
		if err := p.replace(ctx, *failing, FailingRows(in.Failing, summary.ID)); err != nil {
			return report, err
		}
		if err := p.ss.Format(ctx, failing.ID, sheets.Style{Range: sheets.Row(2, 3), Bold: true, Background: headerGray, Center: true}); err != nil {
			return report, err
		}
		log.Info().Int("prs", len(in.Failing)).Str("worksheet", failing.Title).Msg("Wrote failing PRs")
	}

	var errs []error
	for i, g := range in.Groups {
		if err := p.writeGroup(ctx, targets[i], g, summary.ID); err != nil {
			log.Error().Err(err).Str("group", g.Title).Msg("Failed to write group worksheet")
			report.Failed = append(report.Failed, g.Title)
			errs = append(errs, fmt.Errorf("group %q: %w", g.Title, err))
			continue
		}
		log.Info().Int("prs", len(g.PRs)).Str("worksheet", targets[i].Title).Msg("Wrote group")
	}
	return report, errors.Join(errs...)
}

func (p *Publisher) writeGroup(ctx context.Context, ws sheets.Worksheet, g prs.Group, summaryID int64) error {
	if err := p.replace(ctx, ws, GroupRows(g, summaryID)); err != nil {
		return err
	}
	styles := []sheets.Style{
		{Range: sheets.Row(0, 2), Bold: true, FontSize: 12},
		{Range: sheets.Row(1, 1), Bold: true, FontSize: 10},
		{Range: sheets.Row(groupHeaderRow, len(groupHeader)), Bold: true, Background: headerGray, Center: true},
	}
	for i, pr := range g.PRs {
		styles = append(styles, sheets.Style{Range: sheets.Row(groupHeaderRow+1+i, len(groupHeader)), Background: StateColor(pr.State)})
	}
	return p.ss.Format(ctx, ws.ID, styles...)
}

func (p *Publisher) replace(ctx context.Context, ws sheets.Worksheet, rows [][]string) error {
	if err := p.ss.Clear(ctx, ws.Title); err != nil {
		return err
	}
	return p.ss.Update(ctx, ws.Title, rows)
}

const (
	summaryTableRow = 8
	groupHeaderRow  = 3
)

var groupHeader = []string{"Repository", "PR Number", "State", "Created At", "Updated At"}

// SummaryRows builds the Summary worksheet. targets[i] is the worksheet of
// groups[i]; failing is nil when no failing-PR report was loaded.
func SummaryRows(groups []prs.Group, targets []sheets.Worksheet, failing *sheets.Worksheet, failingCount int) [][]string {
	const w = 6
	s := prs.Summarize(groups)
	dateRange := "n/a"
	if !s.Earliest.IsZero() && !s.Latest.IsZero() {
		dateRange = s.Earliest.Format(time.DateOnly) + " to " + s.Latest.Format(time.DateOnly)
	}
	rows := [][]string{
		row(w, "PR Date Range", dateRange),
		row(w, "Overall PR Statistics"),
		row(w, "Total PRs", strconv.Itoa(s.Total)),
		row(w, "Open PRs", strconv.Itoa(s.Open), pct(s.Open, s.Total)),
		row(w, "Closed PRs", strconv.Itoa(s.Closed), pct(s.Closed, s.Total)),
		row(w, "Merged PRs", strconv.Itoa(s.Merged), pct(s.Merged, s.Total)),
		row(w),
		row(w, "Plugin-Specific Statistics"),
		row(w, "Plugin", "Total PRs", "Open PRs", "Closed PRs", "Merged PRs", "Link to Sheet"),
	}
	for i, g := range groups {
		link := ""
		if i < len(targets) {
			link = SheetLink(targets[i].ID, g.Title)
		}
		rows = append(rows, row(w,
			g.Title,
			strconv.Itoa(len(g.PRs)),
			strconv.Itoa(g.Open),
			strconv.Itoa(g.Closed),
			strconv.Itoa(g.Merged),
			link,
		))
	}
	if failing != nil {
		rows = append(rows, row(w, failing.Title, strconv.Itoa(failingCount), "", "", "", SheetLink(failing.ID, failing.Title)))
	} else {
		rows = append(rows, row(w, "Failing PRs", "0", "", "", "", "No failing PRs data available"))
	}
	return rows
}

// GroupRows builds the worksheet of one PR group.
func GroupRows(g prs.Group, summaryID int64) [][]string {
	rows := [][]string{
		{"Back to Summary", SheetLink(summaryID, "Back to Summary")},
		{g.Title},
		{},
		groupHeader,
	}
	for _, pr := range g.PRs {
		rows = append(rows, []string{
			Hyperlink("https://github.com/"+pr.Repository, pr.Repository),
			Hyperlink(pr.Link(), strconv.Itoa(pr.Number)),
			pr.State,
			stamp(pr.CreatedAt),
			stamp(pr.UpdatedAt),
		})
	}
	return rows
}

// FailingRows builds the Failing PRs worksheet.
func FailingRows(failing []prs.FailingPR, summaryID int64) [][]string {
	rows := [][]string{
		{"Back to Summary", SheetLink(summaryID, "Back to Summary")},
		{},
		{"Title", "URL", "Status"},
	}
	for _, f := range failing {
		rows = append(rows, []string{f.Title, Hyperlink(f.URL, f.URL), f.Status})
	}
	return rows
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
