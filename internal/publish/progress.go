package publish

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/plugins"
	"jdk25tracker/internal/reconcile"
	"jdk25tracker/internal/sheets"
	"jdk25tracker/internal/tracking"
)

// ProgressInput is the data written by UpdateProgress.
type ProgressInput struct {
	// Entries is the current scan with history already folded in.
	Entries  []tracking.Entry
	Registry *plugins.Registry

	// OpenPRs is nil when no open-PR report was given.
	OpenPRs []tracking.OpenEntry
}

// ProgressReport describes what UpdateProgress wrote.
type ProgressReport struct {
	Worksheet string
	Stats     reconcile.Stats
	Open      []OpenPRRow
	Age       AgeSummary
}

// UpdateProgress reconciles the progress worksheet with the entries and
// rewrites the Statistics tab and, when open PRs are given, the open-PR tab.
func (p *Publisher) UpdateProgress(ctx context.Context, in ProgressInput) (ProgressReport, error) {
	log := logging.FromContext(ctx)
	now := p.opts.Now()

	ws, err := sheets.Find(ctx, p.ss, p.opts.ProgressTitles...)
	if err != nil {
		return ProgressReport{}, err
	}
	log.Info().Str("worksheet", ws.Title).Msg("Using worksheet")

	grid, err := p.ss.Values(ctx, ws.Title)
	if err != nil {
		return ProgressReport{}, err
	}
	res, err := reconcile.Apply(reconcile.Input{Grid: grid, Entries: in.Entries, Registry: in.Registry, Now: now})
	if err != nil {
		return ProgressReport{}, fmt.Errorf("reconcile %q: %w", ws.Title, err)
	}
	log.Info().
		Int("updated", res.Stats.RowsUpdated).
		Int("cleared", res.Stats.RowsCleared).
		Int("added", res.Stats.RowsAdded).
		Int("rows", len(res.Grid)).
		Msg("Writing progress worksheet")

	if err := p.ss.Update(ctx, ws.Title, res.Grid); err != nil {
		return ProgressReport{}, err
	}
	header := sheets.Style{Range: sheets.Row(0, len(res.Grid[0])), Bold: true, FontSize: 11, Background: headerBlue, Center: true}
	if err := p.ss.Format(ctx, ws.ID, header); err != nil {
		return ProgressReport{}, err
	}
	if err := p.ss.Freeze(ctx, ws.ID, 1); err != nil {
		return ProgressReport{}, err
	}

	report := ProgressReport{Worksheet: ws.Title, Stats: res.Stats}
	if in.OpenPRs != nil {
		report.Open = FlattenOpenPRs(in.OpenPRs, now)
		report.Age = SummarizeAge(report.Open)
	}

	if err := p.writeStatistics(ctx, StatisticsRows(res.Stats, report.Open, in.OpenPRs != nil, now)); err != nil {
		return report, err
	}
	if len(report.Open) > 0 {
		if err := p.writeOpenPRs(ctx, report.Open); err != nil {
			return report, err
		}
	} else if in.OpenPRs != nil {
		log.Info().Msg("No open JDK 25 PRs to write")
	}
	return report, nil
}

// StatisticsRows builds the Statistics worksheet.
func StatisticsRows(s reconcile.Stats, open []OpenPRRow, haveOpen bool, now time.Time) [][]string {
	const w = 5
	rows := [][]string{
		row(w, "Metric", "Count", "Percentage"),
		row(w, "Total Plugins Scanned", strconv.Itoa(s.Scanned), "100.00%"),
		row(w),
		row(w, "JDK 25 Statistics"),
		row(w, "Plugins with JDK 25", strconv.Itoa(s.Compatible), pct(s.Compatible, s.Scanned)),
		row(w, "Plugins with JDK 25 PR Identified", strconv.Itoa(s.WithPR), pct(s.WithPR, s.Compatible)),
		row(w, "Plugins with Merged JDK 25 PR", strconv.Itoa(s.Merged), pct(s.Merged, s.Compatible)),
		row(w),
	}
	if haveOpen {
		age := SummarizeAge(open)
		rows = append(rows,
			row(w, "Open JDK 25 PRs"),
			row(w, "Open PRs", strconv.Itoa(age.Count), ""),
			row(w, "Draft PRs", strconv.Itoa(age.Drafts), pct(age.Drafts, age.Count)),
			row(w, "Median Days Open", fmt.Sprintf("%.1f", age.Median)),
			row(w, "Mean Days Open", fmt.Sprintf("%.1f", age.Mean)),
			row(w, "Oldest Open PR (days)", strconv.Itoa(int(age.Max))),
			row(w),
		)
	}
	rows = append(rows, row(w, "Last Updated", now.Format("2006-01-02 15:04:05")))
	return rows
}

func (p *Publisher) writeStatistics(ctx context.Context, rows [][]string) error {
	ws, created, err := sheets.Ensure(ctx, p.ss, p.opts.StatisticsTitle, 50, 5)
	if err != nil {
		return err
	}
	if !created {
		if err := p.ss.Clear(ctx, ws.Title); err != nil {
			return err
		}
	}
	if err := p.ss.Update(ctx, ws.Title, rows); err != nil {
		return err
	}
	return p.ss.Format(ctx, ws.ID, sheets.Style{Range: sheets.Row(0, 3), Bold: true, Background: headerBlue, Center: true})
}

func (p *Publisher) writeOpenPRs(ctx context.Context, open []OpenPRRow) error {
	log := logging.FromContext(ctx)
	ws, created, err := sheets.Ensure(ctx, p.ss, p.opts.OpenPRsTitle, len(open)+50, len(OpenPRHeader))
	if err != nil {
		return err
	}
	if !created {
		if err := p.ss.Clear(ctx, ws.Title); err != nil {
			return err
		}
	}

	rows := [][]string{OpenPRHeader}
	styles := []sheets.Style{{Range: sheets.Row(0, len(OpenPRHeader)), Bold: true, FontSize: 11, Background: headerBlue, Center: true}}
	for i, pr := range open {
		rows = append(rows, pr.Cells())
		color := openOrange
		if pr.Draft {
			color = draftOrange
		}
		styles = append(styles, sheets.Style{Range: sheets.Row(i+1, len(OpenPRHeader)), Background: color})
	}

	log.Info().Int("rows", len(rows)).Str("worksheet", ws.Title).Msg("Writing open PRs")
	if err := p.ss.Update(ctx, ws.Title, rows); err != nil {
		return err
	}
	if err := p.ss.Format(ctx, ws.ID, styles...); err != nil {
		return err
	}
	return p.ss.Freeze(ctx, ws.ID, 1)
}
