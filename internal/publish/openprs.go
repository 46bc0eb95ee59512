package publish

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"jdk25tracker/internal/tracking"
)

// OpenPRHeader is the header row of the open-PR worksheet.
var OpenPRHeader = []string{
	"Plugin Name", "Repository", "PR Number", "PR URL", "Title",
	"Is Draft?", "Author", "Created", "Days Open",
}

// OpenPRRow is one open JDK 25 pull request.
type OpenPRRow struct {
	Plugin     string
	Repository string
	Number     int
	URL        string
	Title      string
	Draft      bool
	Author     string
	Created    string
	DaysOpen   int
}

// Cells renders the row in OpenPRHeader order.
func (r OpenPRRow) Cells() []string {
	draft := "No"
	if r.Draft {
		draft = "Yes"
	}
	return []string{
		r.Plugin, r.Repository, strconv.Itoa(r.Number), r.URL, r.Title,
		draft, r.Author, r.Created, strconv.Itoa(r.DaysOpen),
	}
}

// FlattenOpenPRs lists the open PRs of every entry that has any, oldest first.
func FlattenOpenPRs(entries []tracking.OpenEntry, now time.Time) []OpenPRRow {
	var out []OpenPRRow
	for _, e := range entries {
		if !e.HasOpenPRs {
			continue
		}
		for _, pr := range e.OpenPRs {
			created := ""
			if !pr.CreatedAt.IsZero() {
				created = pr.CreatedAt.Format(time.DateOnly)
			}
			out = append(out, OpenPRRow{
				Plugin:     e.Plugin,
				Repository: e.Repository,
				Number:     pr.Number,
				URL:        pr.URL,
				Title:      pr.Title,
				Draft:      pr.IsDraft,
				Author:     pr.Author.Login,
				Created:    created,
				DaysOpen:   pr.DaysOpen(now),
			})
		}
	}
	slices.SortStableFunc(out, func(a, b OpenPRRow) int {
		return cmp.Compare(b.DaysOpen, a.DaysOpen)
	})
	return out
}

// AgeSummary describes how long open PRs have been waiting.
type AgeSummary struct {
	Count  int
	Drafts int
	Median float64
	Mean   float64
	Max    float64
}

// SummarizeAge computes age statistics over rows. It is zero for no rows.
func SummarizeAge(rows []OpenPRRow) AgeSummary {
	s := AgeSummary{Count: len(rows)}
	if len(rows) == 0 {
		return s
	}
	days := make(stats.Float64Data, 0, len(rows))
	for _, r := range rows {
		if r.Draft {
			s.Drafts++
		}
		days = append(days, float64(r.DaysOpen))
	}
	s.Median, _ = days.Median()
	s.Mean, _ = days.Mean()
	s.Max, _ = days.Max()
	return s
}
