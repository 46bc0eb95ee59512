// Package publish writes tracker results to a spreadsheet: the JDK 25
// progress worksheet with its Statistics and open-PR tabs, and the grouped
// PR tracker with its Summary and per-group tabs.
package publish

import (
	"fmt"
	"strings"
	"time"

	"jdk25tracker/internal/sheets"
)

// Options names the worksheets the publisher maintains.
type Options struct {
	ProgressTitles  []string
	StatisticsTitle string
	OpenPRsTitle    string
	SummaryTitle    string
	FailingTitle    string

	Now func() time.Time
}

// DefaultOptions returns the worksheet names used by the tracker spreadsheets.
func DefaultOptions() Options {
	return Options{
		ProgressTitles:  sheets.DefaultWorksheetTitles,
		StatisticsTitle: "Statistics",
		OpenPRsTitle:    "Open JDK 25 PRs",
		SummaryTitle:    "Summary",
		FailingTitle:    "Failing PRs",
		Now:             time.Now,
	}
}

// Publisher writes to one spreadsheet.
type Publisher struct {
	ss   sheets.Spreadsheet
	opts Options
}

// New returns a Publisher for ss. Zero-valued options fall back to defaults.
func New(ss sheets.Spreadsheet, opts Options) *Publisher {
	def := DefaultOptions()
	if len(opts.ProgressTitles) == 0 {
		opts.ProgressTitles = def.ProgressTitles
	}
	if opts.StatisticsTitle == "" {
		opts.StatisticsTitle = def.StatisticsTitle
	}
	if opts.OpenPRsTitle == "" {
		opts.OpenPRsTitle = def.OpenPRsTitle
	}
	if opts.SummaryTitle == "" {
		opts.SummaryTitle = def.SummaryTitle
	}
	if opts.FailingTitle == "" {
		opts.FailingTitle = def.FailingTitle
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Publisher{ss: ss, opts: opts}
}

var (
	headerBlue  = &sheets.Color{Red: 0.2, Green: 0.5, Blue: 0.8}
	headerGray  = &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9}
	draftOrange = &sheets.Color{Red: 1, Green: 0.55, Blue: 0}
	openOrange  = &sheets.Color{Red: 1, Green: 0.84, Blue: 0.5}
)

// Hyperlink renders a HYPERLINK formula.
func Hyperlink(target, label string) string {
	return fmt.Sprintf(`=HYPERLINK("%s"; "%s")`, escape(target), escape(label))
}

// SheetLink renders a HYPERLINK formula to another worksheet.
func SheetLink(gid int64, label string) string {
	return Hyperlink(fmt.Sprintf("#gid=%d", gid), label)
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

func pct(part, whole int) string {
	if whole <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)/float64(whole)*100)
}

func row(width int, cells ...string) []string {
	out := make([]string, max(width, len(cells)))
	copy(out, cells)
	return out
}
