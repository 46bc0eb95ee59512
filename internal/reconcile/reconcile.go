// Package reconcile applies tracking entries to the rows of the JDK 25
// progress worksheet.
package reconcile

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"jdk25tracker/internal/naming"
	"jdk25tracker/internal/plugins"
	"jdk25tracker/internal/tracking"
)

// Header candidates, matched as case-insensitive substrings in this order.
var (
	NameHeaders    = []string{"Name", "Plugin"}
	InstallHeaders = []string{"Installation Count", "Installations", "Install Count"}
	PRHeaders      = []string{"Java 25 pull request", "Java 25 PR", "JDK 25 PR", "Pull Request"}
	MergedHeaders  = []string{"Is merged", "Merged", "Is Merged?"}
)

const (
	defaultPRHeader     = "Java 25 pull request"
	defaultMergedHeader = "Is merged?"
)

// ErrNoNameColumn is returned when the header has no plugin name column.
var ErrNoNameColumn = errors.New("no plugin name column in header")

// Columns holds zero-based column positions; -1 means absent.
type Columns struct {
	Name     int
	Installs int
	PR       int
	Merged   int
}

// ColumnIndex returns the first header containing one of candidates.
func ColumnIndex(header []string, candidates ...string) int {
	for _, want := range candidates {
		want = strings.ToLower(want)
		for i, h := range header {
			if strings.Contains(strings.ToLower(h), want) {
				return i
			}
		}
	}
	return -1
}

// DetectColumns locates the columns the progress sheet needs.
func DetectColumns(header []string) (Columns, error) {
	c := Columns{
		Name:     ColumnIndex(header, NameHeaders...),
		Installs: ColumnIndex(header, InstallHeaders...),
		PR:       ColumnIndex(header, PRHeaders...),
		Merged:   ColumnIndex(header, MergedHeaders...),
	}
	if c.Name < 0 {
		return c, fmt.Errorf("%w: %q", ErrNoNameColumn, header)
	}
	return c, nil
}

// InstallHeader is the install-count column title for the month of now.
func InstallHeader(now time.Time) string {
	return fmt.Sprintf("Installation Count (%s)", now.Format("January 2006"))
}

// MergedCell renders a merge flag as a formula the sheet evaluates.
func MergedCell(merged bool) string {
	if merged {
		return "=TRUE()"
	}
	return "=FALSE()"
}

// Stats summarises a reconciliation.
type Stats struct {
	Scanned     int
	Compatible  int
	WithPR      int
	Merged      int
	RowsUpdated int
	RowsCleared int
	RowsAdded   int
}

// Percent returns part as a percentage of whole, 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// Input is what Apply needs.
type Input struct {
	// Grid is the worksheet content, header first.
	Grid [][]string

	Entries  []tracking.Entry
	Registry *plugins.Registry
	Now      time.Time
}

// Result is the rewritten grid and what changed.
type Result struct {
	Grid    [][]string
	Columns Columns
	Stats   Stats
}

// Apply matches every worksheet row to a tracking entry, writing the PR URL
// and merge flag for compatible plugins and clearing them otherwise, then
// appends compatible plugins that have no row yet. The input grid is not
// modified.
func Apply(in Input) (Result, error) {
	if len(in.Grid) == 0 {
		return Result{}, errors.New("worksheet is empty")
	}
	header := slices.Clone(in.Grid[0])
	cols, err := DetectColumns(header)
	if err != nil {
		return Result{}, err
	}
	if cols.Installs >= 0 {
		header[cols.Installs] = InstallHeader(in.Now)
	}
	if cols.PR < 0 {
		cols.PR = len(header)
		header = append(header, defaultPRHeader)
	}
	if cols.Merged < 0 {
		cols.Merged = len(header)
		header = append(header, defaultMergedHeader)
	}
	width := max(len(header), cols.PR+1, cols.Merged+1)

	index := naming.NewIndex[tracking.Entry]()
	for _, e := range in.Entries {
		index.Add(e, naming.EntryKeys(e.Plugin, e.Repository)...)
	}

	res := Result{Columns: cols}
	res.Grid = append(res.Grid, header)
	present := naming.NewIndex[struct{}]()

	for _, src := range in.Grid[1:] {
		row := pad(slices.Clone(src), width)
		name := strings.TrimSpace(row[cols.Name])
		if name == "" {
			res.Grid = append(res.Grid, row)
			continue
		}
		present.Add(struct{}{}, naming.PresenceKeys(name)...)

		if e, ok := index.Lookup(naming.RowKeys(name)...); ok && e.HasJDK25 {
			row[cols.PR], row[cols.Merged] = prCells(e)
			res.Stats.RowsUpdated++
		} else {
			if row[cols.PR] != "" || row[cols.Merged] != "" {
				res.Stats.RowsCleared++
			}
			row[cols.PR], row[cols.Merged] = "", ""
		}
		res.Grid = append(res.Grid, row)
	}

	for _, e := range in.Entries {
		res.Stats.Scanned++
		if !e.HasJDK25 {
			continue
		}
		res.Stats.Compatible++
		if e.HasPR() {
			res.Stats.WithPR++
			if e.PR.IsMerged {
				res.Stats.Merged++
			}
		}

		keys := naming.EntryPresenceKeys(e.Plugin, e.Repository)
		if present.Has(keys...) {
			continue
		}
		present.Add(struct{}{}, keys...)

		row := make([]string, width)
		row[cols.Name] = displayName(e)
		if cols.Installs >= 0 {
			n, _ := in.Registry.InstallCount(e.Repository)
			row[cols.Installs] = strconv.Itoa(n)
		}
		row[cols.PR], row[cols.Merged] = prCells(e)
		res.Grid = append(res.Grid, row)
		res.Stats.RowsAdded++
	}
	return res, nil
}

func prCells(e tracking.Entry) (url, merged string) {
	if !e.HasPR() {
		return "", ""
	}
	return e.PR.URL, MergedCell(e.PR.IsMerged)
}

func displayName(e tracking.Entry) string {
	if e.Plugin != "" {
		return e.Plugin
	}
	return naming.StripOrg(e.Repository)
}

func pad(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
