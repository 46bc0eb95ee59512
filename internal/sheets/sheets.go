// Package sheets is the spreadsheet gateway: a small interface over the
// operations the publishers need, a Google Sheets implementation and an
// in-memory one for tests (sheetstest).
package sheets

import (
	"context"
	"fmt"

	pkgerrors "jdk25tracker/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Worksheet identifies one tab of a spreadsheet.
type Worksheet struct {
	ID    int64
	Title string
	Index int
}

// Color is an RGB colour with components in [0,1].
type Color struct {
	Red, Green, Blue float64
}

// Range is a zero-based, end-exclusive block of cells.
type Range struct {
	StartRow, EndRow int
	StartCol, EndCol int
}

// Row returns the range covering cols columns of row r.
func Row(r, cols int) Range {
	return Range{StartRow: r, EndRow: r + 1, StartCol: 0, EndCol: cols}
}

// Style is a format applied to a range.
type Style struct {
	Range      Range
	Bold       bool
	FontSize   int
	Background *Color
	Center     bool
}

// Spreadsheet is the subset of spreadsheet operations the tracker uses.
type Spreadsheet interface {
	ID() string
	URL() string
	Worksheets(ctx context.Context) ([]Worksheet, error)
	AddWorksheet(ctx context.Context, title string, rows, cols int) (Worksheet, error)

	// Values returns the displayed cell values of a worksheet.
	Values(ctx context.Context, title string) ([][]string, error)

	// Update writes values starting at A1, interpreting them as if typed
	// by a user so formulas are evaluated.
	Update(ctx context.Context, title string, values [][]string) error

	Clear(ctx context.Context, title string) error
	Format(ctx context.Context, sheetID int64, styles ...Style) error
	Freeze(ctx context.Context, sheetID int64, rows int) error
	Move(ctx context.Context, sheetID int64, index int) error
}

// DefaultWorksheetTitles are the names the progress tab has had over time.
var DefaultWorksheetTitles = []string{
	"Java 25 compatibility progress",
	"Java 25 Compatibility Progress",
	"Java 25 Compatibility progress",
	"Sheet1",
}

// Find returns the first worksheet whose title matches one of titles, in
// the order given.
func Find(ctx context.Context, s Spreadsheet, titles ...string) (Worksheet, error) {
	all, err := s.Worksheets(ctx)
	if err != nil {
		return Worksheet{}, err
	}
	for _, want := range titles {
		for _, ws := range all {
			if ws.Title == want {
				return ws, nil
			}
		}
	}
	return Worksheet{}, pkgerrors.NewNotFoundError("worksheet", fmt.Sprintf("%q", titles), nil)
}

// Ensure returns the worksheet titled title, creating it with the given
// size when it does not exist.
func Ensure(ctx context.Context, s Spreadsheet, title string, rows, cols int) (Worksheet, bool, error) {
	ws, err := Find(ctx, s, title)
	if err == nil {
		return ws, false, nil
	}
	if !pkgerrors.IsNotFound(err) {
		return Worksheet{}, false, err
	}
	ws, err = s.AddWorksheet(ctx, title, rows, cols)
	if err != nil {
		return Worksheet{}, false, fmt.Errorf("create worksheet %q: %w", title, err)
	}
	return ws, true, nil
}

// A1 converts a one-based row and column into A1 notation.
func A1(row, col int) string {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return cell
}
