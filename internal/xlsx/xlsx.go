// Package xlsx converts the first worksheet of an Excel workbook to CSV.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"jdk25tracker/internal/csvfile"
	pkgerrors "jdk25tracker/internal/errors"
)

// Workbook holds the sheet names of a workbook and the content of its
// first sheet.
type Workbook struct {
	Sheets []string
	Header []string
	Rows   [][]string
}

// Open reads an .xlsx file.
func Open(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.NewNotFoundError("file", path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	wb, err := Read(f)
	if err != nil {
		return nil, pkgerrors.NewParseError("XLSX", path, err)
	}
	return wb, nil
}

// Read parses a workbook. The first row of the first sheet is the header;
// columns without a header are named "Unnamed: <index>" and every row is
// padded to the header width.
func Read(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb := &Workbook{Sheets: f.GetSheetList()}
	if len(wb.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(wb.Sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", wb.Sheets[0], err)
	}
	if len(rows) == 0 {
		return wb, nil
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	wb.Header = make([]string, width)
	for i := range wb.Header {
		if i < len(rows[0]) && strings.TrimSpace(rows[0][i]) != "" {
			wb.Header[i] = rows[0][i]
		} else {
			wb.Header[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}
	for _, row := range rows[1:] {
		padded := make([]string, width)
		copy(padded, row)
		wb.Rows = append(wb.Rows, padded)
	}
	return wb, nil
}

// Shape returns the number of data rows and columns.
func (w *Workbook) Shape() (rows, cols int) {
	return len(w.Rows), len(w.Header)
}

// Head returns up to n data rows.
func (w *Workbook) Head(n int) [][]string {
	return w.Rows[:min(n, len(w.Rows))]
}

// CSVPath replaces the extension of an .xlsx path with .csv.
func CSVPath(xlsxPath string) string {
	ext := filepath.Ext(xlsxPath)
	return strings.TrimSuffix(xlsxPath, ext) + ".csv"
}

// WriteCSV writes the first sheet to path.
func (w *Workbook) WriteCSV(path string) error {
	return csvfile.Write(path, w.Header, w.Rows)
}
