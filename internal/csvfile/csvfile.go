// Package csvfile reads and writes header-first CSV files.
package csvfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "jdk25tracker/internal/errors"
)

// Table is a CSV file with a header row. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read reads a CSV file.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.NewNotFoundError("file", path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, pkgerrors.NewParseError("CSV", path, err)
	}
	return t, nil
}

// Parse reads a header row followed by data rows. Short rows are padded
// and long rows truncated to the header width.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]string, len(header))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Column returns the index of the named column, matched exactly after
// trimming and then case-insensitively, or -1.
func (t *Table) Column(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Filter returns the rows with a non-blank value in column.
func (t *Table) Filter(column string) (*Table, error) {
	col := t.Column(column)
	if col < 0 {
		return nil, pkgerrors.NewValidationError("column", column, "not present in CSV header")
	}
	out := &Table{Header: t.Header}
	for _, row := range t.Rows {
		if strings.TrimSpace(row[col]) != "" {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// Write writes header and rows to path, creating parent directories.
func Write(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, header, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes header and rows as CSV.
func Encode(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
