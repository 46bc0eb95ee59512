// Package manual reads the hand-maintained compatibility CSV export.
package manual

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jdk25tracker/internal/csvfile"
	pkgerrors "jdk25tracker/internal/errors"
)

// Defaults for the manual spreadsheet export.
const (
	DefaultCSV       = "Java_25_Compatibility_check.csv"
	DefaultNamesFile = "manual_jdk25_plugins.txt"

	NameColumn   = "Name"
	PRColumn     = "Java 25 pull request"
	MergedColumn = "Is merged?"
)

// Entry is one plugin the manual sheet records a JDK 25 pull request for.
type Entry struct {
	Name   string `json:"name" yaml:"name"`
	PR     string `json:"pr" yaml:"pr"`
	Merged string `json:"merged" yaml:"merged"`
}

// Entries returns the rows with a PR in column prColumn. Rows without a
// plugin name are skipped. The merged column is optional.
func Entries(t *csvfile.Table, prColumn string) ([]Entry, error) {
	filtered, err := t.Filter(prColumn)
	if err != nil {
		return nil, err
	}
	name := t.Column(NameColumn)
	if name < 0 {
		return nil, pkgerrors.NewValidationError("column", NameColumn, "not present in CSV header")
	}
	pr := t.Column(prColumn)
	merged := t.Column(MergedColumn)

	out := make([]Entry, 0, len(filtered.Rows))
	for _, row := range filtered.Rows {
		e := Entry{Name: strings.TrimSpace(row[name]), PR: strings.TrimSpace(row[pr])}
		if e.Name == "" {
			continue
		}
		if merged >= 0 {
			e.Merged = strings.TrimSpace(row[merged])
		}
		out = append(out, e)
	}
	return out, nil
}

// Load reads the manual CSV and returns its JDK 25 entries.
func Load(path string) ([]Entry, error) {
	t, err := csvfile.Read(path)
	if err != nil {
		return nil, err
	}
	entries, err := Entries(t, PRColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// WriteNames writes one plugin name per line.
func WriteNames(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
