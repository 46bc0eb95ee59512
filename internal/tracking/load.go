package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	pkgerrors "jdk25tracker/internal/errors"
)

// LoadReport reads a tracking report (a JSON array of entries).
func LoadReport(path string) ([]Entry, error) {
	var entries []Entry
	if err := readJSON(path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadOpenPRs reads an open-PR report (a JSON array of open entries).
func LoadOpenPRs(path string) ([]OpenEntry, error) {
	var entries []OpenEntry
	if err := readJSON(path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pkgerrors.NewNotFoundError("file", path, err)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return pkgerrors.NewParseError("JSON", path, err)
	}
	return nil
}
