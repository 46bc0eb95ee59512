package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSink writes the validation result to --out. Parent directories are
// created on open.
type FileSink struct {
	structured
	file *os.File
}

// InferFormat maps a file extension to json or ndjson.
func InferFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "ndjson", nil
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q", ext)
	}
}

func NewFileSink(path, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}
	if format == "" {
		inferred, err := InferFormat(path)
		if err != nil {
			return nil, err
		}
		format = inferred
	}
	// Reject the format before the file is created.
	if err := checkStructuredFormat(format); err != nil {
		return nil, fmt.Errorf("out: %w", err)
	}

	f, err := create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &FileSink{structured: structured{out: f, format: format}, file: f}, nil
}

// create opens path for writing, creating missing parent directories.
func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (s *FileSink) Write(v any) error { return s.write(v) }

func (s *FileSink) Close() error {
	err := s.finish()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
