package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"jdk25tracker/internal/validate"
)

// structured is the json/ndjson encoder shared by the emit and file sinks.
// In json mode findings accumulate into one Document written by finish; in
// ndjson mode every event and finding becomes a line as soon as it arrives.
type structured struct {
	mu     sync.Mutex
	out    io.Writer
	format string
	doc    Document
}

func checkStructuredFormat(format string) error {
	if format != "json" && format != "ndjson" {
		return fmt.Errorf("unsupported structured format: %q", format)
	}
	return nil
}

// encodeEvent writes v as one NDJSON line. Values other than events and
// findings are skipped.
func encodeEvent(enc *json.Encoder, v any) error {
	switch t := v.(type) {
	case Event:
		return enc.Encode(t)
	case validate.Finding:
		return enc.Encode(eventFromFinding(t))
	}
	return nil
}

func (s *structured) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		s.doc.collect(v)
		return nil
	}
	if err := encodeEvent(json.NewEncoder(s.out), v); err != nil {
		return err
	}
	return flushIfPossible(s.out)
}

func (s *structured) finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "json" {
		return nil
	}
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.doc.normalized()); err != nil {
		return err
	}
	return flushIfPossible(s.out)
}

// EmitSink streams validation output to stdout alongside the console.
type EmitSink struct {
	structured
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if err := checkStructuredFormat(format); err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}
	return &EmitSink{structured: structured{out: w, format: format}}, nil
}

func (s *EmitSink) Write(v any) error { return s.write(v) }

func (s *EmitSink) Close() error { return s.finish() }
