package output

import (
	"errors"
	"fmt"

	"jdk25tracker/internal/validate"
)

// Sink defines a destination for validation findings.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager coordinates writing findings to multiple sinks.
type Manager struct {
	sinks []Sink
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Len returns the number of registered sinks.
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sinks)
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}

// WriteReport streams a validation report to s: a started event, each
// finding, then a finished event carrying the summary and verdict.
func WriteReport(s Sink, r validate.Report) error {
	start := Event{
		Type:      EventStarted,
		Generated: r.Generated,
		Manual:    r.Summary.Manual,
		Automated: r.Summary.Automated,
	}
	if err := s.Write(start); err != nil {
		return err
	}
	for _, f := range r.Findings {
		if err := s.Write(f); err != nil {
			return err
		}
	}
	summary := r.Summary
	verdict := r.Verdict()
	return s.Write(Event{
		Type:     EventFinished,
		Summary:  &summary,
		Verdict:  verdict,
		ExitCode: verdict.ExitCode(),
	})
}
