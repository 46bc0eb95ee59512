package output

import (
	"errors"
	"strings"
	"testing"

	"jdk25tracker/internal/validate"
)

type recordingSink struct {
	writes   []any
	writeErr error
	closeErr error
}

func (s *recordingSink) Write(v any) error {
	s.writes = append(s.writes, v)
	return s.writeErr
}

func (s *recordingSink) Close() error {
	return s.closeErr
}

func TestManager(t *testing.T) {
	t.Run("writes to all sinks", func(t *testing.T) {
		a, b := &recordingSink{}, &recordingSink{}
		mgr := NewManager()
		for _, s := range []Sink{a, b} {
			if err := mgr.AddSink(s); err != nil {
				t.Fatalf("AddSink error: %v", err)
			}
		}
		if mgr.Len() != 2 {
			t.Fatalf("Len: want 2, got %d", mgr.Len())
		}
		if err := mgr.Write(validate.Finding{Name: "git"}); err != nil {
			t.Fatalf("Write error: %v", err)
		}
		if err := mgr.Close(); err != nil {
			t.Fatalf("Close error: %v", err)
		}
		if len(a.writes) != 1 || len(b.writes) != 1 {
			t.Fatalf("writes: a=%d b=%d", len(a.writes), len(b.writes))
		}
	})

	t.Run("AddSink rejects nil", func(t *testing.T) {
		if err := NewManager().AddSink(nil); err == nil {
			t.Fatalf("AddSink(nil) want error, got nil")
		}
	})

	t.Run("nil manager", func(t *testing.T) {
		var mgr *Manager
		if err := mgr.Write("v"); err == nil {
			t.Fatalf("Write on nil manager want error")
		}
		if mgr.Len() != 0 {
			t.Fatalf("Len on nil manager want 0")
		}
	})

	t.Run("aggregates sink errors", func(t *testing.T) {
		mgr := NewManager()
		_ = mgr.AddSink(&recordingSink{writeErr: errors.New("boom-a"), closeErr: errors.New("close-a")})
		_ = mgr.AddSink(&recordingSink{writeErr: errors.New("boom-b")})

		err := mgr.Write("v")
		if err == nil {
			t.Fatalf("Write want error, got nil")
		}
		for _, want := range []string{"errors writing to sinks", "boom-a", "boom-b"} {
			if !strings.Contains(err.Error(), want) {
				t.Fatalf("Write error missing %q; got: %s", want, err)
			}
		}
		err = mgr.Close()
		if err == nil || !strings.Contains(err.Error(), "close-a") {
			t.Fatalf("Close error: %v", err)
		}
	})
}

func TestWriteReport_EventOrder(t *testing.T) {
	s := &recordingSink{}
	if err := WriteReport(s, sampleReport()); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	if len(s.writes) != 6 {
		t.Fatalf("expected 6 writes, got %d", len(s.writes))
	}
	start, ok := s.writes[0].(Event)
	if !ok || start.Type != EventStarted || start.Manual != 3 {
		t.Fatalf("unexpected first write: %#v", s.writes[0])
	}
	if _, ok := s.writes[1].(validate.Finding); !ok {
		t.Fatalf("expected finding, got %#v", s.writes[1])
	}
	end, ok := s.writes[5].(Event)
	if !ok || end.Type != EventFinished || end.ExitCode != 2 || end.Verdict != validate.VerdictFail {
		t.Fatalf("unexpected last write: %#v", s.writes[5])
	}
}

func TestWriteReport_StopsOnError(t *testing.T) {
	s := &recordingSink{writeErr: errors.New("full")}
	if err := WriteReport(s, sampleReport()); err == nil {
		t.Fatalf("expected error")
	}
	if len(s.writes) != 1 {
		t.Fatalf("expected to stop after first write, got %d", len(s.writes))
	}
}
