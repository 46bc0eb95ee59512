package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"jdk25tracker/internal/validate"
)

var (
	okColor   = color.New(color.FgGreen)
	badColor  = color.New(color.FgRed)
	newColor  = color.New(color.FgCyan)
	warnColor = color.New(color.FgYellow)
	bold      = color.New(color.Bold)
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	doc             Document // For JSON output
	allowedStatuses map[string]bool
	seenNew         bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			// FOUND, MISSING, NEW
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	if len(s.allowedStatuses) > 0 {
		if f, ok := v.(validate.Finding); ok {
			if !s.allowedStatuses[string(f.Status)] {
				return nil
			}
		}
	}

	switch s.format {
	case "json":
		s.doc.collect(v)
		return nil
	case "ndjson":
		if err := encodeEvent(json.NewEncoder(s.writer), v); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case "text":
		var err error
		switch t := v.(type) {
		case validate.Finding:
			err = s.writeFinding(t)
		case Event:
			err = s.writeEvent(t)
		default:
			return nil
		}
		if err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func rule(ch string) string { return strings.Repeat(ch, 80) }

func (s *ConsoleSink) writeEvent(e Event) error {
	w := s.writer
	switch e.Type {
	case EventStarted:
		fmt.Fprintln(w, rule("="))
		bold.Fprintln(w, "JDK 25 Detection Validation Report")
		if !e.Generated.IsZero() {
			fmt.Fprintf(w, "Generated: %s\n", e.Generated.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(w, rule("="))
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Manual plugins with JDK 25:     %d\n", e.Manual)
		fmt.Fprintf(w, "Automated plugins with JDK 25:  %d\n", e.Automated)
		fmt.Fprintln(w)
		fmt.Fprintln(w, rule("-"))
		fmt.Fprintln(w, "1. CHECKING MANUAL PLUGINS IN AUTOMATED RESULTS")
		_, err := fmt.Fprintln(w)
		return err
	case EventFinished:
		if e.Summary == nil {
			return nil
		}
		return s.writeSummary(*e.Summary, e.Verdict)
	}
	return nil
}

func (s *ConsoleSink) writeFinding(f validate.Finding) error {
	w := s.writer
	switch f.Status {
	case validate.StatusFound:
		okColor.Fprintf(w, "✓ FOUND: %s\n", f.Name)
		switch f.PR {
		case validate.OutcomeNoPR:
			badColor.Fprintln(w, "  ✗ No PR found in automated results")
			fmt.Fprintf(w, "    Expected: %s\n", f.ManualPR)
		case validate.OutcomeMatch:
			fmt.Fprintf(w, "  ✓ PR matches: %s\n", f.AutomatedPR)
		case validate.OutcomeMismatch:
			badColor.Fprintln(w, "  ✗ PR mismatch!")
			fmt.Fprintf(w, "    Manual:    %s\n", f.ManualPR)
			fmt.Fprintf(w, "    Automated: %s\n", f.AutomatedPR)
		}
		switch f.Merge {
		case validate.OutcomeMatch:
			fmt.Fprintf(w, "  ✓ Merge status matches: %s\n", f.AutomatedMerged)
		case validate.OutcomeMismatch:
			badColor.Fprintln(w, "  ✗ Merge status mismatch!")
			fmt.Fprintf(w, "    Manual:    %s\n", f.ManualMerged)
			fmt.Fprintf(w, "    Automated: %s\n", f.AutomatedMerged)
		}
	case validate.StatusMissing:
		badColor.Fprintf(w, "✗ MISSING: %s\n", f.Name)
		fmt.Fprintf(w, "  Expected PR: %s\n", f.ManualPR)
	case validate.StatusNew:
		if !s.seenNew {
			s.seenNew = true
			fmt.Fprintln(w, rule("-"))
			fmt.Fprintln(w, "2. ADDITIONAL PLUGINS FOUND BY AUTOMATION")
			fmt.Fprintln(w)
		}
		newColor.Fprintf(w, "+ NEW: %s\n", f.Name)
		fmt.Fprintf(w, "  Repository: %s\n", f.Repository)
		if f.AutomatedPR != "" {
			fmt.Fprintf(w, "  PR: %s\n", f.AutomatedPR)
			fmt.Fprintf(w, "  Merged: %s\n", f.AutomatedMerged)
		} else {
			fmt.Fprintln(w, "  No PR found")
		}
	default:
		return nil
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (s *ConsoleSink) writeSummary(sum validate.Summary, verdict validate.Verdict) error {
	w := s.writer
	if sum.Additional == 0 && !s.seenNew {
		fmt.Fprintln(w, rule("-"))
		fmt.Fprintln(w, "2. ADDITIONAL PLUGINS FOUND BY AUTOMATION")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No additional plugins found beyond manual list.")
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, rule("="))
	bold.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, rule("="))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Detection Accuracy:")
	if sum.Manual > 0 {
		fmt.Fprintf(w, "  ✓ Found in automation:         %d/%d (%.1f%%)\n", sum.Found, sum.Manual, float64(sum.Found)/float64(sum.Manual)*100)
		fmt.Fprintf(w, "  ✗ Missing from automation:     %d/%d\n", sum.Missing, sum.Manual)
	} else {
		fmt.Fprintln(w, "  (Manual spreadsheet lists no JDK 25 plugins)")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PR Matching:")
	fmt.Fprintf(w, "  ✓ PR matches:                  %d\n", sum.PRMatches)
	fmt.Fprintf(w, "  ✗ PR mismatches:               %d\n", sum.PRMismatches)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Merge Status:")
	fmt.Fprintf(w, "  ✓ Merge status matches:        %d\n", sum.MergeMatches)
	fmt.Fprintf(w, "  ✗ Merge status mismatches:     %d\n", sum.MergeMismatches)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Additional plugins found:        %d\n", sum.Additional)
	fmt.Fprintln(w)

	switch verdict {
	case validate.VerdictPass:
		okColor.Fprintln(w, "✓✓✓ VALIDATION PASSED: All checks successful! ✓✓✓")
	case validate.VerdictPartial:
		warnColor.Fprintln(w, "⚠ VALIDATION PARTIAL: All plugins found, but some details don't match")
	default:
		badColor.Fprintln(w, "✗✗✗ VALIDATION FAILED: Some plugins were not detected ✗✗✗")
	}
	return nil
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.doc.normalized()); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
