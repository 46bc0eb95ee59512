package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"jdk25tracker/internal/validate"
)

func TestConsoleSink_Filtering(t *testing.T) {
	found := validate.Finding{Status: validate.StatusFound, Name: "git", PR: validate.OutcomeMatch}
	missing := validate.Finding{Status: validate.StatusMissing, Name: "mailer"}

	tests := []struct {
		name           string
		format         string
		filterStatuses []string
		input          validate.Finding
		shouldWrite    bool
	}{
		{name: "text - no filter - found", format: "text", input: found, shouldWrite: true},
		{name: "text - filter MISSING - input FOUND", format: "text", filterStatuses: []string{"MISSING"}, input: found, shouldWrite: false},
		{name: "text - filter MISSING - input MISSING", format: "text", filterStatuses: []string{"MISSING"}, input: missing, shouldWrite: true},
		{name: "text - filter MISSING,NEW - input MISSING", format: "text", filterStatuses: []string{"MISSING", "NEW"}, input: missing, shouldWrite: true},
		{name: "json - filter MISSING - input FOUND", format: "json", filterStatuses: []string{"MISSING"}, input: found, shouldWrite: false},
		{name: "json - filter MISSING - input MISSING", format: "json", filterStatuses: []string{"MISSING"}, input: missing, shouldWrite: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewConsoleSink(&buf, tt.format, tt.filterStatuses)
			if err := sink.Write(tt.input); err != nil {
				t.Fatalf("Write error: %v", err)
			}

			if tt.format == "json" {
				want := 0
				if tt.shouldWrite {
					want = 1
				}
				if got := len(sink.doc.Findings); got != want {
					t.Errorf("expected %d findings buffered, got %d", want, got)
				}
				return
			}
			wrote := buf.Len() > 0
			if tt.shouldWrite != wrote {
				t.Errorf("shouldWrite=%v, output=%q", tt.shouldWrite, buf.String())
			}
		})
	}
}

func TestConsoleSink_Filtering_CaseInsensitive(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", []string{"missing"})

	if err := sink.Write(validate.Finding{Status: validate.StatusMissing, Name: "x"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected output for case-insensitive match, got none")
	}
}

func TestConsoleSink_TextReport(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)
	if err := WriteReport(sink, sampleReport()); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"JDK 25 Detection Validation Report",
		"Generated: 2025-10-09 08:00:00",
		"✓ FOUND: git",
		"✓ PR matches: https://github.com/jenkinsci/git-plugin/pull/10",
		"✗ PR mismatch!",
		"✗ Merge status mismatch!",
		"✗ MISSING: mailer",
		"2. ADDITIONAL PLUGINS FOUND BY AUTOMATION",
		"+ NEW: job-dsl",
		"No PR found",
		"Found in automation:         2/3 (66.7%)",
		"VALIDATION FAILED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleSink_TextReport_NoAdditional(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)
	r := validate.Report{Summary: validate.Summary{}}
	if err := WriteReport(sink, r); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No additional plugins found beyond manual list.") {
		t.Errorf("missing no-additional line:\n%s", out)
	}
	if !strings.Contains(out, "(Manual spreadsheet lists no JDK 25 plugins)") {
		t.Errorf("missing empty manual line:\n%s", out)
	}
	if !strings.Contains(out, "VALIDATION PASSED") {
		t.Errorf("missing verdict:\n%s", out)
	}
}

func TestConsoleSink_JSONDocument(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil)
	if err := WriteReport(sink, sampleReport()); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(doc.Findings) != 4 {
		t.Fatalf("expected 4 findings, got %d", len(doc.Findings))
	}
	if doc.Verdict != validate.VerdictFail {
		t.Fatalf("expected FAIL verdict, got %q", doc.Verdict)
	}
	if doc.Summary == nil || doc.Summary.Missing != 1 {
		t.Fatalf("unexpected summary: %+v", doc.Summary)
	}
}

func TestConsoleSink_JSONEmptyFindingsIsArray(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if !strings.Contains(buf.String(), `"findings": []`) {
		t.Fatalf("expected empty findings array, got %s", buf.String())
	}
}

func TestConsoleSink_Filtering_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "ndjson", []string{"MISSING"})

	if err := sink.Write(validate.Finding{Status: validate.StatusFound, Name: "git"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buf.Len() > 0 {
		t.Errorf("expected no output for FOUND, got: %s", buf.String())
	}

	if err := sink.Write(validate.Finding{Status: validate.StatusMissing, Name: "mailer"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"status":"MISSING"`) || !strings.Contains(out, `"type":"plugin.checked"`) {
		t.Errorf("expected plugin.checked MISSING event, got: %s", out)
	}
}

func TestConsoleSink_UnsupportedFormat(t *testing.T) {
	sink := NewConsoleSink(&bytes.Buffer{}, "xml", nil)
	if err := sink.Write(validate.Finding{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
