// Package validate compares the automated JDK 25 detection with the manual
// compatibility sheet.
package validate

import (
	"strconv"
	"strings"
	"time"

	"jdk25tracker/internal/manual"
	"jdk25tracker/internal/naming"
	"jdk25tracker/internal/tracking"
)

// Status classifies a finding.
type Status string

const (
	// StatusFound is a manual plugin the automation also detected.
	StatusFound Status = "FOUND"
	// StatusMissing is a manual plugin the automation did not detect.
	StatusMissing Status = "MISSING"
	// StatusNew is a plugin only the automation detected.
	StatusNew Status = "NEW"
)

// Outcome of comparing one detail of a found plugin.
type Outcome string

const (
	OutcomeMatch    Outcome = "match"
	OutcomeMismatch Outcome = "mismatch"
	OutcomeNoPR     Outcome = "no_pr"
)

// Finding is the validation result for one plugin.
type Finding struct {
	Status     Status `json:"status"`
	Name       string `json:"name"`
	Repository string `json:"repository,omitempty"`

	ManualPR        string `json:"manual_pr,omitempty"`
	AutomatedPR     string `json:"automated_pr,omitempty"`
	ManualMerged    string `json:"manual_merged,omitempty"`
	AutomatedMerged string `json:"automated_merged,omitempty"`

	PR    Outcome `json:"pr,omitempty"`
	Merge Outcome `json:"merge,omitempty"`
}

// Summary counts findings.
type Summary struct {
	Manual    int `json:"manual"`
	Automated int `json:"automated"`

	Found           int `json:"found"`
	Missing         int `json:"missing"`
	PRMatches       int `json:"pr_matches"`
	PRMismatches    int `json:"pr_mismatches"`
	MergeMatches    int `json:"merge_matches"`
	MergeMismatches int `json:"merge_mismatches"`
	Additional      int `json:"additional"`
}

// Verdict is the overall validation result.
type Verdict string

const (
	VerdictPass    Verdict = "PASS"
	VerdictPartial Verdict = "PARTIAL"
	VerdictFail    Verdict = "FAIL"
)

// Verdict derives the overall result from the counts.
func (s Summary) Verdict() Verdict {
	switch {
	case s.Missing > 0:
		return VerdictFail
	case s.PRMismatches > 0 || s.MergeMismatches > 0:
		return VerdictPartial
	}
	return VerdictPass
}

// ExitCode maps the verdict to the process exit status.
func (v Verdict) ExitCode() int {
	switch v {
	case VerdictPass:
		return 0
	case VerdictPartial:
		return 1
	}
	return 2
}

// Report is a complete validation run.
type Report struct {
	Generated time.Time `json:"generated"`
	Findings  []Finding `json:"findings"`
	Summary   Summary   `json:"summary"`
}

// Verdict is shorthand for r.Summary.Verdict().
func (r Report) Verdict() Verdict { return r.Summary.Verdict() }

type manualRecord struct {
	name   string
	pr     string
	merged string
}

// Compare checks every manual entry against the compatible automated
// entries and lists the automated plugins the manual sheet lacks. Manual
// findings come first, in order of first appearance, followed by additional
// plugins in report order.
func Compare(manualEntries []manual.Entry, automated []tracking.Entry) Report {
	// Later manual rows overwrite earlier ones under the same name but keep
	// the position of the first.
	var order []string
	byName := make(map[string]manualRecord)
	for _, e := range manualEntries {
		key := naming.Lower(e.Name)
		if _, seen := byName[key]; !seen {
			order = append(order, key)
		}
		byName[key] = manualRecord{name: key, pr: e.PR, merged: e.Merged}
	}

	var compatible []tracking.Entry
	byKey := make(map[string]tracking.Entry)
	for _, e := range automated {
		if !e.HasJDK25 {
			continue
		}
		compatible = append(compatible, e)
		for _, k := range automatedKeys(e) {
			byKey[k] = e
		}
	}

	r := Report{Summary: Summary{Manual: len(order), Automated: len(compatible)}}
	for _, key := range order {
		m := byName[key]
		f := Finding{Name: m.name, ManualPR: m.pr, ManualMerged: m.merged}

		e, ok := lookup(byKey, m.name)
		if !ok {
			f.Status = StatusMissing
			r.Summary.Missing++
			r.Findings = append(r.Findings, f)
			continue
		}
		f.Status = StatusFound
		f.Repository = e.Repository
		r.Summary.Found++

		if !e.HasPR() {
			f.PR = OutcomeNoPR
			r.Summary.PRMismatches++
			r.Findings = append(r.Findings, f)
			continue
		}
		f.AutomatedPR = e.PR.URL
		f.AutomatedMerged = strconv.FormatBool(e.PR.IsMerged)
		if strings.Contains(e.PR.URL, m.pr) || strings.Contains(m.pr, e.PR.URL) {
			f.PR = OutcomeMatch
			r.Summary.PRMatches++
		} else {
			f.PR = OutcomeMismatch
			r.Summary.PRMismatches++
		}
		if naming.Lower(m.merged) == f.AutomatedMerged {
			f.Merge = OutcomeMatch
			r.Summary.MergeMatches++
		} else {
			f.Merge = OutcomeMismatch
			r.Summary.MergeMismatches++
		}
		r.Findings = append(r.Findings, f)
	}

	for _, e := range compatible {
		if knownManually(byName, e) {
			continue
		}
		f := Finding{Status: StatusNew, Name: e.Plugin, Repository: e.Repository}
		if e.HasPR() {
			f.AutomatedPR = e.PR.URL
			f.AutomatedMerged = strconv.FormatBool(e.PR.IsMerged)
		}
		r.Summary.Additional++
		r.Findings = append(r.Findings, f)
	}
	return r
}

func repoTail(e tracking.Entry) string {
	tail := e.Repository
	if i := strings.LastIndexByte(tail, '/'); i >= 0 {
		tail = tail[i+1:]
	}
	return naming.Lower(strings.ReplaceAll(tail, "-plugin", ""))
}

func automatedKeys(e tracking.Entry) []string {
	tail := repoTail(e)
	return []string{naming.Lower(e.Plugin), strings.ReplaceAll(tail, "-", " "), tail}
}

func lookup(byKey map[string]tracking.Entry, name string) (tracking.Entry, bool) {
	for _, k := range []string{
		name,
		strings.ReplaceAll(name, " ", "-"),
		strings.ReplaceAll(name, "-", " "),
		name + "-plugin",
	} {
		if e, ok := byKey[k]; ok {
			return e, true
		}
	}
	return tracking.Entry{}, false
}

func knownManually(byName map[string]manualRecord, e tracking.Entry) bool {
	for _, k := range []string{naming.Lower(e.Plugin), strings.ReplaceAll(repoTail(e), "-", " ")} {
		if _, ok := byName[k]; ok {
			return true
		}
	}
	return false
}
