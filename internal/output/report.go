package output

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	md "github.com/nao1215/markdown"

	"jdk25tracker/internal/validate"
)

// ReportSink writes a Markdown validation report on Close.
type ReportSink struct {
	path string
	file *os.File
	mu   sync.Mutex
	doc  Document
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.collect(v)
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := renderMarkdown(s.file, s.doc)
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func renderMarkdown(f *os.File, doc Document) error {
	var missing, mismatched, additional []validate.Finding
	for _, fd := range doc.Findings {
		switch {
		case fd.Status == validate.StatusMissing:
			missing = append(missing, fd)
		case fd.Status == validate.StatusNew:
			additional = append(additional, fd)
		case fd.PR != validate.OutcomeMatch || fd.Merge == validate.OutcomeMismatch:
			mismatched = append(mismatched, fd)
		}
	}

	m := md.NewMarkdown(f)
	m.H1("JDK 25 Detection Validation Report")
	if !doc.Generated.IsZero() {
		m.PlainTextf("Generated: %s", doc.Generated.Format("2006-01-02 15:04:05")).LF()
	}

	m.H2("Summary")
	if doc.Summary != nil {
		s := doc.Summary
		m.PlainText(md.Bold("Verdict: " + string(doc.Verdict))).LF()
		m.Table(md.TableSet{
			Header: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Manual plugins with JDK 25", strconv.Itoa(s.Manual)},
				{"Automated plugins with JDK 25", strconv.Itoa(s.Automated)},
				{"Found in automation", fmt.Sprintf("%d/%d", s.Found, s.Manual)},
				{"Missing from automation", strconv.Itoa(s.Missing)},
				{"PR matches", strconv.Itoa(s.PRMatches)},
				{"PR mismatches", strconv.Itoa(s.PRMismatches)},
				{"Merge status matches", strconv.Itoa(s.MergeMatches)},
				{"Merge status mismatches", strconv.Itoa(s.MergeMismatches)},
				{"Additional plugins found", strconv.Itoa(s.Additional)},
			},
		})
	} else {
		m.PlainText("No summary recorded.").LF()
	}

	m.H2("Missing Plugins")
	if len(missing) == 0 {
		m.PlainText("None.").LF()
	} else {
		rows := make([][]string, 0, len(missing))
		for _, fd := range missing {
			rows = append(rows, []string{fd.Name, fd.ManualPR})
		}
		m.Table(md.TableSet{Header: []string{"Plugin", "Expected PR"}, Rows: rows})
	}

	m.H2("Mismatched Details")
	if len(mismatched) == 0 {
		m.PlainText("None.").LF()
	} else {
		rows := make([][]string, 0, len(mismatched))
		for _, fd := range mismatched {
			rows = append(rows, []string{fd.Name, string(fd.PR), string(fd.Merge), fd.ManualPR, fd.AutomatedPR})
		}
		m.Table(md.TableSet{Header: []string{"Plugin", "PR", "Merge", "Manual PR", "Automated PR"}, Rows: rows})
	}

	m.H2("Additional Plugins")
	if len(additional) == 0 {
		m.PlainText("No additional plugins found beyond manual list.").LF()
	} else {
		rows := make([][]string, 0, len(additional))
		for _, fd := range additional {
			pr := "No PR found"
			if fd.AutomatedPR != "" {
				pr = md.Link(fd.AutomatedPR, fd.AutomatedPR)
			}
			rows = append(rows, []string{fd.Name, fd.Repository, pr, fd.AutomatedMerged})
		}
		m.Table(md.TableSet{Header: []string{"Plugin", "Repository", "PR", "Merged"}, Rows: rows})
	}

	return m.Build()
}
