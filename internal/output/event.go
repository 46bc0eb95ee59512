package output

import (
	"time"

	"jdk25tracker/internal/validate"
)

// Event types streamed in NDJSON mode.
const (
	EventStarted  = "validation.started"
	EventChecked  = "plugin.checked"
	EventFinished = "validation.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - validation.started
// - plugin.checked
// - validation.finished
//
// JSON mode remains an aggregate of validate.Finding values.
type Event struct {
	Type      string    `json:"type"`
	Generated time.Time `json:"generated,omitzero"`
	*validate.Finding
	Manual    int               `json:"manual,omitempty"`
	Automated int               `json:"automated,omitempty"`
	Summary   *validate.Summary `json:"summary,omitempty"`
	Verdict   validate.Verdict  `json:"verdict,omitempty"`
	ExitCode  int               `json:"exit_code,omitempty"`
}

func eventFromFinding(f validate.Finding) Event {
	return Event{Type: EventChecked, Finding: &f}
}

// Document is the aggregate written by json-format sinks on Close.
type Document struct {
	Generated time.Time          `json:"generated,omitzero"`
	Findings  []validate.Finding `json:"findings"`
	Summary   *validate.Summary  `json:"summary,omitempty"`
	Verdict   validate.Verdict   `json:"verdict,omitempty"`
}

// collect folds a written value into the aggregate.
func (d *Document) collect(v any) {
	switch t := v.(type) {
	case validate.Finding:
		d.Findings = append(d.Findings, t)
	case Event:
		switch t.Type {
		case EventStarted:
			d.Generated = t.Generated
		case EventFinished:
			d.Summary = t.Summary
			d.Verdict = t.Verdict
		}
	}
}

func (d *Document) normalized() Document {
	out := *d
	if out.Findings == nil {
		out.Findings = []validate.Finding{}
	}
	return out
}
