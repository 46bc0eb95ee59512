package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/sheets"
)

type Config struct {
	// MAINTAINER NOTE: fields set from flags are bound in internal/cli; keep
	// the names in internal/flags and the environment keys in load.go in
	// sync with them.
	Sheets  Sheets
	Reports Reports
	GitHub  GitHub
	Output  Output
	Runtime Runtime
}

type Sheets struct {
	// Spreadsheet is the target spreadsheet, as an ID or docs.google.com
	// URL. Validate reduces it to the ID.
	Spreadsheet string

	// Credentials is the service account key file.
	Credentials string

	// WritePause is the wait after each write, to stay under the write quota.
	WritePause time.Duration

	// Attempts and InitialDelay drive retries of rate-limited calls.
	Attempts     int
	InitialDelay time.Duration
}

type Reports struct {
	// Dir holds the dated tracking and open-PR reports.
	Dir string

	// History globs the historical tracking reports folded into update.
	// Empty means every tracking report in Dir.
	History string

	// Plugins is a local plugins.json. When empty, the update center is
	// fetched from UpdateCenter.
	Plugins      string
	UpdateCenter string
}

type GitHub struct {
	// Token authenticates collect and detect. Empty falls back to
	// GITHUB_TOKEN and then the gh CLI.
	Token string

	// BaseURL points at a GitHub Enterprise REST API.
	BaseURL string
}

type Output struct {
	// ConsoleFormat controls the validation console sink (text, json, ndjson).
	ConsoleFormat string

	// ConsoleFilterStatus limits console findings to these statuses
	// (FOUND, MISSING, NEW).
	ConsoleFilterStatus []string

	// Report writes a Markdown validation report to this path.
	Report string

	// Out writes structured validation output to this path.
	Out string

	// OutFormat selects json or ndjson for Out; inferred from the extension
	// when empty.
	OutFormat string

	// Emit streams validation events to stdout (json, ndjson).
	Emit []string

	// NoConsole suppresses the console sink.
	NoConsole bool
}

type Runtime struct {
	// Concurrency bounds the repositories detect scans at once.
	Concurrency int

	// Timeout bounds a whole command.
	Timeout time.Duration

	// Verbose lowers logging to debug and logs every GitHub request.
	Verbose bool

	// LogFormat is auto, console or json.
	LogFormat string
}

func New() *Config {
	return &Config{
		Sheets: Sheets{
			Credentials:  "google-credentials.json",
			WritePause:   2 * time.Second,
			Attempts:     5,
			InitialDelay: 5 * time.Second,
		},
		Reports: Reports{
			Dir:          "reports",
			UpdateCenter: "https://updates.jenkins.io/current/update-center.actual.json",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 8,
			Timeout:     30 * time.Minute,
			LogFormat:   "auto",
		},
	}
}

// Validate normalizes list and enum inputs and rejects invalid values.
// The spreadsheet reference is only checked when set; commands that need
// one call RequireSpreadsheet.
func (c *Config) Validate() error {
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)
	c.Output.Emit = splitCommaList(c.Output.Emit)

	if c.Sheets.Spreadsheet != "" {
		id, err := sheets.ParseRef(c.Sheets.Spreadsheet)
		if err != nil {
			return invalid("spreadsheet", err.Error())
		}
		c.Sheets.Spreadsheet = id
	}
	if c.Sheets.WritePause < 0 {
		return invalid("write-pause", "must be >= 0")
	}
	if c.Sheets.Attempts < 1 {
		return invalid("retries", "must be >= 1")
	}

	if c.Reports.History == "" && c.Reports.Dir != "" {
		c.Reports.History = filepath.Join(c.Reports.Dir, "jdk25_tracking_with_prs_*.json")
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if !oneOf(c.Output.ConsoleFormat, "text", "json", "ndjson") {
		return invalid("console-format", fmt.Sprintf("unsupported value %q (must be one of: text, json, ndjson)", c.Output.ConsoleFormat))
	}
	for i, s := range c.Output.ConsoleFilterStatus {
		s = strings.ToUpper(strings.TrimSpace(s))
		if !oneOf(s, "FOUND", "MISSING", "NEW") {
			return invalid("console-filter-status", fmt.Sprintf("unsupported value %q (must be one of: FOUND, MISSING, NEW)", s))
		}
		c.Output.ConsoleFilterStatus[i] = s
	}
	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if !oneOf(v, "json", "ndjson") {
			return invalid("emit", fmt.Sprintf("unsupported value %q (must be one of: json, ndjson)", v))
		}
		c.Output.Emit[i] = v
	}
	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			switch ext := strings.ToLower(filepath.Ext(c.Output.Out)); ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			case "":
				return invalid("out", "cannot infer output format from file extension (missing extension); use --out-format")
			default:
				return invalid("out", fmt.Sprintf("cannot infer output format from file extension %q; use --out-format", ext))
			}
		} else if !oneOf(c.Output.OutFormat, "json", "ndjson") {
			return invalid("out-format", fmt.Sprintf("unsupported value %q", c.Output.OutFormat))
		}
	}

	if c.Runtime.Concurrency <= 0 {
		return invalid("concurrency", "must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return invalid("timeout", "must be > 0")
	}
	c.Runtime.LogFormat = normalizeEnumValue(c.Runtime.LogFormat)
	if c.Runtime.LogFormat == "" {
		c.Runtime.LogFormat = "auto"
	}
	if !oneOf(c.Runtime.LogFormat, "auto", "console", "json") {
		return invalid("log-format", fmt.Sprintf("unsupported value %q (must be one of: auto, console, json)", c.Runtime.LogFormat))
	}
	return nil
}

// ErrNoSpreadsheet is returned by RequireSpreadsheet when nothing names the
// target spreadsheet.
var ErrNoSpreadsheet = errors.New("no spreadsheet ID or URL provided; pass it as an argument or set SPREADSHEET_ID")

// RequireSpreadsheet fails unless a spreadsheet ID is configured.
func (c *Config) RequireSpreadsheet() error {
	if c.Sheets.Spreadsheet == "" {
		return pkgerrors.NewConfigError("spreadsheet", ErrNoSpreadsheet.Error(), ErrNoSpreadsheet)
	}
	return nil
}

func invalid(setting, msg string) error {
	return pkgerrors.NewConfigError("--"+setting, msg, nil)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
