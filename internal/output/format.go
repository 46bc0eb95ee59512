package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format selects how listings are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a listing format; empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml", s)
}

// Formatter prints listings.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns the formatter for f.
func NewFormatter(f Format) Formatter {
	switch f {
	case FormatJSON:
		return jsonFormatter{}
	case FormatYAML:
		return yamlFormatter{}
	}
	return tableFormatter{}
}

// Table is pre-shaped tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

type jsonFormatter struct{}

func (jsonFormatter) Format(w io.Writer, data any) error {
	if t, ok := data.(Table); ok {
		recs := t.records()
		maps := make([]map[string]any, len(recs))
		for i, rec := range recs {
			maps[i] = make(map[string]any, len(rec))
			for _, item := range rec {
				maps[i][fmt.Sprint(item.Key)] = item.Value
			}
		}
		data = maps
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

type yamlFormatter struct{}

func (yamlFormatter) Format(w io.Writer, data any) error {
	if t, ok := data.(Table); ok {
		data = t.records()
	}
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

type tableFormatter struct{}

func (tableFormatter) Format(w io.Writer, data any) error {
	t, ok := data.(Table)
	if !ok {
		conv, ok := structTable(data)
		if !ok {
			return jsonFormatter{}.Format(w, data)
		}
		t = conv
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{}))
	if len(t.Headers) > 0 {
		headers := make([]any, len(t.Headers))
		for i, h := range t.Headers {
			headers[i] = h
		}
		table.Header(headers...)
	}
	for _, row := range t.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

// records turns rows into header-keyed records in column order.
func (t Table) records() []yaml.MapSlice {
	out := make([]yaml.MapSlice, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(yaml.MapSlice, 0, len(t.Headers))
		for i, h := range t.Headers {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			rec = append(rec, yaml.MapItem{Key: h, Value: v})
		}
		out = append(out, rec)
	}
	return out
}

// Heading title-cases a snake_case or spaced label.
func Heading(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// structTable converts a slice of structs into a Table whose headers are
// the title-cased json tags.
func structTable(data any) (Table, bool) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice || v.Type().Elem().Kind() != reflect.Struct {
		return Table{}, false
	}
	typ := v.Type().Elem()
	var t Table
	for i := range typ.NumField() {
		f := typ.Field(i)
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
			name = tag
		}
		t.Headers = append(t.Headers, Heading(name))
	}
	for i := range v.Len() {
		elem := v.Index(i)
		row := make([]string, 0, typ.NumField())
		for j := range typ.NumField() {
			row = append(row, fmt.Sprint(elem.Field(j).Interface()))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}
