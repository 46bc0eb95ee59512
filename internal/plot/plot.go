// Package plot renders the plugin evolution time series as an SVG chart.
package plot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"jdk25tracker/internal/csvfile"
	pkgerrors "jdk25tracker/internal/errors"
)

// Defaults for the evolution chart.
const (
	DefaultInput  = "plugin_evolution.csv"
	DefaultOutput = "plugins_evolution.svg"
	DateColumn    = "Date"
)

// Metric is one plotted column.
type Metric struct {
	Column string
	Label  string
	Color  string
}

// Metrics are the plotted columns, in legend order.
var Metrics = []Metric{
	{Column: "Plugins_Without_Jenkinsfile", Label: "Without Jenkinsfile", Color: "#e74c3c"},
	{Column: "Plugins_With_Java8", Label: "With Java 8", Color: "#2ecc71"},
	{Column: "Plugins_Without_Java_Versions", Label: "Without Java Versions", Color: "#3498db"},
	{Column: "Plugins_Using_JDK11", Label: "Using JDK 11", Color: "#ff5733"},
}

// ErrTooFewSamples is returned when a series has fewer than two points.
var ErrTooFewSamples = errors.New("at least two samples are required")

// Series is the parsed evolution data.
type Series struct {
	Dates  []time.Time
	Values map[string][]float64 // keyed by Metric.Column
}

var dateLayouts = []string{time.DateOnly, "2006-01-02 15:04:05", time.RFC3339, "2006/01/02", "01/02/2006"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ReadSeries reads the evolution CSV.
func ReadSeries(path string) (*Series, error) {
	t, err := csvfile.Read(path)
	if err != nil {
		return nil, err
	}
	s, err := FromTable(t)
	if err != nil {
		return nil, pkgerrors.NewParseError("evolution CSV", path, err)
	}
	return s, nil
}

// FromTable extracts the date column and every metric column.
func FromTable(t *csvfile.Table) (*Series, error) {
	dateCol := t.Column(DateColumn)
	if dateCol < 0 {
		return nil, fmt.Errorf("missing %q column", DateColumn)
	}
	cols := make([]int, len(Metrics))
	for i, m := range Metrics {
		if cols[i] = t.Column(m.Column); cols[i] < 0 {
			return nil, fmt.Errorf("missing %q column", m.Column)
		}
	}

	s := &Series{Values: make(map[string][]float64, len(Metrics))}
	for n, row := range t.Rows {
		d, err := parseDate(row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		s.Dates = append(s.Dates, d)
		for i, m := range Metrics {
			cell := strings.TrimSpace(row[cols[i]])
			v := 0.0
			if cell != "" {
				if v, err = strconv.ParseFloat(cell, 64); err != nil {
					return nil, fmt.Errorf("row %d column %s: %w", n+2, m.Column, err)
				}
			}
			s.Values[m.Column] = append(s.Values[m.Column], v)
		}
	}
	return s, nil
}

// Chart builds the line chart for s.
func Chart(s *Series) (chart.Chart, error) {
	if len(s.Dates) < 2 {
		return chart.Chart{}, fmt.Errorf("%w, got %d", ErrTooFewSamples, len(s.Dates))
	}
	var series []chart.Series
	for _, m := range Metrics {
		color := drawing.ColorFromHex(strings.TrimPrefix(m.Color, "#"))
		series = append(series, chart.TimeSeries{
			Name:    m.Label,
			XValues: s.Dates,
			YValues: s.Values[m.Column],
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	grid := chart.Style{StrokeColor: drawing.ColorFromHex("dddddd"), StrokeWidth: 1, StrokeDashArray: []float64{4, 4}}
	c := chart.Chart{
		Title:  "Jenkins Plugins Evolution",
		Width:  1200,
		Height: 700,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 220, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
			GridMajorStyle: grid,
			TickStyle:      chart.Style{TextRotationDegrees: 45},
		},
		YAxis: chart.YAxis{
			Name:           "Number of Plugins",
			GridMajorStyle: grid,
		},
		Series: series,
	}
	c.Elements = []chart.Renderable{chart.LegendLeft(&c)}
	return c, nil
}

// Render writes s as SVG.
func Render(w io.Writer, s *Series) error {
	c, err := Chart(s)
	if err != nil {
		return err
	}
	return c.Render(chart.SVG, w)
}

// WriteSVG renders s to path.
func WriteSVG(path string, s *Series) error {
	c, err := Chart(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := c.Render(chart.SVG, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
