// Package sheetstest provides an in-memory sheets.Spreadsheet.
package sheetstest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"jdk25tracker/internal/sheets"
)

// Memory is a goroutine-safe in-memory spreadsheet. Formulas are stored
// verbatim.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	order  []int64
	tabs   map[int64]*Tab
}

// Tab is the state of one in-memory worksheet.
type Tab struct {
	ID     int64
	Title  string
	Cells  [][]string
	Styles []sheets.Style
	Frozen int
}

// New returns a spreadsheet containing worksheets with the given titles.
func New(titles ...string) *Memory {
	m := &Memory{tabs: make(map[int64]*Tab)}
	for _, t := range titles {
		m.add(t)
	}
	return m
}

// Seed replaces the cells of an existing worksheet.
func (m *Memory) Seed(title string, cells [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tab := m.byTitle(title); tab != nil {
		tab.Cells = clone(cells)
	}
}

// Tab returns a copy of the named worksheet, or nil.
func (m *Memory) Tab(title string) *Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab := m.byTitle(title)
	if tab == nil {
		return nil
	}
	cp := *tab
	cp.Cells = clone(tab.Cells)
	cp.Styles = slices.Clone(tab.Styles)
	return &cp
}

// Titles returns worksheet titles in display order.
func (m *Memory) Titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.tabs[id].Title)
	}
	return out
}

func (m *Memory) ID() string  { return "memory" }
func (m *Memory) URL() string { return "https://docs.google.com/spreadsheets/d/memory" }

func (m *Memory) Worksheets(context.Context) ([]sheets.Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sheets.Worksheet, 0, len(m.order))
	for i, id := range m.order {
		out = append(out, sheets.Worksheet{ID: id, Title: m.tabs[id].Title, Index: i})
	}
	return out, nil
}

func (m *Memory) AddWorksheet(_ context.Context, title string, _, _ int) (sheets.Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byTitle(title) != nil {
		return sheets.Worksheet{}, fmt.Errorf("worksheet %q already exists", title)
	}
	tab := m.add(title)
	return sheets.Worksheet{ID: tab.ID, Title: title, Index: len(m.order) - 1}, nil
}

func (m *Memory) Values(_ context.Context, title string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab := m.byTitle(title)
	if tab == nil {
		return nil, fmt.Errorf("worksheet %q not found", title)
	}
	return clone(tab.Cells), nil
}

func (m *Memory) Update(_ context.Context, title string, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab := m.byTitle(title)
	if tab == nil {
		return fmt.Errorf("worksheet %q not found", title)
	}
	for r, row := range values {
		for len(tab.Cells) <= r {
			tab.Cells = append(tab.Cells, nil)
		}
		for c, v := range row {
			for len(tab.Cells[r]) <= c {
				tab.Cells[r] = append(tab.Cells[r], "")
			}
			tab.Cells[r][c] = v
		}
	}
	return nil
}

func (m *Memory) Clear(_ context.Context, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab := m.byTitle(title)
	if tab == nil {
		return fmt.Errorf("worksheet %q not found", title)
	}
	tab.Cells = nil
	return nil
}

func (m *Memory) Format(_ context.Context, sheetID int64, styles ...sheets.Style) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[sheetID]
	if !ok {
		return fmt.Errorf("worksheet id %d not found", sheetID)
	}
	tab.Styles = append(tab.Styles, styles...)
	return nil
}

func (m *Memory) Freeze(_ context.Context, sheetID int64, rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[sheetID]
	if !ok {
		return fmt.Errorf("worksheet id %d not found", sheetID)
	}
	tab.Frozen = rows
	return nil
}

func (m *Memory) Move(_ context.Context, sheetID int64, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.order, sheetID)
	if i < 0 {
		return fmt.Errorf("worksheet id %d not found", sheetID)
	}
	m.order = slices.Delete(m.order, i, i+1)
	index = min(max(index, 0), len(m.order))
	m.order = slices.Insert(m.order, index, sheetID)
	return nil
}

func (m *Memory) add(title string) *Tab {
	tab := &Tab{ID: m.nextID, Title: title}
	m.nextID++
	m.tabs[tab.ID] = tab
	m.order = append(m.order, tab.ID)
	return tab
}

func (m *Memory) byTitle(title string) *Tab {
	for _, id := range m.order {
		if m.tabs[id].Title == title {
			return m.tabs[id]
		}
	}
	return nil
}

func clone(cells [][]string) [][]string {
	out := make([][]string, len(cells))
	for i, row := range cells {
		out[i] = slices.Clone(row)
	}
	return out
}

var _ sheets.Spreadsheet = (*Memory)(nil)
