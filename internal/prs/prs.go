// Package prs models pull requests collected from the jenkinsci
// organization, their grouping by title, and the failing-PR report.
package prs

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	pkgerrors "jdk25tracker/internal/errors"
)

// States reported by GitHub for pull requests.
const (
	StateOpen   = "OPEN"
	StateClosed = "CLOSED"
	StateMerged = "MERGED"
)

// PR is a collected pull request.
type PR struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	User        string    `json:"user"`
	Repository  string    `json:"repository"`
	PluginName  string    `json:"pluginName"`
	Labels      []string  `json:"labels"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	CheckStatus string    `json:"checkStatus,omitempty"`
}

// Link returns the PR URL, derived from repository and number when unset.
func (p PR) Link() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("https://github.com/%s/pull/%d", p.Repository, p.Number)
}

// Group is the set of PRs sharing a title, typically one migration recipe.
type Group struct {
	Title  string `json:"title"`
	PRs    []PR   `json:"prs"`
	Open   int    `json:"open"`
	Closed int    `json:"closed"`
	Merged int    `json:"merged"`
}

// GroupByTitle groups prs by exact title. Groups are ordered by size,
// largest first, then by title; PRs keep their input order.
func GroupByTitle(prs []PR) []Group {
	byTitle := make(map[string]*Group)
	var order []string
	for _, p := range prs {
		g, ok := byTitle[p.Title]
		if !ok {
			g = &Group{Title: p.Title}
			byTitle[p.Title] = g
			order = append(order, p.Title)
		}
		g.PRs = append(g.PRs, p)
		switch p.State {
		case StateOpen:
			g.Open++
		case StateClosed:
			g.Closed++
		case StateMerged:
			g.Merged++
		}
	}

	out := make([]Group, 0, len(order))
	for _, t := range order {
		out = append(out, *byTitle[t])
	}
	slices.SortStableFunc(out, func(a, b Group) int {
		if c := cmp.Compare(len(b.PRs), len(a.PRs)); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
	return out
}

// Summary aggregates a set of groups.
type Summary struct {
	Total, Open, Closed, Merged int
	Earliest, Latest            time.Time
}

// Summarize totals the groups. Earliest is the first creation time and
// Latest the last update time across all PRs.
func Summarize(groups []Group) Summary {
	var s Summary
	for _, g := range groups {
		s.Total += len(g.PRs)
		s.Open += g.Open
		s.Closed += g.Closed
		s.Merged += g.Merged
		for _, p := range g.PRs {
			if !p.CreatedAt.IsZero() && (s.Earliest.IsZero() || p.CreatedAt.Before(s.Earliest)) {
				s.Earliest = p.CreatedAt
			}
			if p.UpdatedAt.After(s.Latest) {
				s.Latest = p.UpdatedAt
			}
		}
	}
	return s
}

// LoadGroups reads a grouped-PR file.
func LoadGroups(path string) ([]Group, error) {
	var groups []Group
	if err := readJSON(path, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pkgerrors.NewNotFoundError("file", path, err)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return pkgerrors.NewParseError("JSON", path, err)
	}
	return nil
}
