package tracking

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"jdk25tracker/internal/logging"
)

// DefaultHistoryGlob matches the dated tracking reports kept in reports/.
const DefaultHistoryGlob = "reports/jdk25_tracking_with_prs_*.json"

// Merge folds next over prev for the same repository. A compatible prev is
// never downgraded by a next that lacks JDK 25; every other field comes
// from next.
func Merge(prev, next Entry) Entry {
	out := next
	if prev.HasJDK25 && !next.HasJDK25 {
		out.HasJDK25 = true
		out.PR = prev.PR
	}
	return out
}

// History accumulates compatible entries across scans, keyed by repository.
type History struct {
	entries map[string]Entry
	files   int
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{entries: make(map[string]Entry)}
}

// Observe folds one scan's entries into the history. Only compatible
// entries are remembered.
func (h *History) Observe(entries []Entry) {
	for _, e := range entries {
		if !e.HasJDK25 {
			continue
		}
		k := e.Key()
		if prev, ok := h.entries[k]; ok {
			e = Merge(prev, e)
		}
		h.entries[k] = e
	}
	h.files++
}

// Len returns the number of compatible repositories remembered.
func (h *History) Len() int { return len(h.entries) }

// Files returns how many scans were observed.
func (h *History) Files() int { return h.files }

// Lookup returns the remembered entry for a repository key.
func (h *History) Lookup(key string) (Entry, bool) {
	e, ok := h.entries[key]
	return e, ok
}

// HistoryFiles returns the files matched by pattern in lexical order,
// excluding the file at exclude.
func HistoryFiles(pattern, exclude string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid history pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	if exclude == "" {
		return matches, nil
	}
	excludeAbs, _ := filepath.Abs(exclude)
	return slices.DeleteFunc(matches, func(m string) bool {
		abs, _ := filepath.Abs(m)
		return abs == excludeAbs
	}), nil
}

// LoadHistory reads every file in order. Files that cannot be read are
// logged and skipped.
func LoadHistory(ctx context.Context, paths []string) *History {
	log := logging.FromContext(ctx)
	h := NewHistory()
	for _, p := range paths {
		entries, err := LoadReport(p)
		if err != nil {
			log.Warn().Err(err).Str("file", p).Msg("Skipping historical report")
			continue
		}
		before := h.Len()
		h.Observe(entries)
		log.Debug().Str("file", p).Int("new_compatible", h.Len()-before).Msg("Loaded historical report")
	}
	return h
}

// Combined is the result of folding history into the current scan.
type Combined struct {
	Entries []Entry

	// Recovered counts compatible entries present only in history.
	Recovered int

	// Retained counts current entries whose compatibility came from history.
	Retained int
}

// Combine applies the current scan on top of history. Current entries keep
// their order; repositories only known from history follow, sorted by key.
func Combine(current []Entry, h *History) Combined {
	var out Combined
	seen := make(map[string]struct{}, len(current))
	for _, e := range current {
		k := e.Key()
		seen[k] = struct{}{}
		if prev, ok := h.Lookup(k); ok {
			merged := Merge(prev, e)
			if merged.HasJDK25 && !e.HasJDK25 {
				out.Retained++
			}
			e = merged
		}
		out.Entries = append(out.Entries, e)
	}

	var missing []string
	for k := range h.entries {
		if _, ok := seen[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	for _, k := range missing {
		out.Entries = append(out.Entries, h.entries[k])
	}
	out.Recovered = len(missing)
	return out
}
