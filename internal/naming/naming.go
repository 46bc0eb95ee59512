// Package naming reconciles plugin names across the conventions found in
// spreadsheets and scan reports: display names ("Git Plugin"), repository
// slugs ("jenkinsci/git-plugin") and artifact ids ("git").
package naming

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Org is the GitHub organization hosting plugin repositories.
const Org = "jenkinsci"

const orgPrefix = Org + "/"

var fold = cases.Lower(language.Und)

// Lower lower-cases and trims s.
func Lower(s string) string {
	return fold.String(strings.TrimSpace(s))
}

// Hyphenate lower-cases s and replaces spaces with hyphens.
func Hyphenate(s string) string {
	return strings.ReplaceAll(Lower(s), " ", "-")
}

// Spaced lower-cases s and replaces hyphens with spaces.
func Spaced(s string) string {
	return strings.ReplaceAll(Lower(s), "-", " ")
}

// RepoName returns the last path segment of a repository slug.
func RepoName(repository string) string {
	repository = strings.TrimSuffix(strings.TrimSpace(repository), "/")
	if i := strings.LastIndex(repository, "/"); i >= 0 {
		return repository[i+1:]
	}
	return repository
}

// StripOrg removes a leading "jenkinsci/" from s, ignoring case.
func StripOrg(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(orgPrefix) && strings.EqualFold(s[:len(orgPrefix)], orgPrefix) {
		return s[len(orgPrefix):]
	}
	return s
}

// Canonical returns a key that is identical for every spelling of the same
// plugin: case, spaces, underscores, the jenkinsci/ prefix and a trailing
// "plugin" word are all ignored.
func Canonical(name string) string {
	s := Lower(StripOrg(name))
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '\t', '.':
			return '-'
		}
		return r
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if trimmed := strings.TrimSuffix(s, "-plugin"); trimmed != "" {
		s = trimmed
	}
	return s
}

// EntryKeys returns the keys a scan entry is indexed under.
func EntryKeys(plugin, repository string) []string {
	lower := Lower(plugin)
	return dedupe(
		lower,
		Lower(repository),
		strings.ReplaceAll(lower, " plugin", ""),
		Hyphenate(plugin),
		orgPrefix+Hyphenate(plugin),
		Canonical(plugin),
		Canonical(repository),
	)
}

// RowKeys returns the keys tried, in order, when resolving a spreadsheet row
// name against indexed entries.
func RowKeys(name string) []string {
	h := Hyphenate(name)
	return dedupe(
		Lower(name),
		h,
		h+"-plugin",
		orgPrefix+h,
		orgPrefix+h+"-plugin",
		Canonical(name),
	)
}

// PresenceKeys returns the spellings under which an existing spreadsheet row
// counts as already listing a plugin.
func PresenceKeys(name string) []string {
	lower := Lower(name)
	return dedupe(
		lower,
		Hyphenate(name),
		strings.ReplaceAll(lower, " plugin", ""),
		strings.ReplaceAll(Hyphenate(name), "-plugin", ""),
		Canonical(name),
	)
}

// EntryPresenceKeys returns the spellings used to decide whether a scan
// entry already has a spreadsheet row.
func EntryPresenceKeys(plugin, repository string) []string {
	repo := Lower(StripOrg(repository))
	return dedupe(
		Lower(plugin),
		Hyphenate(plugin),
		repo,
		strings.ReplaceAll(repo, "-plugin", ""),
		Canonical(plugin),
		Canonical(repository),
	)
}

func dedupe(keys ...string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
