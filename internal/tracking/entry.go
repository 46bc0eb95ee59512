// Package tracking loads JDK 25 scan reports and folds historical scans into
// the current one.
package tracking

import (
	"time"

	"jdk25tracker/internal/naming"
)

// PullRequest is the JDK 25 pull request recorded for a repository.
type PullRequest struct {
	URL      string `json:"url"`
	Number   int    `json:"number"`
	IsMerged bool   `json:"is_merged"`
}

// Entry is one plugin in a scan report.
type Entry struct {
	Plugin     string      `json:"plugin"`
	Repository string      `json:"repository"`
	HasJDK25   bool        `json:"has_jdk25"`
	PR         PullRequest `json:"jdk25_pr"`
}

// Key identifies the repository an entry describes.
func (e Entry) Key() string {
	if e.Repository != "" {
		return naming.Lower(e.Repository)
	}
	return naming.Canonical(e.Plugin)
}

// HasPR reports whether a JDK 25 pull request URL is known.
func (e Entry) HasPR() bool { return e.PR.URL != "" }

// Author identifies a pull request author.
type Author struct {
	Login string `json:"login"`
}

// OpenPR is an unmerged JDK 25 pull request.
type OpenPR struct {
	Number    int       `json:"number"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	IsDraft   bool      `json:"isDraft"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// DaysOpen returns whole days between creation and now.
func (p OpenPR) DaysOpen(now time.Time) int {
	if p.CreatedAt.IsZero() {
		return 0
	}
	return int(now.Sub(p.CreatedAt).Hours() / 24)
}

// OpenEntry lists the open JDK 25 pull requests of a plugin.
type OpenEntry struct {
	Plugin     string   `json:"plugin"`
	Repository string   `json:"repository"`
	HasOpenPRs bool     `json:"has_open_jdk25_prs"`
	OpenPRs    []OpenPR `json:"open_jdk25_prs"`
}
