// Package detect scans the most popular plugin repositories for JDK 25
// adoption and produces the tracking and open-PR reports.
package detect

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"jdk25tracker/internal/github"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/plugins"
	"jdk25tracker/internal/tracking"

	"golang.org/x/sync/errgroup"
)

// Source reads what detection needs from a repository.
type Source interface {
	Jenkinsfile(ctx context.Context, repository string) (content string, found bool, err error)
	JDK25PullRequests(ctx context.Context, repository string) ([]github.PullRequest, error)
}

var jdk25Declaration = regexp.MustCompile(`jdk\s*:\s*['"]?25\b`)

// UsesJDK25 reports whether a Jenkinsfile builds with JDK 25.
func UsesJDK25(jenkinsfile string) bool {
	return jdk25Declaration.MatchString(jenkinsfile)
}

// PickPR chooses the pull request recorded for a repository: a merged one
// if any, otherwise the most recently created.
func PickPR(prs []github.PullRequest) (github.PullRequest, bool) {
	if len(prs) == 0 {
		return github.PullRequest{}, false
	}
	best := slices.MaxFunc(prs, func(a, b github.PullRequest) int {
		if a.Merged != b.Merged {
			if a.Merged {
				return 1
			}
			return -1
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		// Lower number wins ties so the choice is stable.
		return cmp.Compare(b.Number, a.Number)
	})
	return best, true
}

// Options controls a scan.
type Options struct {
	// Concurrency bounds the repositories scanned at once.
	Concurrency int
	Verbose     bool
}

// Failure records a repository that could not be scanned.
type Failure struct {
	Repository string
	Err        error
}

// Result is the outcome of a scan, in input plugin order.
type Result struct {
	Entries  []tracking.Entry
	Open     []tracking.OpenEntry
	Failures []Failure
}

// Compatible counts entries with JDK 25 in their Jenkinsfile.
func (r Result) Compatible() int {
	n := 0
	for _, e := range r.Entries {
		if e.HasJDK25 {
			n++
		}
	}
	return n
}

// Scan inspects every plugin's repository. Per-repository errors are logged
// and returned in Failures; only cancellation aborts the scan.
func Scan(ctx context.Context, src Source, list []plugins.Plugin, opts Options) (Result, error) {
	log := logging.FromContext(ctx)
	limit := max(opts.Concurrency, 1)

	entries := make([]*tracking.Entry, len(list))
	open := make([]*tracking.OpenEntry, len(list))
	failures := make([]*Failure, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range list {
		repo := p.Repository()
		if repo == "" {
			continue
		}
		g.Go(func() error {
			e, o, err := scanOne(gctx, src, p.Name, repo)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Str("repository", repo).Str("error", github.Describe(err, opts.Verbose)).Msg("Scan failed")
				failures[i] = &Failure{Repository: repo, Err: err}
				return nil
			}
			entries[i], open[i] = &e, &o
			log.Debug().Str("repository", repo).Bool("has_jdk25", e.HasJDK25).Int("open_prs", len(o.OpenPRs)).Msg("Scanned")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for i := range list {
		switch {
		case entries[i] != nil:
			res.Entries = append(res.Entries, *entries[i])
			res.Open = append(res.Open, *open[i])
		case failures[i] != nil:
			res.Failures = append(res.Failures, *failures[i])
		}
	}
	return res, nil
}

func scanOne(ctx context.Context, src Source, plugin, repo string) (tracking.Entry, tracking.OpenEntry, error) {
	entry := tracking.Entry{Plugin: plugin, Repository: repo}
	openEntry := tracking.OpenEntry{Plugin: plugin, Repository: repo, OpenPRs: []tracking.OpenPR{}}

	content, found, err := src.Jenkinsfile(ctx, repo)
	if err != nil {
		return entry, openEntry, fmt.Errorf("jenkinsfile: %w", err)
	}
	entry.HasJDK25 = found && UsesJDK25(content)

	prs, err := src.JDK25PullRequests(ctx, repo)
	if err != nil {
		return entry, openEntry, fmt.Errorf("pull requests: %w", err)
	}
	if pr, ok := PickPR(prs); ok {
		entry.PR = tracking.PullRequest{URL: pr.URL, Number: pr.Number, IsMerged: pr.Merged}
	}
	for _, pr := range prs {
		if !pr.Open() {
			continue
		}
		openEntry.OpenPRs = append(openEntry.OpenPRs, tracking.OpenPR{
			Number:    pr.Number,
			URL:       pr.URL,
			Title:     pr.Title,
			IsDraft:   pr.Draft,
			Author:    tracking.Author{Login: pr.Author},
			CreatedAt: pr.CreatedAt,
		})
	}
	openEntry.HasOpenPRs = len(openEntry.OpenPRs) > 0
	return entry, openEntry, nil
}

// ErrNoPlugins is returned when there is nothing to scan.
var ErrNoPlugins = errors.New("no plugins with a jenkinsci repository to scan")

// Stamp is the date suffix of report file names.
func Stamp(now time.Time) string { return now.Format("2006-01-02") }
