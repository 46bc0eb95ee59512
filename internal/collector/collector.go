// Package collector searches the jenkinsci organization for pull requests
// opened by the plugin modernizer and writes the collected, grouped and
// failing PR files the upload command consumes.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jdk25tracker/internal/github"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/naming"
	"jdk25tracker/internal/plugins"
	"jdk25tracker/internal/prs"
	"jdk25tracker/internal/retry"

	"golang.org/x/time/rate"
)

// DateLayout is the format of --start and --end.
const DateLayout = "2006-01-02"

// UnknownStatus is reported when a PR has no status rollup.
const UnknownStatus = "UNKNOWN"

// Searcher runs one page of a pull request search.
type Searcher interface {
	SearchPullRequests(ctx context.Context, query, cursor string) (github.SearchPage, error)
}

// Options controls a collection run.
type Options struct {
	// Start and End bound PR creation dates. End is inclusive.
	Start, End time.Time
	Org        string

	// RateLimit is the number of search requests per second.
	RateLimit rate.Limit
	Retry     retry.Policy

	// ExcludedAuthors are bot logins whose PRs never match.
	ExcludedAuthors []string
	// Markers are body substrings identifying modernizer PRs.
	Markers []string
}

// DefaultOptions searches jenkinsci at one request per second, skipping
// dependency bots and keeping bodies that mention the modernizer or a
// recipe.
func DefaultOptions() Options {
	return Options{
		Org:       naming.Org,
		RateLimit: rate.Limit(1),
		Retry: retry.Policy{
			Attempts:     5,
			InitialDelay: 2 * time.Second,
			MaxDelay:     30 * time.Second,
			Retryable:    retryable,
		},
		ExcludedAuthors: []string{"dependabot", "renovate"},
		Markers:         []string{"odernizer", "recipe"},
	}
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Window is one month-bounded slice of the search range.
type Window struct {
	From, To time.Time
}

// Query is the GitHub search for PRs created in the window.
func (w Window) Query(org string) string {
	return fmt.Sprintf("org:%s is:pr created:%s..%s", org, w.From.Format(DateLayout), w.To.Format(DateLayout))
}

// Windows splits [start, end] at month boundaries. Each window ends on the
// last day of its month or on end, whichever is earlier.
func Windows(start, end time.Time) []Window {
	var out []Window
	for from := start; from.Before(end); {
		to := from.AddDate(0, 1, -from.Day())
		if to.After(end) {
			to = end
		}
		out = append(out, Window{From: from, To: to})
		from = to.AddDate(0, 0, 1)
	}
	return out
}

// EndOfDay makes a parsed --end date inclusive.
func EndOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Second)
}

// Result is what a run collected.
type Result struct {
	// Matched are human-authored modernizer PRs in plugin repositories.
	Matched []prs.PR
	// Found is every PR the search returned.
	Found   []prs.PR
	Windows int
	Pages   int
}

// Collector pages through monthly searches.
type Collector struct {
	search  Searcher
	repos   map[string]plugins.Plugin
	opts    Options
	limiter *rate.Limiter
}

// New returns a collector over the jenkinsci repositories of registry.
func New(search Searcher, registry *plugins.Registry, opts Options) *Collector {
	def := DefaultOptions()
	if opts.Org == "" {
		opts.Org = def.Org
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = def.RateLimit
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = def.Retry
	}
	if opts.ExcludedAuthors == nil {
		opts.ExcludedAuthors = def.ExcludedAuthors
	}
	if opts.Markers == nil {
		opts.Markers = def.Markers
	}
	return &Collector{
		search:  search,
		repos:   registry.Repositories(),
		opts:    opts,
		limiter: rate.NewLimiter(opts.RateLimit, 1),
	}
}

// Run searches every window and classifies the results.
func (c *Collector) Run(ctx context.Context) (Result, error) {
	log := logging.FromContext(ctx)
	if !c.opts.Start.Before(c.opts.End) {
		return Result{}, fmt.Errorf("start %s is not before end %s", c.opts.Start.Format(DateLayout), c.opts.End.Format(DateLayout))
	}
	log.Info().
		Str("org", c.opts.Org).
		Str("start", c.opts.Start.Format(DateLayout)).
		Str("end", c.opts.End.Format(DateLayout)).
		Int("plugin_repos", len(c.repos)).
		Msg("Searching pull requests")

	var res Result
	for _, w := range Windows(c.opts.Start, c.opts.End) {
		res.Windows++
		query := w.Query(c.opts.Org)
		total := 0
		cursor := ""
		for {
			if err := c.limiter.Wait(ctx); err != nil {
				return res, fmt.Errorf("rate limiter: %w", err)
			}
			page, err := retry.Value(ctx, c.opts.Retry, func(ctx context.Context) (github.SearchPage, error) {
				return c.search.SearchPullRequests(ctx, query, cursor)
			})
			if err != nil {
				return res, fmt.Errorf("search %q: %w", query, err)
			}
			res.Pages++
			total += len(page.Results)
			log.Debug().Str("query", query).Str("cursor", cursor).Int("results", len(page.Results)).Msg("Fetched page")

			for _, r := range page.Results {
				plugin, isPlugin := c.repos[naming.Lower(r.Repo)]
				pr := toPR(r, plugin.Name)
				res.Found = append(res.Found, pr)
				if isPlugin && c.matches(r) {
					log.Debug().Int("number", r.Number).Str("repository", pr.Repository).Msg("Matched modernizer PR")
					res.Matched = append(res.Matched, pr)
				}
			}

			if !page.HasNextPage {
				break
			}
			cursor = page.EndCursor
		}
		log.Info().Str("window", query).Int("found", total).Msg("Window searched")
	}
	log.Info().Int("found", len(res.Found)).Int("matched", len(res.Matched)).Msg("Search finished")
	return res, nil
}

func (c *Collector) matches(r github.SearchResult) bool {
	author := strings.TrimSuffix(r.Author, "[bot]")
	for _, bot := range c.opts.ExcludedAuthors {
		if author == bot {
			return false
		}
	}
	for _, m := range c.opts.Markers {
		if strings.Contains(r.Body, m) {
			return true
		}
	}
	return false
}

// CheckStatus is the rollup state of the PR's last commit, or UNKNOWN.
func CheckStatus(r github.SearchResult) string {
	if r.CheckState == "" {
		return UnknownStatus
	}
	return r.CheckState
}

func toPR(r github.SearchResult, plugin string) prs.PR {
	labels := r.Labels
	if labels == nil {
		labels = []string{}
	}
	return prs.PR{
		Number:      r.Number,
		Title:       r.Title,
		State:       r.State,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		User:        r.Author,
		Repository:  r.Owner + "/" + r.Repo,
		PluginName:  plugin,
		Labels:      labels,
		URL:         r.URL,
		Description: r.Body,
		CheckStatus: CheckStatus(r),
	}
}
