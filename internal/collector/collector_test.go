package collector

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jdk25tracker/internal/github"
	"jdk25tracker/internal/plugins"
	"jdk25tracker/internal/prs"
	"jdk25tracker/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchPullRequests(ctx context.Context, query, cursor string) (github.SearchPage, error) {
	args := m.Called(ctx, query, cursor)
	return args.Get(0).(github.SearchPage), args.Error(1)
}

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func registry(t *testing.T) *plugins.Registry {
	t.Helper()
	r, err := plugins.Parse([]byte(`{"plugins":{
		"git":{"name":"git","scm":"https://github.com/jenkinsci/git-plugin"},
		"mailer":{"name":"mailer","scm":"https://github.com/jenkinsci/mailer-plugin.git"}
	}}`))
	require.NoError(t, err)
	return r
}

func fastOptions(start, end string) Options {
	return Options{
		Start:     date(start),
		End:       EndOfDay(date(end)),
		RateLimit: rate.Inf,
		Retry:     retry.Policy{Attempts: 3, Retryable: retryable},
	}
}

func TestWindows(t *testing.T) {
	ws := Windows(date("2025-01-15"), EndOfDay(date("2025-03-10")))
	require.Len(t, ws, 3)
	assert.Equal(t, "org:jenkinsci is:pr created:2025-01-15..2025-01-31", ws[0].Query("jenkinsci"))
	assert.Equal(t, "org:jenkinsci is:pr created:2025-02-01..2025-02-28", ws[1].Query("jenkinsci"))
	assert.Equal(t, "org:jenkinsci is:pr created:2025-03-01..2025-03-10", ws[2].Query("jenkinsci"))

	single := Windows(date("2025-05-01"), EndOfDay(date("2025-05-01")))
	require.Len(t, single, 1)
	assert.Equal(t, "org:jenkinsci is:pr created:2025-05-01..2025-05-01", single[0].Query("jenkinsci"))
}

func TestRun_ClassifiesResults(t *testing.T) {
	s := new(mockSearcher)
	query := "org:jenkinsci is:pr created:2025-06-01..2025-06-30"
	s.On("SearchPullRequests", mock.Anything, query, "").Return(github.SearchPage{
		HasNextPage: true,
		EndCursor:   "c1",
		Results: []github.SearchResult{
			{Number: 1, Title: "Migrate to JUnit 5", State: prs.StateMerged, Owner: "jenkinsci", Repo: "git-plugin", Author: "alice", Body: "Generated by plugin-modernizer", CheckState: "SUCCESS", Labels: []string{"chore"}},
			{Number: 2, Title: "Bump parent", State: prs.StateOpen, Owner: "jenkinsci", Repo: "git-plugin", Author: "dependabot", Body: "recipe"},
			{Number: 3, Title: "Docs", State: prs.StateOpen, Owner: "jenkinsci", Repo: "jenkins", Author: "bob", Body: "Modernizer"},
		},
	}, nil).Once()
	s.On("SearchPullRequests", mock.Anything, query, "c1").Return(github.SearchPage{
		Results: []github.SearchResult{
			{Number: 4, Title: "Migrate to JUnit 5", State: prs.StateOpen, Owner: "jenkinsci", Repo: "Mailer-Plugin", Author: "carol", Body: "applies the recipe"},
			{Number: 5, Title: "Fix typo", State: prs.StateClosed, Owner: "jenkinsci", Repo: "mailer-plugin", Author: "dave", Body: "manual change"},
		},
	}, nil).Once()

	res, err := New(s, registry(t), fastOptions("2025-06-01", "2025-06-30")).Run(context.Background())
	require.NoError(t, err)
	s.AssertExpectations(t)

	assert.Equal(t, 1, res.Windows)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Found, 5)
	require.Len(t, res.Matched, 2)

	first := res.Matched[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "jenkinsci/git-plugin", first.Repository)
	assert.Equal(t, "git", first.PluginName)
	assert.Equal(t, "alice", first.User)
	assert.Equal(t, "SUCCESS", first.CheckStatus)
	assert.Equal(t, []string{"chore"}, first.Labels)

	second := res.Matched[1]
	assert.Equal(t, 4, second.Number)
	assert.Equal(t, "mailer", second.PluginName)
	assert.Equal(t, UnknownStatus, second.CheckStatus)
	assert.Equal(t, []string{}, second.Labels)

	assert.Equal(t, "", res.Found[2].PluginName, "non-plugin repository")
}

func TestRun_RetriesThenFails(t *testing.T) {
	s := new(mockSearcher)
	boom := errors.New("API rate limit exceeded")
	s.On("SearchPullRequests", mock.Anything, mock.Anything, "").Return(github.SearchPage{}, boom).Times(3)

	_, err := New(s, registry(t), fastOptions("2025-06-01", "2025-06-02")).Run(context.Background())
	require.ErrorIs(t, err, boom)
	s.AssertNumberOfCalls(t, "SearchPullRequests", 3)
}

func TestRun_RejectsEmptyRange(t *testing.T) {
	s := new(mockSearcher)
	opts := fastOptions("2025-06-02", "2025-06-01")
	opts.End = date("2025-06-01")
	_, err := New(s, registry(t), opts).Run(context.Background())
	require.Error(t, err)
	s.AssertNotCalled(t, "SearchPullRequests", mock.Anything, mock.Anything, mock.Anything)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Matched: filepath.Join(dir, "jenkins_prs.json"),
		Found:   filepath.Join(dir, "found_prs.json"),
		Grouped: filepath.Join(dir, "out", "grouped_prs.json"),
		Failing: filepath.Join(dir, "failing_prs.json"),
	}
	matched := []prs.PR{
		{Number: 1, Title: "Migrate", State: prs.StateOpen, Repository: "jenkinsci/a", CheckStatus: "FAILURE", URL: "https://github.com/jenkinsci/a/pull/1"},
		{Number: 2, Title: "Migrate", State: prs.StateMerged, Repository: "jenkinsci/b", CheckStatus: "SUCCESS"},
	}
	require.NoError(t, Write(context.Background(), paths, Result{Matched: matched}))

	_, err := os.Stat(paths.Found)
	assert.True(t, os.IsNotExist(err), "found file is skipped when nothing was found")

	groups, err := prs.LoadGroups(paths.Grouped)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Open)
	assert.Equal(t, 1, groups[0].Merged)

	failing, err := prs.LoadFailing(paths.Failing)
	require.NoError(t, err)
	assert.Equal(t, []prs.FailingPR{{Title: "Migrate", URL: "https://github.com/jenkinsci/a/pull/1", Status: "FAILURE"}}, failing)

	data, err := os.ReadFile(paths.Matched)
	require.NoError(t, err)
	var back []prs.PR
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Len(t, back, 2)
}
