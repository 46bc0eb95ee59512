package detect

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"jdk25tracker/internal/github"
	"jdk25tracker/internal/plugins"
	"jdk25tracker/internal/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files    map[string]string
	prs      map[string][]github.PullRequest
	failing  map[string]error
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSource) Jenkinsfile(_ context.Context, repo string) (string, bool, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if err := f.failing[repo]; err != nil {
		return "", false, err
	}
	content, ok := f.files[repo]
	return content, ok, nil
}

func (f *fakeSource) JDK25PullRequests(_ context.Context, repo string) ([]github.PullRequest, error) {
	return f.prs[repo], nil
}

var created = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

func TestUsesJDK25(t *testing.T) {
	for content, want := range map[string]bool{
		"buildPlugin(configurations: [[platform: 'linux', jdk: 25]])": true,
		`buildPlugin(configurations: [[jdk: "25"]])`:                  true,
		"jdk:25":                 true,
		"jdk: 21":                false,
		"jdk: 250":               false,
		"buildPlugin(useContainerAgent: true)": false,
	} {
		assert.Equal(t, want, UsesJDK25(content), content)
	}
}

func TestPickPR(t *testing.T) {
	_, ok := PickPR(nil)
	assert.False(t, ok)

	older := github.PullRequest{Number: 1, CreatedAt: created, Merged: true}
	newer := github.PullRequest{Number: 2, CreatedAt: created.AddDate(0, 1, 0), State: "open"}
	newest := github.PullRequest{Number: 3, CreatedAt: created.AddDate(0, 2, 0), State: "closed"}

	pr, ok := PickPR([]github.PullRequest{newer, older, newest})
	require.True(t, ok)
	assert.Equal(t, 1, pr.Number, "merged wins over recency")

	pr, _ = PickPR([]github.PullRequest{newer, newest})
	assert.Equal(t, 3, pr.Number, "most recent without a merged PR")

	tieA := github.PullRequest{Number: 8, CreatedAt: created}
	tieB := github.PullRequest{Number: 5, CreatedAt: created}
	pr, _ = PickPR([]github.PullRequest{tieA, tieB})
	assert.Equal(t, 5, pr.Number)
}

func pluginList(names ...string) []plugins.Plugin {
	out := make([]plugins.Plugin, 0, len(names))
	for _, n := range names {
		out = append(out, plugins.Plugin{Name: n, SCM: "https://github.com/jenkinsci/" + n + "-plugin"})
	}
	return out
}

func TestScan(t *testing.T) {
	src := &fakeSource{
		files: map[string]string{
			"jenkinsci/git-plugin":    "buildPlugin(configurations: [[jdk: 25]])",
			"jenkinsci/mailer-plugin": "buildPlugin(configurations: [[jdk: 21]])",
		},
		prs: map[string][]github.PullRequest{
			"jenkinsci/git-plugin": {
				{Number: 10, URL: "https://github.com/jenkinsci/git-plugin/pull/10", Merged: true, State: "closed", CreatedAt: created},
			},
			"jenkinsci/mailer-plugin": {
				{Number: 4, URL: "u4", Title: "Build on JDK 25", State: "open", Draft: true, Author: "alice", CreatedAt: created},
			},
		},
		failing: map[string]error{"jenkinsci/broken-plugin": errors.New("boom")},
	}
	list := append(pluginList("git", "mailer", "broken", "ant", "matrix-auth", "junit"), plugins.Plugin{Name: "external", SCM: "https://gitlab.com/x/y"})

	res, err := Scan(context.Background(), src, list, Options{Concurrency: 2})
	require.NoError(t, err)

	require.Len(t, res.Entries, 5)
	assert.Equal(t, "git", res.Entries[0].Plugin)
	assert.True(t, res.Entries[0].HasJDK25)
	assert.Equal(t, tracking.PullRequest{URL: "https://github.com/jenkinsci/git-plugin/pull/10", Number: 10, IsMerged: true}, res.Entries[0].PR)
	assert.False(t, res.Entries[1].HasJDK25)
	assert.Equal(t, 1, res.Compatible())

	require.Len(t, res.Open, 5)
	assert.False(t, res.Open[0].HasOpenPRs)
	assert.True(t, res.Open[1].HasOpenPRs)
	assert.Equal(t, "alice", res.Open[1].OpenPRs[0].Author.Login)
	assert.True(t, res.Open[1].OpenPRs[0].IsDraft)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "jenkinsci/broken-plugin", res.Failures[0].Repository)

	assert.LessOrEqual(t, src.peak.Load(), int32(2))
}

func TestScan_FailuresKeepInputOrder(t *testing.T) {
	src := &fakeSource{failing: map[string]error{
		"jenkinsci/zeta-plugin":  errors.New("boom"),
		"jenkinsci/alpha-plugin": errors.New("boom"),
		"jenkinsci/mid-plugin":   errors.New("boom"),
	}}
	for i := 0; i < 10; i++ {
		res, err := Scan(context.Background(), src, pluginList("zeta", "ok", "alpha", "mid"), Options{Concurrency: 4})
		require.NoError(t, err)
		require.Len(t, res.Failures, 3)
		assert.Equal(t, "jenkinsci/zeta-plugin", res.Failures[0].Repository)
		assert.Equal(t, "jenkinsci/alpha-plugin", res.Failures[1].Repository)
		assert.Equal(t, "jenkinsci/mid-plugin", res.Failures[2].Repository)
		require.Len(t, res.Entries, 1)
	}
}

func TestScan_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{failing: map[string]error{"jenkinsci/git-plugin": context.Canceled}}
	_, err := Scan(ctx, src, pluginList("git"), Options{Concurrency: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteAndReload(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 9, 16, 8, 0, 0, 0, time.UTC)
	res := Result{
		Entries: []tracking.Entry{{Plugin: "git", Repository: "jenkinsci/git-plugin", HasJDK25: true}},
		Open:    []tracking.OpenEntry{{Plugin: "git", Repository: "jenkinsci/git-plugin", OpenPRs: []tracking.OpenPR{}}},
	}
	trackingPath, openPath, err := Write(context.Background(), dir, now, res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "jdk25_tracking_with_prs_2025-09-16.json"), trackingPath)
	assert.Equal(t, filepath.Join(dir, "jdk25_open_prs_tracking_2025-09-16.json"), openPath)

	entries, err := tracking.LoadReport(trackingPath)
	require.NoError(t, err)
	assert.Equal(t, res.Entries, entries)

	open, err := tracking.LoadOpenPRs(openPath)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	matches, err := filepath.Glob(HistoryPattern(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{trackingPath}, matches)
}
