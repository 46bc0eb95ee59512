package publish

import (
	"context"
	"testing"
	"time"

	"jdk25tracker/internal/plugins"
	"jdk25tracker/internal/prs"
	"jdk25tracker/internal/reconcile"
	"jdk25tracker/internal/sheets"
	"jdk25tracker/internal/sheets/sheetstest"
	"jdk25tracker/internal/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 9, 16, 10, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func compatible(plugin, repo, url string, merged bool) tracking.Entry {
	return tracking.Entry{Plugin: plugin, Repository: repo, HasJDK25: true, PR: tracking.PullRequest{URL: url, IsMerged: merged}}
}

func TestHyperlink_EscapesQuotes(t *testing.T) {
	assert.Equal(t, `=HYPERLINK("#gid=7"; "say ""hi""")`, SheetLink(7, `say "hi"`))
}

func TestStatisticsRows(t *testing.T) {
	rows := StatisticsRows(reconcile.Stats{Scanned: 200, Compatible: 50, WithPR: 20, Merged: 5}, nil, false, now)

	require.Len(t, rows, 9)
	assert.Equal(t, []string{"Metric", "Count", "Percentage", "", ""}, rows[0])
	assert.Equal(t, []string{"Total Plugins Scanned", "200", "100.00%", "", ""}, rows[1])
	assert.Equal(t, "25.00%", rows[4][2])
	assert.Equal(t, "40.00%", rows[5][2])
	assert.Equal(t, "10.00%", rows[6][2])
	assert.Equal(t, []string{"Last Updated", "2025-09-16 10:30:00", "", "", ""}, rows[8])
}

func TestStatisticsRows_ZeroDenominators(t *testing.T) {
	rows := StatisticsRows(reconcile.Stats{}, nil, false, now)
	assert.Equal(t, "0.00%", rows[4][2])
	assert.Equal(t, "0.00%", rows[5][2])
}

func TestStatisticsRows_OpenPRAges(t *testing.T) {
	open := []OpenPRRow{{DaysOpen: 10, Draft: true}, {DaysOpen: 2}, {DaysOpen: 4}}
	rows := StatisticsRows(reconcile.Stats{}, open, true, now)

	require.Len(t, rows, 16)
	assert.Equal(t, []string{"Open PRs", "3", "", "", ""}, rows[9])
	assert.Equal(t, []string{"Draft PRs", "1", "33.33%", "", ""}, rows[10])
	assert.Equal(t, "4.0", rows[11][1])
	assert.Equal(t, "5.3", rows[12][1])
	assert.Equal(t, "10", rows[13][1])
}

func TestFlattenOpenPRs(t *testing.T) {
	entries := []tracking.OpenEntry{
		{Plugin: "git", Repository: "jenkinsci/git-plugin", HasOpenPRs: true, OpenPRs: []tracking.OpenPR{
			{Number: 1, URL: "u1", Title: "new", CreatedAt: now.AddDate(0, 0, -1), Author: tracking.Author{Login: "alice"}},
			{Number: 2, URL: "u2", Title: "old", IsDraft: true, CreatedAt: now.AddDate(0, 0, -30)},
		}},
		{Plugin: "mailer", HasOpenPRs: false, OpenPRs: []tracking.OpenPR{{Number: 3}}},
	}

	rows := FlattenOpenPRs(entries, now)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, []string{"git", "jenkinsci/git-plugin", "1", "u1", "new", "No", "alice", "2025-09-15", "1"}, rows[1].Cells())
	assert.Equal(t, "Yes", rows[0].Cells()[5])
}

func TestUpdateProgress(t *testing.T) {
	ss := sheetstest.New("Java 25 compatibility progress")
	ss.Seed("Java 25 compatibility progress", [][]string{
		{"Name", "Installation Count", "Java 25 pull request", "Is merged?"},
		{"git", "300000", "", ""},
	})
	reg, err := plugins.Parse([]byte(`{"plugins":{"mailer":{"popularity":1234,"scm":"https://github.com/jenkinsci/mailer-plugin"}}}`))
	require.NoError(t, err)

	pub := New(ss, Options{Now: fixedNow})
	report, err := pub.UpdateProgress(context.Background(), ProgressInput{
		Entries: []tracking.Entry{
			compatible("git", "jenkinsci/git-plugin", "https://github.com/jenkinsci/git-plugin/pull/10", true),
			compatible("mailer", "jenkinsci/mailer-plugin", "", false),
		},
		Registry: reg,
		OpenPRs: []tracking.OpenEntry{{
			Plugin: "mailer", Repository: "jenkinsci/mailer-plugin", HasOpenPRs: true,
			OpenPRs: []tracking.OpenPR{{Number: 5, URL: "https://github.com/jenkinsci/mailer-plugin/pull/5", IsDraft: true, CreatedAt: now.AddDate(0, 0, -3)}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.RowsUpdated)
	assert.Equal(t, 1, report.Stats.RowsAdded)
	assert.Len(t, report.Open, 1)

	main := ss.Tab("Java 25 compatibility progress")
	require.NotNil(t, main)
	assert.Equal(t, "Installation Count (September 2025)", main.Cells[0][1])
	assert.Equal(t, []string{"git", "300000", "https://github.com/jenkinsci/git-plugin/pull/10", "=TRUE()"}, main.Cells[1])
	assert.Equal(t, []string{"mailer", "1234", "", ""}, main.Cells[2])
	assert.Equal(t, 1, main.Frozen)
	require.NotEmpty(t, main.Styles)
	assert.True(t, main.Styles[0].Bold)

	stats := ss.Tab("Statistics")
	require.NotNil(t, stats)
	assert.Equal(t, "2", stats.Cells[4][1])

	open := ss.Tab("Open JDK 25 PRs")
	require.NotNil(t, open)
	assert.Equal(t, OpenPRHeader, open.Cells[0])
	assert.Equal(t, "Yes", open.Cells[1][5])
	require.Len(t, open.Styles, 2)
	assert.Equal(t, draftOrange, open.Styles[1].Background)
}

func TestUpdateProgress_MissingWorksheet(t *testing.T) {
	ss := sheetstest.New("Other")
	_, err := New(ss, Options{Now: fixedNow}).UpdateProgress(context.Background(), ProgressInput{Registry: plugins.Empty()})
	require.Error(t, err)
}

func TestUpdateProgress_RewritesStatistics(t *testing.T) {
	ss := sheetstest.New("Java 25 compatibility progress", "Statistics")
	ss.Seed("Java 25 compatibility progress", [][]string{{"Name"}})
	stale := make([][]string, 30)
	for i := range stale {
		stale[i] = []string{"stale"}
	}
	ss.Seed("Statistics", stale)

	_, err := New(ss, Options{Now: fixedNow}).UpdateProgress(context.Background(), ProgressInput{Registry: plugins.Empty()})
	require.NoError(t, err)

	stats := ss.Tab("Statistics")
	assert.Len(t, stats.Cells, 9)
	assert.Nil(t, ss.Tab("Open JDK 25 PRs"))
}

func groups() []prs.Group {
	return prs.GroupByTitle([]prs.PR{
		{Number: 1, Title: "Java 25", State: prs.StateMerged, Repository: "jenkinsci/git-plugin",
			CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Number: 2, Title: "Java 25", State: prs.StateOpen, Repository: "jenkinsci/mailer-plugin",
			CreatedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{Number: 3, Title: "Bump: parent/pom?", State: prs.StateClosed, Repository: "jenkinsci/ant-plugin"},
	})
}

func TestSummaryRows(t *testing.T) {
	g := groups()
	targets := []sheets.Worksheet{{ID: 11, Title: "Java_25"}, {ID: 12, Title: "Bump_parentpom"}}

	rows := SummaryRows(g, targets, nil, 0)
	assert.Equal(t, "2025-01-02 to 2025-04-01", rows[0][1])
	assert.Equal(t, []string{"Total PRs", "3", "", "", "", ""}, rows[2])
	assert.Equal(t, []string{"Open PRs", "1", "33.33%", "", "", ""}, rows[3])
	assert.Equal(t, "Plugin", rows[summaryTableRow][0])
	assert.Equal(t, []string{"Java 25", "2", "1", "0", "1", `=HYPERLINK("#gid=11"; "Java 25")`}, rows[summaryTableRow+1])
	assert.Equal(t, "No failing PRs data available", rows[len(rows)-1][5])

	rows = SummaryRows(g, targets, &sheets.Worksheet{ID: 20, Title: "Failing PRs"}, 4)
	assert.Equal(t, []string{"Failing PRs", "4", "", "", "", `=HYPERLINK("#gid=20"; "Failing PRs")`}, rows[len(rows)-1])
}

func TestSummaryRows_NoPRs(t *testing.T) {
	rows := SummaryRows(nil, nil, nil, 0)
	assert.Equal(t, "n/a", rows[0][1])
	assert.Equal(t, "0.00%", rows[3][2])
}

func TestGroupRows(t *testing.T) {
	rows := GroupRows(groups()[0], 3)
	require.Len(t, rows, 6)
	assert.Equal(t, `=HYPERLINK("#gid=3"; "Back to Summary")`, rows[0][1])
	assert.Equal(t, []string{"Java 25"}, rows[1])
	assert.Equal(t, groupHeader, rows[groupHeaderRow])
	assert.Equal(t, []string{
		`=HYPERLINK("https://github.com/jenkinsci/git-plugin"; "jenkinsci/git-plugin")`,
		`=HYPERLINK("https://github.com/jenkinsci/git-plugin/pull/1"; "1")`,
		"MERGED",
		"2025-01-02T00:00:00Z",
		"2025-02-01T00:00:00Z",
	}, rows[4])
}

func TestStateColor(t *testing.T) {
	assert.Equal(t, mergedGreen, StateColor(prs.StateMerged))
	assert.Equal(t, openAmber, StateColor(prs.StateOpen))
	assert.Equal(t, closedRed, StateColor(prs.StateClosed))
	assert.Equal(t, plainWhite, StateColor("DRAFT"))
}

func TestUploadGroups(t *testing.T) {
	ss := sheetstest.New("Sheet1")
	pub := New(ss, Options{Now: fixedNow})

	report, err := pub.UploadGroups(context.Background(), UploadInput{
		Groups:  groups(),
		Failing: []prs.FailingPR{{Title: "Java 25", URL: "https://github.com/jenkinsci/x/pull/1", Status: "FAILURE"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, "Bump_parentpom", report.Sheets["Bump: parent/pom?"])

	titles := ss.Titles()
	assert.Equal(t, "Summary", titles[0])
	assert.ElementsMatch(t, []string{"Summary", "Sheet1", "Java_25", "Bump_parentpom", "Failing PRs"}, titles)

	failing := ss.Tab("Failing PRs")
	require.NotNil(t, failing)
	assert.Equal(t, []string{"Title", "URL", "Status"}, failing.Cells[2])
	assert.Equal(t, "FAILURE", failing.Cells[3][2])

	group := ss.Tab("Java_25")
	require.NotNil(t, group)
	assert.Len(t, group.Cells, 6)
	last := group.Styles[len(group.Styles)-1]
	assert.Equal(t, openAmber, last.Background)
	assert.Equal(t, 5, last.Range.StartRow)
}

func TestUploadGroups_ReplacesStaleContent(t *testing.T) {
	ss := sheetstest.New("Java_25")
	stale := make([][]string, 20)
	for i := range stale {
		stale[i] = []string{"stale"}
	}
	ss.Seed("Java_25", stale)

	_, err := New(ss, Options{}).UploadGroups(context.Background(), UploadInput{Groups: groups()[:1]})
	require.NoError(t, err)
	assert.Len(t, ss.Tab("Java_25").Cells, 6)
	assert.Nil(t, ss.Tab("Failing PRs"))
}

func TestUploadGroups_TitleCollisions(t *testing.T) {
	ss := sheetstest.New()
	in := UploadInput{Groups: []prs.Group{
		{Title: "Summary", PRs: []prs.PR{{Number: 1, Title: "Summary", State: prs.StateOpen, Repository: "jenkinsci/a-plugin"}}, Open: 1},
		{Title: "Java 25", PRs: []prs.PR{{Number: 2, Title: "Java 25", State: prs.StateMerged, Repository: "jenkinsci/b-plugin"}}, Merged: 1},
		{Title: "Java_25", PRs: []prs.PR{{Number: 3, Title: "Java_25", State: prs.StateClosed, Repository: "jenkinsci/c-plugin"}}, Closed: 1},
	}}

	report, err := New(ss, Options{}).UploadGroups(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Summary": "Summary_2", "Java 25": "Java_25", "Java_25": "Java_25_2"}, report.Sheets)
	assert.ElementsMatch(t, []string{"Summary", "Summary_2", "Java_25", "Java_25_2"}, ss.Titles())

	summary := ss.Tab("Summary")
	require.NotNil(t, summary)
	assert.Equal(t, "PR Date Range", summary.Cells[0][0])
	assert.Equal(t, []string{"Java_25"}, ss.Tab("Java_25_2").Cells[1])

	links := map[string]bool{}
	for _, row := range summary.Cells[summaryTableRow+1 : summaryTableRow+4] {
		links[row[5]] = true
	}
	assert.Len(t, links, 3, "every group links to its own worksheet")
}
