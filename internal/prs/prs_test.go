package prs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgerrors "jdk25tracker/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }

func TestGroupByTitle(t *testing.T) {
	input := []PR{
		{Number: 1, Title: "Use JUnit 5", State: StateMerged, CreatedAt: day(3), UpdatedAt: day(4)},
		{Number: 2, Title: "Require Java 17", State: StateOpen, CreatedAt: day(1), UpdatedAt: day(9)},
		{Number: 3, Title: "Use JUnit 5", State: StateClosed, CreatedAt: day(5), UpdatedAt: day(6)},
		{Number: 4, Title: "Bump parent", State: StateOpen, CreatedAt: day(2), UpdatedAt: day(2)},
	}
	groups := GroupByTitle(input)

	require.Len(t, groups, 3)
	assert.Equal(t, "Use JUnit 5", groups[0].Title)
	assert.Equal(t, 1, groups[0].Merged)
	assert.Equal(t, 1, groups[0].Closed)
	assert.Equal(t, []int{1, 3}, []int{groups[0].PRs[0].Number, groups[0].PRs[1].Number})
	assert.Equal(t, "Bump parent", groups[1].Title)
	assert.Equal(t, "Require Java 17", groups[2].Title)

	s := Summarize(groups)
	assert.Equal(t, Summary{Total: 4, Open: 2, Closed: 1, Merged: 1, Earliest: day(1), Latest: day(9)}, s)
}

func TestSheetNames_Unique(t *testing.T) {
	names := NewSheetNames("Summary", "Failing PRs")
	assert.Equal(t, "Summary_2", names.Unique("Summary"))
	assert.Equal(t, "Java_25", names.Unique("Java 25"))
	assert.Equal(t, "Java_25_2", names.Unique("Java_25"))
	assert.Equal(t, "java_25_3", names.Unique("java 25"), "case-insensitive")
	assert.Equal(t, "Untitled", names.Unique("[]"))

	long := strings.Repeat("x", MaxSheetName)
	first := names.Unique(long)
	second := names.Unique(long)
	assert.Equal(t, long, first)
	assert.Len(t, second, MaxSheetName)
	assert.Equal(t, "_2", second[len(second)-2:])
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "Use_JUnit_5_feat", SanitizeSheetName("Use JUnit 5 [feat]"))
	assert.Equal(t, "ab", SanitizeSheetName(`a/\*?:b`))

	long := strings.Repeat("Migrate to the new parent POM ", 10)
	got := SanitizeSheetName(long)
	assert.Len(t, []rune(got), MaxSheetName)
	assert.Equal(t, got, SanitizeSheetName(long), "deterministic")
	assert.NotEqual(t, got, SanitizeSheetName(long+"x"))
	assert.Equal(t, "_", got[MaxSheetName-9:MaxSheetName-8])
}

func TestLoadGroups(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "grouped.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"title":"T","prs":[{"number":1,"state":"OPEN","repository":"jenkinsci/a","createdAt":"2025-03-01T00:00:00Z","updatedAt":"2025-03-02T00:00:00Z"}],"open":1,"closed":0,"merged":0}]`), 0o644))

	groups, err := LoadGroups(p)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "https://github.com/jenkinsci/a/pull/1", groups[0].PRs[0].Link())

	_, err = LoadGroups(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestFailingRoundTrip(t *testing.T) {
	collected := []PR{
		{Title: "a", URL: "https://x/1", CheckStatus: "FAILURE"},
		{Title: "b", URL: "https://x/2", CheckStatus: "SUCCESS"},
		{Title: "c", URL: "https://x/3", CheckStatus: "ERROR"},
	}
	data, err := json.Marshal(FailingDocument(collected))
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "failing-prs.json")
	require.NoError(t, os.WriteFile(p, data, 0o644))

	got, err := LoadFailing(p)
	require.NoError(t, err)
	assert.Equal(t, []FailingPR{
		{Title: "a", URL: "https://x/1", Status: "FAILURE"},
		{Title: "c", URL: "https://x/3", Status: "ERROR"},
	}, got)
}

func TestLoadFailing_Shape(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"errors":[]}`), 0o644))
	_, err := LoadFailing(p)
	assert.ErrorIs(t, err, ErrUnexpectedShape)

	require.NoError(t, os.WriteFile(p, []byte(`{"data":{"search":{"nodes":[{"title":"t","url":"u","commits":{"nodes":[]}}]}}}`), 0o644))
	got, err := LoadFailing(p)
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN", got[0].Status)
}
