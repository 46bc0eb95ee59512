package csvfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgerrors "jdk25tracker/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "\ufeffName,Installation Count,Java 25 pull request\n" +
	"git,300000,https://github.com/jenkinsci/git-plugin/pull/10\n" +
	"mailer,250000,\n" +
	"\"Credentials, Binding\",1000,u,extra\n" +
	"short\n"

func TestParse(t *testing.T) {
	tbl, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "Name", tbl.Header[0])
	require.Len(t, tbl.Rows, 4)
	assert.Equal(t, []string{"Credentials, Binding", "1000", "u"}, tbl.Rows[2])
	assert.Equal(t, []string{"short", "", ""}, tbl.Rows[3])
	assert.Equal(t, 2, tbl.Column("java 25 pull request"))
	assert.Equal(t, -1, tbl.Column("Notes"))
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestFilter(t *testing.T) {
	tbl, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	got, err := tbl.Filter("Java 25 pull request")
	require.NoError(t, err)
	assert.Len(t, got.Rows, 2)

	_, err = tbl.Filter("Notes")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "t.csv")
	rows := [][]string{{"a,b", "1"}, {`say "hi"`, ""}}
	require.NoError(t, Write(path, []string{"Name", "Count"}, rows))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Count"}, tbl.Header)
	assert.Equal(t, rows, tbl.Rows)
}

func TestEncode_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	rows := [][]string{{"x", "1"}, {"y", "2"}}
	require.NoError(t, Encode(&a, []string{"k", "v"}, rows))
	require.NoError(t, Encode(&b, []string{"k", "v"}, rows))
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, "k,v\nx,1\ny,2\n", a.String())
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, pkgerrors.IsNotFound(err))

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err = Read(path)
	assert.ErrorIs(t, err, pkgerrors.ErrParse)
}
