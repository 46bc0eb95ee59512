package plugins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{"plugins":{
	"git":{"name":"git","title":"Git","popularity":300000,"scm":"https://github.com/jenkinsci/git-plugin"},
	"Mailer":{"title":"Mailer","popularity":250000,"scm":"https://github.com/jenkinsci/mailer-plugin.git"},
	"outside":{"name":"outside","popularity":999999,"scm":"https://gitlab.com/foo/outside"},
	"job-dsl":{"name":"job-dsl","popularity":250000,"scm":"https://github.com/jenkinsci/job-dsl-plugin/"}
}}`

func TestParse_PlainAndWrapped(t *testing.T) {
	for name, body := range map[string]string{
		"plain":   sample,
		"wrapped": "updateCenter.post(\n" + sample + "\n);",
	} {
		t.Run(name, func(t *testing.T) {
			r, err := Parse([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, 4, r.Len())

			p, ok := r.Lookup("MAILER")
			require.True(t, ok)
			assert.Equal(t, "Mailer", p.Name)
			assert.Equal(t, "jenkinsci/mailer-plugin", p.Repository())
		})
	}
}

func TestParse_BadWrapper(t *testing.T) {
	_, err := Parse([]byte("updateCenter.post(oops"))
	assert.Error(t, err)
}

func TestRegistry_InstallCount(t *testing.T) {
	r, err := Parse([]byte(sample))
	require.NoError(t, err)

	n, ok := r.InstallCount("jenkinsci/git")
	assert.True(t, ok)
	assert.Equal(t, 300000, n)

	n, ok = r.InstallCount("jenkinsci/git-plugin")
	assert.True(t, ok, "falls back to the SCM mapping")
	assert.Equal(t, 300000, n)

	_, ok = r.InstallCount("jenkinsci/unknown-plugin")
	assert.False(t, ok)
}

func TestRegistry_TopOnlyJenkinsci(t *testing.T) {
	r, err := Parse([]byte(sample))
	require.NoError(t, err)

	top := r.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, "git", top[0].Name)
	assert.Equal(t, "Mailer", top[1].Name, "ties broken by name")
	assert.Len(t, r.Top(0), 3)

	repos := r.Repositories()
	assert.Equal(t, "job-dsl", repos["job-dsl-plugin"].Name)
	assert.NotContains(t, repos, "outside")
}

const sharedRepo = `{"plugins":{
	"pipeline-model-definition":{"popularity":300000,"scm":"https://github.com/jenkinsci/pipeline-model-definition-plugin"},
	"pipeline-model-api":{"popularity":290000,"scm":"https://github.com/jenkinsci/pipeline-model-definition-plugin"},
	"pipeline-model-extensions":{"popularity":280000,"scm":"https://github.com/jenkinsci/pipeline-model-definition-plugin"},
	"pipeline-stage-tags-metadata":{"popularity":300000,"scm":"https://github.com/jenkinsci/pipeline-model-definition-plugin"},
	"git":{"popularity":100,"scm":"https://github.com/jenkinsci/git-plugin"}
}}`

func TestParse_SharedRepositoryIsDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		r, err := Parse([]byte(sharedRepo))
		require.NoError(t, err)

		n, ok := r.InstallCount("jenkinsci/pipeline-model-definition-plugin")
		require.True(t, ok)
		assert.Equal(t, 300000, n)

		p, ok := r.ByRepository("pipeline-model-definition-plugin")
		require.True(t, ok)
		assert.Equal(t, "pipeline-model-definition", p.Name, "lowest name wins a popularity tie")
		assert.Equal(t, "pipeline-model-definition", r.Repositories()["pipeline-model-definition-plugin"].Name)
	}
}

func TestRegistry_TopOneEntryPerRepository(t *testing.T) {
	r, err := Parse([]byte(sharedRepo))
	require.NoError(t, err)

	top := r.Top(0)
	require.Len(t, top, 2)
	assert.Equal(t, "pipeline-model-definition", top[0].Name)
	assert.Equal(t, "git", top[1].Name)
	assert.Equal(t, 5, r.Len())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "plugins.json"))
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	p := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(p, []byte("[1,2"), 0o644))
	_, err = Load(p)
	assert.ErrorIs(t, err, pkgerrors.ErrParse)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("updateCenter.post(" + sample + ");"))
	}))
	defer srv.Close()

	r, err := Fetch(context.Background(), srv.Client(), srv.URL, retry.Policy{Attempts: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_NotFoundIsFatal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL, retry.Policy{Attempts: 3})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}
