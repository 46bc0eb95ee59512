// Package plugins reads the Jenkins plugin registry: either a local
// plugins.json or the update-center document.
package plugins

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/naming"
)

// DefaultUpdateCenterURL serves the current update-center document.
const DefaultUpdateCenterURL = "https://updates.jenkins.io/current/update-center.actual.json"

const jsonpPrefix = "updateCenter.post("

// Plugin describes one registry entry.
type Plugin struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Popularity int    `json:"popularity"`
	SCM        string `json:"scm"`
}

// Repository returns the jenkinsci repository slug derived from SCM, or ""
// when the plugin is not hosted in the jenkinsci organization.
func (p Plugin) Repository() string {
	_, rest, ok := strings.Cut(p.SCM, "github.com/"+naming.Org+"/")
	if !ok {
		return ""
	}
	rest = strings.TrimSuffix(strings.TrimSuffix(rest, "/"), ".git")
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return naming.Org + "/" + rest
}

// Registry is a case-insensitive plugin lookup.
type Registry struct {
	byName map[string]Plugin
	byRepo map[string]Plugin
}

type document struct {
	Plugins map[string]Plugin `json:"plugins"`
}

// Parse decodes a registry document, with or without the JSONP wrapper.
func Parse(data []byte) (*Registry, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte(jsonpPrefix)) {
		start := bytes.IndexByte(data, '{')
		end := bytes.LastIndexByte(data, '}')
		if start < 0 || end <= start {
			return nil, errors.New("invalid update center wrapper")
		}
		data = data[start : end+1]
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	r := &Registry{
		byName: make(map[string]Plugin, len(doc.Plugins)),
		byRepo: make(map[string]Plugin, len(doc.Plugins)),
	}
	for name, p := range doc.Plugins {
		if p.Name == "" {
			p.Name = name
		}
		r.byName[naming.Lower(name)] = p
		if repo := p.Repository(); repo != "" {
			key := naming.Lower(repo)
			if cur, ok := r.byRepo[key]; !ok || outranks(p, cur) {
				r.byRepo[key] = p
			}
		}
	}
	return r, nil
}

// outranks orders plugins sharing a repository: the most installed one
// represents it, lowest name on ties.
func outranks(a, b Plugin) bool {
	if a.Popularity != b.Popularity {
		return a.Popularity > b.Popularity
	}
	return a.Name < b.Name
}

// Load reads a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.NewNotFoundError("file", path, err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, pkgerrors.NewParseError("plugin registry", path, err)
	}
	return r, nil
}

// Empty returns a registry with no plugins.
func Empty() *Registry {
	return &Registry{byName: map[string]Plugin{}, byRepo: map[string]Plugin{}}
}

// Len returns the number of plugins.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byName)
}

// Lookup finds a plugin by name, ignoring case.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	if r == nil {
		return Plugin{}, false
	}
	p, ok := r.byName[naming.Lower(name)]
	return p, ok
}

// ByRepository finds the plugin hosted in a repository slug.
func (r *Registry) ByRepository(repository string) (Plugin, bool) {
	if r == nil {
		return Plugin{}, false
	}
	if p, ok := r.byRepo[naming.Lower(repository)]; ok {
		return p, true
	}
	if !strings.Contains(repository, "/") {
		if p, ok := r.byRepo[naming.Lower(naming.Org+"/"+repository)]; ok {
			return p, true
		}
	}
	return Plugin{}, false
}

// InstallCount returns the popularity recorded for a repository. The
// repository name without the jenkinsci/ prefix is tried as a plugin name
// first, then the SCM mapping.
func (r *Registry) InstallCount(repository string) (int, bool) {
	if p, ok := r.Lookup(naming.StripOrg(repository)); ok {
		return p.Popularity, true
	}
	if p, ok := r.ByRepository(repository); ok {
		return p.Popularity, true
	}
	return 0, false
}

// Top returns up to n jenkinsci repositories by descending popularity of
// the plugin representing each, ties broken by name. A repository hosting
// several plugins appears once. n <= 0 returns all of them.
func (r *Registry) Top(n int) []Plugin {
	if r == nil {
		return nil
	}
	out := make([]Plugin, 0, len(r.byRepo))
	for _, p := range r.byRepo {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return outranks(out[i], out[j]) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Repositories maps repository names (without organization) to plugins.
func (r *Registry) Repositories() map[string]Plugin {
	out := make(map[string]Plugin)
	if r == nil {
		return out
	}
	for repo, p := range r.byRepo {
		out[naming.RepoName(repo)] = p
	}
	return out
}
