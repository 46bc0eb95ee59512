package prs

import "errors"

// FailingPR is a PR whose last commit has a failing status rollup.
type FailingPR struct {
	Title  string
	URL    string
	Status string
}

// failingDocument mirrors the GraphQL search response the failing-PR file
// is saved as.
type failingDocument struct {
	Data *struct {
		Search *struct {
			Nodes []failingNode `json:"nodes"`
		} `json:"search"`
	} `json:"data"`
}

type failingNode struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Commits struct {
		Nodes []struct {
			Commit struct {
				StatusCheckRollup *struct {
					State string `json:"state"`
				} `json:"statusCheckRollup"`
			} `json:"commit"`
		} `json:"nodes"`
	} `json:"commits"`
}

// ErrUnexpectedShape is returned when a failing-PR file lacks data.search.nodes.
var ErrUnexpectedShape = errors.New("unexpected structure: missing data.search.nodes")

// LoadFailing reads a failing-PR file.
func LoadFailing(path string) ([]FailingPR, error) {
	var doc failingDocument
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	if doc.Data == nil || doc.Data.Search == nil {
		return nil, ErrUnexpectedShape
	}
	out := make([]FailingPR, 0, len(doc.Data.Search.Nodes))
	for _, n := range doc.Data.Search.Nodes {
		status := "UNKNOWN"
		if len(n.Commits.Nodes) > 0 && n.Commits.Nodes[0].Commit.StatusCheckRollup != nil {
			status = n.Commits.Nodes[0].Commit.StatusCheckRollup.State
		}
		out = append(out, FailingPR{Title: n.Title, URL: n.URL, Status: status})
	}
	return out, nil
}

// IsFailing reports whether a check status denotes a failure.
func IsFailing(status string) bool {
	return status == "FAILURE" || status == "ERROR"
}

// FailingDocument renders the failing PRs among prs in the shape
// LoadFailing reads.
func FailingDocument(prs []PR) any {
	type rollup struct {
		State string `json:"state"`
	}
	type commitNode struct {
		Commit struct {
			StatusCheckRollup rollup `json:"statusCheckRollup"`
		} `json:"commit"`
	}
	type node struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Commits struct {
			Nodes []commitNode `json:"nodes"`
		} `json:"commits"`
	}

	nodes := make([]node, 0)
	for _, p := range prs {
		if !IsFailing(p.CheckStatus) {
			continue
		}
		var n node
		n.Title = p.Title
		n.URL = p.Link()
		var c commitNode
		c.Commit.StatusCheckRollup.State = p.CheckStatus
		n.Commits.Nodes = []commitNode{c}
		nodes = append(nodes, n)
	}
	return map[string]any{"data": map[string]any{"search": map[string]any{"nodes": nodes}}}
}
