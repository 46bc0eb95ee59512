package github

import (
	"context"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"
)

// SearchResult is one pull request returned by a GraphQL search.
type SearchResult struct {
	Number    int
	Title     string
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
	URL       string
	Owner     string
	Repo      string
	Author    string
	Body      string
	Labels    []string
	// CheckState is the status rollup of the last commit, "" when unknown.
	CheckState string
}

// SearchPage is one page of search results.
type SearchPage struct {
	Results     []SearchResult
	HasNextPage bool
	EndCursor   string
}

type pullRequestNode struct {
	Number     int
	Title      string
	State      string
	CreatedAt  githubv4.DateTime
	UpdatedAt  githubv4.DateTime
	URL        string
	Repository struct {
		Name  string
		Owner struct {
			Login string
		}
	}
	Author struct {
		Login string
	}
	BodyText string
	Labels   struct {
		Nodes []struct {
			Name string
		}
	} `graphql:"labels(first: 100)"`
	Commits struct {
		Nodes []struct {
			Commit struct {
				StatusCheckRollup *struct {
					State string
				}
			}
		}
	} `graphql:"commits(last: 1)"`
}

type searchPullRequestsQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Nodes []struct {
			Typename    string          `graphql:"__typename"`
			PullRequest pullRequestNode `graphql:"... on PullRequest"`
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 100, after: $cursor)"`
}

// SearchPullRequests runs one page of an issue search and returns the pull
// requests on it. An empty cursor starts from the first page.
func (c *Client) SearchPullRequests(ctx context.Context, query, cursor string) (SearchPage, error) {
	variables := map[string]interface{}{
		"query":  githubv4.String(query),
		"cursor": (*githubv4.String)(nil),
	}
	if cursor != "" {
		variables["cursor"] = githubv4.NewString(githubv4.String(cursor))
	}

	var q searchPullRequestsQuery
	if err := c.GraphQL.Query(ctx, &q, variables); err != nil {
		return SearchPage{}, fmt.Errorf("search pull requests %q: %w", query, err)
	}

	page := SearchPage{
		HasNextPage: q.Search.PageInfo.HasNextPage,
		EndCursor:   string(q.Search.PageInfo.EndCursor),
	}
	for _, n := range q.Search.Nodes {
		if n.Typename != "" && n.Typename != "PullRequest" {
			continue
		}
		page.Results = append(page.Results, n.PullRequest.result())
	}
	return page, nil
}

func (n pullRequestNode) result() SearchResult {
	r := SearchResult{
		Number:    n.Number,
		Title:     n.Title,
		State:     n.State,
		CreatedAt: n.CreatedAt.Time,
		UpdatedAt: n.UpdatedAt.Time,
		URL:       n.URL,
		Owner:     n.Repository.Owner.Login,
		Repo:      n.Repository.Name,
		Author:    n.Author.Login,
		Body:      n.BodyText,
		Labels:    make([]string, 0, len(n.Labels.Nodes)),
	}
	for _, l := range n.Labels.Nodes {
		r.Labels = append(r.Labels, l.Name)
	}
	if len(n.Commits.Nodes) > 0 {
		if rollup := n.Commits.Nodes[0].Commit.StatusCheckRollup; rollup != nil {
			r.CheckState = rollup.State
		}
	}
	return r
}
