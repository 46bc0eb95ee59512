package github

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	pkgerrors "jdk25tracker/internal/errors"

	"github.com/google/go-github/v81/github"
)

// PullRequest is a JDK 25 pull request found in a plugin repository.
type PullRequest struct {
	Number    int
	URL       string
	Title     string
	State     string
	Author    string
	Draft     bool
	Merged    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether the pull request is still open.
func (p PullRequest) Open() bool { return p.State == "open" }

var jdk25Title = regexp.MustCompile(`(?i)\b(jdk|java)[\s_-]*25\b`)

// MentionsJDK25 reports whether a PR title is about Java 25.
func MentionsJDK25(title string) bool { return jdk25Title.MatchString(title) }

func splitRepo(repository string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", pkgerrors.NewValidationError("repository", repository, "expected owner/name")
	}
	return owner, name, nil
}

// Jenkinsfile returns the Jenkinsfile at the root of the default branch.
// found is false when the repository has none.
func (c *Client) Jenkinsfile(ctx context.Context, repository string) (content string, found bool, err error) {
	owner, name, err := splitRepo(repository)
	if err != nil {
		return "", false, err
	}
	if err := c.Budget.Acquire(ctx, 1); err != nil {
		return "", false, err
	}
	file, _, resp, err := c.REST.Repositories.GetContents(ctx, owner, name, "Jenkinsfile", nil)
	c.Budget.Track(resp)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return "", false, nil
		}
		return "", false, wrapError("get Jenkinsfile of "+repository, err)
	}
	if file == nil {
		// A directory named Jenkinsfile.
		return "", false, nil
	}
	content, err = file.GetContent()
	if err != nil {
		return "", false, fmt.Errorf("decode Jenkinsfile of %s: %w", repository, err)
	}
	return content, true, nil
}

// JDK25PullRequests searches a repository for pull requests whose title
// mentions JDK 25 or Java 25. Closed results are resolved to learn whether
// they were merged.
func (c *Client) JDK25PullRequests(ctx context.Context, repository string) ([]PullRequest, error) {
	owner, name, err := splitRepo(repository)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`repo:%s is:pr in:title jdk25 OR "jdk 25" OR "java 25"`, repository)
	opts := &github.SearchOptions{Sort: "created", Order: "desc", ListOptions: github.ListOptions{PerPage: 100}}

	var out []PullRequest
	for {
		if err := c.Budget.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		result, resp, err := c.REST.Search.Issues(ctx, query, opts)
		c.Budget.Track(resp)
		if err != nil {
			return nil, wrapError("search pull requests of "+repository, err)
		}
		for _, issue := range result.Issues {
			if !issue.IsPullRequest() || !MentionsJDK25(issue.GetTitle()) {
				continue
			}
			out = append(out, PullRequest{
				Number:    issue.GetNumber(),
				URL:       issue.GetHTMLURL(),
				Title:     issue.GetTitle(),
				State:     issue.GetState(),
				Author:    issue.GetUser().GetLogin(),
				Draft:     issue.GetDraft(),
				CreatedAt: issue.GetCreatedAt().Time,
				UpdatedAt: issue.GetUpdatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	for i := range out {
		if out[i].Open() {
			continue
		}
		merged, err := c.merged(ctx, owner, name, out[i].Number)
		if err != nil {
			return nil, err
		}
		out[i].Merged = merged
	}
	return out, nil
}

func (c *Client) merged(ctx context.Context, owner, name string, number int) (bool, error) {
	if err := c.Budget.Acquire(ctx, 1); err != nil {
		return false, err
	}
	pr, resp, err := c.REST.PullRequests.Get(ctx, owner, name, number)
	c.Budget.Track(resp)
	if err != nil {
		return false, wrapError(fmt.Sprintf("get pull request %s/%s#%d", owner, name, number), err)
	}
	return pr.GetMerged(), nil
}
