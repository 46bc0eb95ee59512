package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"
)

// AuthTokenSource names where a token came from, for logging.
type AuthTokenSource string

const (
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceGitHubCL AuthTokenSource = "gh"
)

// ghTimeout bounds `gh auth token` when the caller set no deadline.
const ghTimeout = 5 * time.Second

type tokenLookup func(ctx context.Context) (string, error)

// ResolveAuthToken picks the token for collect and detect: the configured
// value, then GITHUB_TOKEN, then `gh auth token -h github.com`. An empty
// token with a nil error means none was found. The token is never logged.
func ResolveAuthToken(ctx context.Context, provided string) (token string, source AuthTokenSource, err error) {
	chain := []struct {
		source AuthTokenSource
		lookup tokenLookup
	}{
		{AuthTokenSourceExplicit, func(context.Context) (string, error) { return provided, nil }},
		{AuthTokenSourceEnv, func(context.Context) (string, error) { return os.Getenv("GITHUB_TOKEN"), nil }},
		{AuthTokenSourceGitHubCL, ghAuthToken("github.com")},
	}
	for _, s := range chain {
		tok, err := s.lookup(ctx)
		if err != nil {
			return "", "", err
		}
		if tok = strings.TrimSpace(tok); tok != "" {
			return tok, s.source, nil
		}
	}
	return "", "", nil
}

// ghAuthToken asks the GitHub CLI for its token for host. A missing gh or
// a gh that is not logged in yields no token.
func ghAuthToken(host string) tokenLookup {
	return func(ctx context.Context) (string, error) {
		if _, err := exec.LookPath("gh"); err != nil {
			return "", nil
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, ghTimeout)
			defer cancel()
		}

		cmd := exec.CommandContext(ctx, "gh", "auth", "token", "-h", host)
		env := slices.DeleteFunc(os.Environ(), func(kv string) bool {
			return strings.HasPrefix(kv, "GH_PAGER=")
		})
		cmd.Env = append(env, "GH_PAGER=cat")

		out, err := cmd.Output()
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case err != nil:
			// Output is dropped since it may echo credentials.
			return "", nil
		}
		tok := strings.TrimSpace(string(out))
		if strings.ContainsAny(tok, " \t\n\r") {
			return "", errors.New("invalid token returned by gh: contains whitespace")
		}
		return tok, nil
	}
}
