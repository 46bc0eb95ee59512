package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "jdk25tracker/internal/errors"

	"github.com/google/go-github/v81/github"
)

const service = "GitHub"

// wrapError converts go-github failures into APIError so callers can test
// them with errors.Is against ErrNotFound and ErrRateLimited.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	apiErr := &pkgerrors.APIError{Service: service, Message: Describe(err, false), Err: err}

	var rl *github.RateLimitError
	var abuse *github.AbuseRateLimitError
	var er *github.ErrorResponse
	switch {
	case errors.As(err, &rl):
		apiErr.StatusCode = http.StatusForbidden
		apiErr.Reason = "rate limit"
	case errors.As(err, &abuse):
		apiErr.StatusCode = http.StatusForbidden
		apiErr.Reason = "secondary rate limit"
	case errors.As(err, &er) && er.Response != nil:
		apiErr.StatusCode = er.Response.StatusCode
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}

// Describe renders err for logs without the request URL go-github puts in
// front of its messages. verbose returns the full text.
func Describe(err error, verbose bool) string {
	if err == nil {
		return ""
	}
	full := err.Error()
	if verbose {
		return full
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		if msg == "" {
			msg = "GitHub API request failed"
		}
		if er.Response != nil {
			code := er.Response.StatusCode
			return fmt.Sprintf("GitHub API request failed (%d %s): %s", code, http.StatusText(code), msg)
		}
		return "GitHub API request failed: " + msg
	}
	if scrubbed := scrubRequest(strings.TrimSpace(full)); scrubbed != "" {
		return scrubbed
	}
	return full
}

// scrubRequest drops a leading "GET https://...: " from go-github errors.
func scrubRequest(s string) string {
	for _, m := range []string{"GET ", "POST ", "PUT ", "PATCH ", "DELETE "} {
		if !strings.HasPrefix(s, m) {
			continue
		}
		if i := strings.Index(s, "https://"); i >= 0 {
			if j := strings.Index(s[i:], ": "); j >= 0 {
				return strings.TrimSpace(s[i+j+2:])
			}
		}
		if j := strings.Index(s, ": "); j >= 0 {
			return strings.TrimSpace(s[j+2:])
		}
		break
	}
	return ""
}
