package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/retry"
)

// Fetch downloads and parses the update-center document. Server errors and
// rate limits are retried under policy.
func Fetch(ctx context.Context, client *http.Client, url string, policy retry.Policy) (*Registry, error) {
	if client == nil {
		client = http.DefaultClient
	}
	policy.Retryable = func(err error) bool {
		return pkgerrors.IsRateLimited(err) || isServerError(err)
	}

	body, err := retry.Value(ctx, policy, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, &pkgerrors.APIError{Service: "update center", Message: err.Error(), Err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, &pkgerrors.APIError{Service: "update center", StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch update center %s: %w", url, err)
	}

	r, err := Parse(body)
	if err != nil {
		return nil, pkgerrors.NewParseError("update center", url, err)
	}
	logging.FromContext(ctx).Info().Int("plugins", r.Len()).Str("url", url).Msg("Fetched update center")
	return r, nil
}

func isServerError(err error) bool {
	var apiErr *pkgerrors.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 0 || apiErr.StatusCode >= 500
}
