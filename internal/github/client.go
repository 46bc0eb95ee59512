package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jdk25tracker/internal/logging"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
	"github.com/rs/zerolog"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Client bundles the REST and GraphQL clients over one authenticated
// transport, and the request budget shared by both.
type Client struct {
	REST    *github.Client
	GraphQL *githubv4.Client
	HTTP    *http.Client
	Budget  *RequestBudget
}

type options struct {
	verbose bool
	logger  *zerolog.Logger
	baseURL string
	// secondary enables the secondary rate-limit waiter.
	secondary bool
	maxSleep  time.Duration
}

type Option func(*options)

// WithVerbose logs one debug line per request and response.
func WithVerbose(enabled bool, logger *zerolog.Logger) Option {
	return func(o *options) {
		o.verbose = enabled
		o.logger = logger
	}
}

// WithBaseURL points both clients at a GitHub Enterprise or test server.
// The REST base is used as given; GraphQL goes to the matching endpoint.
func WithBaseURL(raw string) Option {
	return func(o *options) { o.baseURL = raw }
}

// WithSecondaryRateLimit toggles sleeping on secondary rate limits, up to
// maxSleep per occurrence.
func WithSecondaryRateLimit(enabled bool, maxSleep time.Duration) Option {
	return func(o *options) {
		o.secondary = enabled
		o.maxSleep = maxSleep
	}
}

// loggingRoundTripper emits one debug event per request and response,
// including latency.
type loggingRoundTripper struct {
	base http.RoundTripper
	log  *zerolog.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.log.Debug().Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("github api request")
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.log.Debug().Err(err).Dur("latency", dur).Msg("github api error")
		return resp, err
	}
	t.log.Debug().
		Int("status", resp.StatusCode).
		Str("remaining", resp.Header.Get("X-RateLimit-Remaining")).
		Dur("latency", dur).
		Msg("github api response")
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{secondary: true, maxSleep: time.Hour}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.logger == nil {
		o.logger = logging.FromContext(ctx)
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, log: o.logger}
	}
	if o.secondary {
		waiter, err := github_ratelimit.NewRateLimitWaiter(transport, github_ratelimit.WithSingleSleepLimit(o.maxSleep, nil))
		if err != nil {
			return nil, fmt.Errorf("github client: rate limit waiter: %w", err)
		}
		transport = waiter
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	// Always provide an http.Client so verbose logging works even without a token.
	tc := &http.Client{Transport: transport}

	c := &Client{
		REST:    github.NewClient(tc),
		GraphQL: githubv4.NewClient(tc),
		HTTP:    tc,
		Budget:  NewRequestBudget(),
	}
	if o.baseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github client: base url: %w", err)
		}
		c.REST.BaseURL = base
		c.REST.UploadURL = base
		c.GraphQL = githubv4.NewEnterpriseClient(graphqlEndpoint(base).String(), tc)
	}
	return c, nil
}

// graphqlEndpoint derives the GraphQL URL from a REST base: host-root
// /graphql for github.com style bases, /api/graphql for /api/v3 bases.
func graphqlEndpoint(base *url.URL) *url.URL {
	u := *base
	u.RawQuery = ""
	u.Fragment = ""
	path := strings.TrimSuffix(u.Path, "/")
	if strings.HasSuffix(path, "/api/v3") {
		u.Path = strings.TrimSuffix(path, "/v3") + "/graphql"
		return &u
	}
	u.Path = path + "/graphql"
	return &u
}
