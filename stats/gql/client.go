package gql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultEndpoint is the GitHub GraphQL API URL.
const DefaultEndpoint = "https://api.github.com/graphql"

// ErrRateAbuse is returned when GitHub answers with HTTP
// 403, the undocumented anti-abuse limit for bursts of
// history queries.
var ErrRateAbuse = errors.New(
	"github anti-abuse rate limit hit",
)

// Client posts GraphQL queries to the GitHub API and
// tracks per-query call counts. Safe for concurrent use.
type Client struct {
	endpoint string
	token    string
	hc       *retryablehttp.Client

	mu     sync.Mutex
	counts map[string]int
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint, mainly for
// tests against an httptest server.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithRetryMax sets the maximum number of HTTP retries
// for transient failures.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.hc.RetryMax = n
	}
}

// New returns a Client authenticated with the given
// personal access token.
func New(token string, opts ...Option) *Client {
	hc := retryablehttp.NewClient()
	hc.Logger = nil
	hc.RetryMax = 3
	hc.RetryWaitMin = time.Second
	hc.HTTPClient.Timeout = 30 * time.Second

	cl := &Client{
		endpoint: DefaultEndpoint,
		token:    token,
		hc:       hc,
		counts:   make(map[string]int),
	}

	for _, opt := range opts {
		opt(cl)
	}

	return cl
}

// payload is the GraphQL request body.
type payload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// envelope is the GraphQL response body. Data stays raw
// so callers decode into their own shapes.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Do sends the named query with variables and decodes
// the response data into out. The name is used for call
// counting and error reporting.
func (c *Client) Do(
	ctx context.Context,
	name string,
	query string,
	vars map[string]any,
	out any,
) error {
	const errCtx = "querying github graphql"

	c.count(name)

	body, err := json.Marshal(payload{
		Query:     query,
		Variables: vars,
	})
	if err != nil {
		return fmt.Errorf(
			"%s: %s: encode: %w", errCtx, name, err,
		)
	}

	req, err := retryablehttp.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf(
			"%s: %s: build request: %w",
			errCtx, name, err,
		)
	}

	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, name, err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, name, ErrRateAbuse,
		)
	}

	if resp.StatusCode != http.StatusOK {
		rb, _ := io.ReadAll(resp.Body)

		return fmt.Errorf(
			"%s: %s: status %d: %s",
			errCtx, name,
			resp.StatusCode, string(rb),
		)
	}

	var env envelope
	if err := json.NewDecoder(
		resp.Body,
	).Decode(&env); err != nil {
		return fmt.Errorf(
			"%s: %s: decode: %w", errCtx, name, err,
		)
	}

	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}

		return fmt.Errorf(
			"%s: %s: %s",
			errCtx, name, strings.Join(msgs, "; "),
		)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf(
			"%s: %s: decode data: %w",
			errCtx, name, err,
		)
	}

	return nil
}

// count increments the call counter for a query name.
func (c *Client) count(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[name]++
}

// Counts returns a copy of the per-query call counters.
func (c *Client) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}

	return out
}

// TotalCalls returns the total number of API calls made.
func (c *Client) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, v := range c.counts {
		total += v
	}

	return total
}

// CountNames returns the sorted query names seen so far.
func (c *Client) CountNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.counts))
	for k := range c.counts {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}
