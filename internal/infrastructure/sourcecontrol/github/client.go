// Package github provides a GitHub REST implementation of the SourceControlClient interface.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ersonp/comply-core/internal/infrastructure/config"
	"github.com/ersonp/comply-core/internal/infrastructure/pagination"
)

const (
	// DefaultBaseURL is the public GitHub API endpoint.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 30 * time.Second

	apiVersion = "2022-11-28"
	perPage    = 100
)

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s returned %d: %s", e.URL, e.StatusCode, e.Message)
}

// Client implements ports.SourceControlClient using the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new GitHub client.
func NewClient(cfg config.GitHubConfig, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("github token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing github base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// endpoint builds an absolute API URL from path segments and a query.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get performs a paced GET and decodes the JSON body into out. It returns
// the next page URL from the Link header, if any.
func (c *Client) get(ctx context.Context, rawURL string, out any) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newAPIError(resp, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("decoding %s: %w", rawURL, err)
	}

	return nextLink(resp.Header.Get("Link")), nil
}

func newAPIError(resp *http.Response, rawURL string) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg, URL: rawURL}
}

// nextLink extracts the rel="next" URL from a Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.Trim(target, "<>")
			}
		}
	}
	return ""
}

// pager adapts a list endpoint to the pagination package. The cursor is the
// next page URL; an empty cursor requests firstURL.
func pager[W, T any](c *Client, firstURL string, convert func(W) (T, bool)) pagination.FetchFunc[T] {
	return func(ctx context.Context, cursor string) (pagination.Page[T], error) {
		target := firstURL
		if cursor != "" {
			target = cursor
		}

		var wire []W
		next, err := c.get(ctx, target, &wire)
		if err != nil {
			return pagination.Page[T]{}, err
		}

		items := make([]T, 0, len(wire))
		for _, w := range wire {
			if item, ok := convert(w); ok {
				items = append(items, item)
			}
		}
		return pagination.Page[T]{Items: items, NextCursor: next}, nil
	}
}

func pageQuery(extra map[string]string) url.Values {
	q := url.Values{}
	q.Set("per_page", fmt.Sprint(perPage))
	for k, v := range extra {
		q.Set(k, v)
	}
	return q
}
