package spotify

import (
	"net/http"
	"time"

	"github.com/bymedia/echoboard/pkg/retry"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithTokenURL overrides the token endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(c *Client) {
		if tokenURL != "" {
			c.tokenURL = tokenURL
		}
	}
}

// WithPageSize sets the search page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithMaxResults caps how many search results are collected across pages.
func WithMaxResults(maxResults int) Option {
	return func(c *Client) {
		if maxResults > 0 {
			c.maxResults = maxResults
		}
	}
}

// WithThrottle sets the pause between search pages. Zero disables it.
func WithThrottle(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.throttle = d
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryPolicy overrides the retry policy used for API calls.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}
