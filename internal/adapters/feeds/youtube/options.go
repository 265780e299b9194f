package youtube

import "net/http"

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

// WithMaxResults sets the search result cap.
func WithMaxResults(maxResults int) Option {
	return func(c *Client) {
		if maxResults > 0 {
			c.maxResults = maxResults
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
