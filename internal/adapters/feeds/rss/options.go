package rss

import "net/http"

// Option applies a configuration option to the Source.
type Option func(*Source)

// WithHTTPClient overrides the HTTP client used to fetch the feed.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.parser.Client = client
		}
	}
}
