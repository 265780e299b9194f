// Package spotify wraps the Spotify Web API podcast surface: client
// credentials auth, paginated show search and per-show episode listings.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bymedia/echoboard/internal/adapters/feeds"
	"github.com/bymedia/echoboard/internal/domain/identity"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/logger"
	"github.com/bymedia/echoboard/pkg/metrics"
	"github.com/bymedia/echoboard/pkg/retry"
)

const (
	sourceName      = "spotify"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTimeout  = 30 * time.Second
	defaultThrottle = 500 * time.Millisecond
)

// Show is one podcast show returned by search.
type Show struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Publisher     string `json:"publisher"`
	Description   string `json:"description"`
	TotalEpisodes int    `json:"total_episodes"`
}

// Client talks to the Spotify Web API.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	baseURL      string
	pageSize     int
	maxResults   int
	throttle     time.Duration
	http         *http.Client
	retry        retry.Policy
	log          logger.Logger

	// tokenMu serializes token reads and the refresh flow; the client is
	// shared by the poller and concurrent search handlers.
	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a Client. Client credentials are required.
func New(clientID, clientSecret string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil, fmt.Errorf("spotify: %w: client credentials", feeds.ErrMissingCredential)
	}
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		baseURL:      defaultBaseURL,
		pageSize:     20,
		maxResults:   100,
		throttle:     defaultThrottle,
		http:         &http.Client{Timeout: defaultTimeout},
		retry:        retry.New(),
		log:          logger.Get().Named("spotify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name identifies the source.
func (c *Client) Name() string { return sourceName }

// SearchShows pages through show search results for query, stopping at the
// configured result cap or the first short page.
func (c *Client) SearchShows(ctx context.Context, query string) ([]Show, error) {
	var all []Show
	offset := 0
	for offset < c.maxResults {
		page, err := c.searchPage(ctx, query, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		if len(page) < c.pageSize {
			break
		}
		offset += c.pageSize

		if c.throttle > 0 {
			select {
			case <-time.After(c.throttle):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return all, nil
}

func (c *Client) searchPage(ctx context.Context, query string, offset int) ([]Show, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "show")
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(offset))

	var payload struct {
		Shows struct {
			Items []Show `json:"items"`
		} `json:"shows"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/search?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	return payload.Shows.Items, nil
}

// ShowEpisodes returns the episodes of a show mapped into the domain model.
func (c *Client) ShowEpisodes(ctx context.Context, showID string) ([]model.Episode, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageSize))

	var payload struct {
		Items []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			ReleaseDate string `json:"release_date"`
			DurationMS  int    `json:"duration_ms"`
			ExternalURL struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	}
	endpoint := fmt.Sprintf("%s/shows/%s/episodes?%s", c.baseURL, url.PathEscape(showID), params.Encode())
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	metrics.RecordFetchLatency(sourceName, float64(time.Since(start).Milliseconds()))

	episodes := make([]model.Episode, 0, len(payload.Items))
	for _, item := range payload.Items {
		id, err := identity.Resolve(identity.Source{NativeID: item.ID, Link: item.ExternalURL.Spotify})
		if err != nil {
			c.log.Warn(ctx, "dropping episode without identity",
				logger.String("show", showID),
				logger.String("title", item.Name))
			metrics.RecordEpisodeDropped(sourceName)
			continue
		}

		episodes = append(episodes, model.Episode{
			Identity:  id,
			Title:     item.Name,
			Published: parseReleaseDate(item.ReleaseDate),
			Link:      item.ExternalURL.Spotify,
			Duration:  formatDuration(item.DurationMS),
			Summary:   item.Description,
			Source:    sourceName,
		})
		metrics.RecordEpisodeFetched(sourceName)
	}
	return episodes, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return c.retry.Do(ctx, func(ctx context.Context) error {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", feeds.ErrSourceUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("%w: spotify responded %d: %s",
				feeds.ErrSourceUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// accessToken returns a cached token, refreshing via the client credentials
// flow when absent or near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token: %w", feeds.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint responded %d", feeds.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", feeds.ErrSourceUnavailable)
	}

	c.token = payload.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return c.token, nil
}

func parseReleaseDate(raw string) time.Time {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatDuration(ms int) string {
	if ms <= 0 {
		return model.DurationUnknown
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
