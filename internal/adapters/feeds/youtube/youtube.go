// Package youtube fetches podcast-like videos from the YouTube Data API.
// Search results are filtered by title and description keywords; YouTube has
// no podcast type of its own.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bymedia/echoboard/internal/adapters/feeds"
	"github.com/bymedia/echoboard/internal/domain/identity"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/logger"
	"github.com/bymedia/echoboard/pkg/metrics"
)

const (
	sourceName     = "youtube"
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultTimeout = 30 * time.Second
	watchURLPrefix = "https://www.youtube.com/watch?v="
)

// podcastKeywords gate which search hits count as podcast content.
var podcastKeywords = []string{"podcast", "episode", "interview", "talk", "discussion", "show"}

// Client talks to the YouTube Data API.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	http       *http.Client
	log        logger.Logger
}

// New creates a Client. The API key is required.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("youtube: %w: api key", feeds.ErrMissingCredential)
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxResults: 10,
		http:       &http.Client{Timeout: defaultTimeout},
		log:        logger.Get().Named("youtube"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name identifies the source.
func (c *Client) Name() string { return sourceName }

// Search returns podcast-like videos matching query. Non-podcast hits and
// hits without a video id are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]model.Episode, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query+" podcast")
	params.Set("type", "video")
	params.Set("key", c.apiKey)
	params.Set("maxResults", strconv.Itoa(c.maxResults))

	var payload struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				PublishedAt string `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/search?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	metrics.RecordFetchLatency(sourceName, float64(time.Since(start).Milliseconds()))

	episodes := make([]model.Episode, 0, len(payload.Items))
	for _, item := range payload.Items {
		if !isPodcastVideo(item.Snippet.Title, item.Snippet.Description) {
			continue
		}

		link := ""
		if item.ID.VideoID != "" {
			link = watchURLPrefix + item.ID.VideoID
		}
		id, err := identity.Resolve(identity.Source{NativeID: item.ID.VideoID, Link: link})
		if err != nil {
			c.log.Warn(ctx, "dropping search hit without video id",
				logger.String("title", item.Snippet.Title))
			metrics.RecordEpisodeDropped(sourceName)
			continue
		}

		episodes = append(episodes, model.Episode{
			Identity:  id,
			Title:     item.Snippet.Title,
			Published: parsePublishedAt(item.Snippet.PublishedAt),
			Link:      link,
			Duration:  model.DurationUnknown,
			Summary:   item.Snippet.Description,
			Source:    sourceName,
		})
		metrics.RecordEpisodeFetched(sourceName)
	}
	return episodes, nil
}

// Comments returns up to maxComments top-level comments for a video.
func (c *Client) Comments(ctx context.Context, videoID string, maxComments int) ([]string, error) {
	if maxComments <= 0 {
		maxComments = 5
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("videoId", videoID)
	params.Set("key", c.apiKey)
	params.Set("maxResults", strconv.Itoa(maxComments))
	params.Set("textFormat", "plainText")

	var payload struct {
		Items []struct {
			Snippet struct {
				TopLevelComment struct {
					Snippet struct {
						TextDisplay string `json:"textDisplay"`
					} `json:"snippet"`
				} `json:"topLevelComment"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/commentThreads?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	comments := make([]string, 0, len(payload.Items))
	for _, item := range payload.Items {
		comments = append(comments, item.Snippet.TopLevelComment.Snippet.TextDisplay)
	}
	return comments, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", feeds.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: youtube responded %d", feeds.ErrSourceUnavailable, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isPodcastVideo(title, description string) bool {
	combined := strings.ToLower(title + " " + description)
	for _, keyword := range podcastKeywords {
		if strings.Contains(combined, keyword) {
			return true
		}
	}
	return false
}

func parsePublishedAt(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
