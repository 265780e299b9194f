// Package rss fetches podcast episodes from an RSS/Atom feed.
package rss

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/bymedia/echoboard/internal/adapters/feeds"
	"github.com/bymedia/echoboard/internal/domain/identity"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/logger"
	"github.com/bymedia/echoboard/pkg/metrics"
)

const sourceName = "rss"

// Source polls a single feed URL.
type Source struct {
	feedURL string
	parser  *gofeed.Parser
	log     logger.Logger
}

// New creates an RSS source for the given feed URL.
func New(feedURL string, opts ...Option) (*Source, error) {
	if feedURL == "" {
		return nil, fmt.Errorf("rss: %w: feed url", feeds.ErrMissingCredential)
	}
	s := &Source{
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
		log:     logger.Get().Named("rss"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name implements feeds.Source.
func (s *Source) Name() string { return sourceName }

// Fetch parses the feed and maps items to episodes. Items without a guid or
// a link are dropped.
func (s *Source) Fetch(ctx context.Context) ([]model.Episode, error) {
	start := time.Now()
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed %s: %w", feeds.ErrSourceUnavailable, s.feedURL, err)
	}
	metrics.RecordFetchLatency(sourceName, float64(time.Since(start).Milliseconds()))

	episodes := make([]model.Episode, 0, len(feed.Items))
	for _, item := range feed.Items {
		id, err := identity.Resolve(identity.Source{NativeID: item.GUID, Link: item.Link})
		if err != nil {
			s.log.Warn(ctx, "dropping feed item without identity",
				logger.String("title", item.Title))
			metrics.RecordEpisodeDropped(sourceName)
			continue
		}

		episodes = append(episodes, model.Episode{
			Identity:  id,
			Title:     item.Title,
			Published: publishedAt(item),
			Link:      item.Link,
			Duration:  durationOf(item),
			Summary:   item.Description,
			Source:    sourceName,
		})
		metrics.RecordEpisodeFetched(sourceName)
	}
	return episodes, nil
}

func publishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func durationOf(item *gofeed.Item) string {
	if item.ITunesExt != nil && item.ITunesExt.Duration != "" {
		return item.ITunesExt.Duration
	}
	return model.DurationUnknown
}
