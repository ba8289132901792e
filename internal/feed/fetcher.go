package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

// Fetcher downloads and parses podcast feeds.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher creates a Fetcher whose HTTP requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "PodPlay/1.0"
	return &Fetcher{parser: parser}
}

// GetFeed fetches feedURL and converts it to a RssFeedResponse.
func (f *Fetcher) GetFeed(ctx context.Context, feedURL string) (*RssFeedResponse, error) {
	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		log.WithFields(log.Fields{"feed_url": feedURL, "error": err}).Warn("feed fetch failed")
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}
	return fromGofeed(parsed), nil
}

func fromGofeed(parsed *gofeed.Feed) *RssFeedResponse {
	resp := &RssFeedResponse{
		Title:       parsed.Title,
		Description: parsed.Description,
		LastUpdated: lastUpdated(parsed),
	}

	if parsed.Image != nil {
		resp.ImageURL = parsed.Image.URL
	}
	if parsed.ITunesExt != nil {
		resp.Summary = parsed.ITunesExt.Summary
		if resp.ImageURL == "" {
			resp.ImageURL = parsed.ITunesExt.Image
		}
	}

	for _, item := range parsed.Items {
		resp.Episodes = append(resp.Episodes, episodeFromItem(item))
	}
	return resp
}

func episodeFromItem(item *gofeed.Item) EpisodeResponse {
	ep := EpisodeResponse{
		Title:       optional(item.Title),
		Link:        optional(item.Link),
		Description: optional(item.Description),
		GUID:        optional(item.GUID),
		PubDate:     optional(item.Published),
	}
	if len(item.Enclosures) > 0 {
		ep.URL = optional(item.Enclosures[0].URL)
		ep.Type = optional(item.Enclosures[0].Type)
	}
	if item.ITunesExt != nil {
		ep.Duration = optional(item.ITunesExt.Duration)
	}
	return ep
}

func lastUpdated(parsed *gofeed.Feed) time.Time {
	switch {
	case parsed.UpdatedParsed != nil:
		return *parsed.UpdatedParsed
	case parsed.PublishedParsed != nil:
		return *parsed.PublishedParsed
	default:
		return time.Now()
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
