package feed

import "time"

// RssFeedResponse is the parsed form of a podcast RSS document. Pointer
// fields are nil when the element was absent from the feed.
type RssFeedResponse struct {
	Title       string
	Description string
	Summary     string
	ImageURL    string
	LastUpdated time.Time
	Episodes    []EpisodeResponse
}

type EpisodeResponse struct {
	Title       *string
	Link        *string
	Description *string
	GUID        *string
	PubDate     *string
	Duration    *string
	URL         *string
	Type        *string
}
