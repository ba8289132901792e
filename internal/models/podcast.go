package models

import "time"

// Podcast represents a podcast feed. A podcast freshly parsed from a feed has
// a nil ID until it is persisted.
type Podcast struct {
	ID          *int64    `db:"id" json:"id,omitempty"`
	FeedURL     string    `db:"feed_url" json:"feed_url"`
	FeedTitle   string    `db:"feed_title" json:"feed_title"`
	FeedDesc    string    `db:"feed_desc" json:"feed_desc"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
	Episodes    []Episode `db:"-" json:"episodes,omitempty"`
}

// Saved reports whether the podcast has been assigned a store id.
func (p *Podcast) Saved() bool {
	return p.ID != nil
}
