package models

import "time"

// Episode is a single item of a podcast feed. PodcastID stays nil until the
// parent podcast has been saved and assigned an id.
type Episode struct {
	GUID        string    `db:"guid" json:"guid"`
	PodcastID   *int64    `db:"podcast_id" json:"podcast_id,omitempty"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	MediaURL    string    `db:"media_url" json:"media_url"`
	MimeType    string    `db:"mime_type" json:"mime_type"`
	ReleaseDate time.Time `db:"release_date" json:"release_date"`
	Duration    string    `db:"duration" json:"duration"`
}
