package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podplay/internal/feed"
)

func TestRssResponseToPodcast(t *testing.T) {
	t.Run("description falls back to summary", func(t *testing.T) {
		resp := testResponse("a")
		resp.Description = ""
		resp.Summary = "The summary"

		podcast := RssResponseToPodcast(testFeedURL, "", resp)
		require.NotNil(t, podcast)
		assert.Equal(t, "The summary", podcast.FeedDesc)
	})

	t.Run("description wins over summary", func(t *testing.T) {
		resp := testResponse("a")
		resp.Summary = "The summary"

		podcast := RssResponseToPodcast(testFeedURL, "", resp)
		assert.Equal(t, "About things", podcast.FeedDesc)
	})

	t.Run("no episodes yields nil", func(t *testing.T) {
		assert.Nil(t, RssResponseToPodcast(testFeedURL, "", testResponse()))
		assert.Nil(t, RssResponseToPodcast(testFeedURL, "", nil))
	})

	t.Run("image url", func(t *testing.T) {
		resp := testResponse("a")
		resp.ImageURL = "https://example.com/feed.jpg"

		assert.Equal(t, "https://example.com/given.jpg", RssResponseToPodcast(testFeedURL, "https://example.com/given.jpg", resp).ImageURL)
		assert.Equal(t, "https://example.com/feed.jpg", RssResponseToPodcast(testFeedURL, "", resp).ImageURL)
	})

	t.Run("unsaved podcast", func(t *testing.T) {
		podcast := RssResponseToPodcast(testFeedURL, "", testResponse("a"))
		assert.Nil(t, podcast.ID)
		assert.Equal(t, testFeedURL, podcast.FeedURL)
		assert.Equal(t, time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC), podcast.LastUpdated)
	})
}

func TestRssItemsToEpisodes(t *testing.T) {
	items := []feed.EpisodeResponse{
		{
			GUID:        strPtr("ep-1"),
			Title:       strPtr("Episode 1"),
			Description: strPtr("First"),
			URL:         strPtr("https://example.com/ep1.mp3"),
			Type:        strPtr("audio/mpeg"),
			PubDate:     strPtr("Thu, 11 Dec 2025 00:00:00 +0000"),
			Duration:    strPtr("12:34"),
		},
		{},
	}

	episodes := RssItemsToEpisodes(items)
	require.Len(t, episodes, 2)

	full := episodes[0]
	assert.Equal(t, "ep-1", full.GUID)
	assert.Equal(t, "Episode 1", full.Title)
	assert.Equal(t, "First", full.Description)
	assert.Equal(t, "https://example.com/ep1.mp3", full.MediaURL)
	assert.Equal(t, "audio/mpeg", full.MimeType)
	assert.Equal(t, "12:34", full.Duration)
	assert.True(t, full.ReleaseDate.Equal(time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, full.PodcastID)

	empty := episodes[1]
	assert.Equal(t, "", empty.GUID)
	assert.Equal(t, "", empty.Title)
	assert.Equal(t, "", empty.Description)
	assert.Equal(t, "", empty.MediaURL)
	assert.Equal(t, "", empty.MimeType)
	assert.Equal(t, "", empty.Duration)
	assert.False(t, empty.ReleaseDate.IsZero())
}

func TestRssItemsToEpisodesWithoutGUID(t *testing.T) {
	items := []feed.EpisodeResponse{
		{Title: strPtr("A"), URL: strPtr("https://example.com/a.mp3")},
		{Title: strPtr("B"), URL: strPtr("https://example.com/b.mp3")},
	}

	episodes := RssItemsToEpisodes(items)
	require.Len(t, episodes, 2)
	assert.Equal(t, "https://example.com/a.mp3", episodes[0].GUID)
	assert.Equal(t, "https://example.com/b.mp3", episodes[1].GUID)
}
