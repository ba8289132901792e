package repository

import (
	"podplay/internal/feed"
	"podplay/internal/models"
)

// RssResponseToPodcast converts a feed response into an unsaved podcast. It
// returns nil when the feed has no episodes. The feed's own image is used
// when imageURL is empty.
func RssResponseToPodcast(feedURL, imageURL string, resp *feed.RssFeedResponse) *models.Podcast {
	if resp == nil || len(resp.Episodes) == 0 {
		return nil
	}

	description := resp.Description
	if description == "" {
		description = resp.Summary
	}
	if imageURL == "" {
		imageURL = resp.ImageURL
	}

	return &models.Podcast{
		FeedURL:     feedURL,
		FeedTitle:   resp.Title,
		FeedDesc:    description,
		ImageURL:    imageURL,
		LastUpdated: resp.LastUpdated,
		Episodes:    RssItemsToEpisodes(resp.Episodes),
	}
}

// RssItemsToEpisodes converts feed items into episodes without a podcast id.
// Items without a guid are keyed by their enclosure URL.
func RssItemsToEpisodes(items []feed.EpisodeResponse) []models.Episode {
	episodes := make([]models.Episode, 0, len(items))
	for _, item := range items {
		guid := orEmpty(item.GUID)
		if guid == "" {
			guid = orEmpty(item.URL)
		}
		episodes = append(episodes, models.Episode{
			GUID:        guid,
			Title:       orEmpty(item.Title),
			Description: orEmpty(item.Description),
			MediaURL:    orEmpty(item.URL),
			MimeType:    orEmpty(item.Type),
			ReleaseDate: feed.XMLDateToDate(item.PubDate),
			Duration:    orEmpty(item.Duration),
		})
	}
	return episodes
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
