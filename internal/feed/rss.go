package feed

import (
	"fmt"
	"strings"

	"github.com/eduncan911/podcast"
	"podplay/internal/models"
)

// GenerateRSS re-publishes a stored podcast as an RSS document. selfURL is
// the link the generated channel points at.
func GenerateRSS(p *models.Podcast, selfURL string) (string, error) {
	lastUpdated := p.LastUpdated
	description := p.FeedDesc
	if description == "" {
		description = p.FeedTitle
	}

	out := podcast.New(p.FeedTitle, selfURL, description, &lastUpdated, &lastUpdated)
	if p.ImageURL != "" {
		out.AddImage(p.ImageURL)
	}

	for _, episode := range p.Episodes {
		if episode.MediaURL == "" {
			continue
		}
		pubDate := episode.ReleaseDate
		item := podcast.Item{
			GUID:        episode.GUID,
			Title:       episode.Title,
			Description: episode.Description,
			PubDate:     &pubDate,
		}
		if item.Title == "" {
			item.Title = episode.GUID
		}
		if item.Description == "" {
			item.Description = item.Title
		}
		item.AddEnclosure(episode.MediaURL, enclosureType(episode.MimeType), 0)
		if _, err := out.AddItem(item); err != nil {
			return "", fmt.Errorf("failed to add episode %s: %w", episode.GUID, err)
		}
	}

	return out.String(), nil
}

func enclosureType(mimeType string) podcast.EnclosureType {
	switch strings.ToLower(mimeType) {
	case "audio/x-m4a", "audio/mp4", "audio/m4a":
		return podcast.M4A
	case "video/mp4":
		return podcast.MP4
	case "video/x-m4v":
		return podcast.M4V
	case "video/quicktime":
		return podcast.MOV
	case "application/pdf":
		return podcast.PDF
	case "application/epub+zip":
		return podcast.EPUB
	default:
		return podcast.MP3
	}
}
