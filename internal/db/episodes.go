package db

import (
	"context"

	"podplay/internal/models"
)

func GetEpisodesByPodcastID(ctx context.Context, podcastID int64) ([]models.Episode, error) {
	query := `
		SELECT guid, podcast_id, title, description, media_url, mime_type, release_date, duration
		FROM episodes
		WHERE podcast_id = $1
		ORDER BY release_date DESC
	`
	var episodes []models.Episode
	err := DB.SelectContext(ctx, &episodes, query, podcastID)
	return episodes, err
}

// InsertEpisode stores an episode, replacing any episode with the same guid.
func InsertEpisode(ctx context.Context, e *models.Episode) error {
	query := `
		INSERT INTO episodes (guid, podcast_id, title, description, media_url, mime_type, release_date, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guid) DO UPDATE SET
			podcast_id = EXCLUDED.podcast_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			media_url = EXCLUDED.media_url,
			mime_type = EXCLUDED.mime_type,
			release_date = EXCLUDED.release_date,
			duration = EXCLUDED.duration
	`
	_, err := DB.ExecContext(ctx, query, e.GUID, e.PodcastID, e.Title, e.Description, e.MediaURL, e.MimeType, e.ReleaseDate, e.Duration)
	return err
}
