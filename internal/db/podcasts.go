package db

import (
	"context"
	"database/sql"
	"errors"

	log "github.com/sirupsen/logrus"
	"podplay/internal/models"
)

const podcastColumns = `id, feed_url, feed_title, feed_desc, image_url, last_updated`

func GetPodcastByFeedURL(ctx context.Context, feedURL string) (*models.Podcast, error) {
	podcast := &models.Podcast{}
	err := DB.GetContext(ctx, podcast, "SELECT "+podcastColumns+" FROM podcasts WHERE feed_url = $1", feedURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return podcast, nil
}

func GetPodcastByID(ctx context.Context, id int64) (*models.Podcast, error) {
	podcast := &models.Podcast{}
	err := DB.GetContext(ctx, podcast, "SELECT "+podcastColumns+" FROM podcasts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return podcast, nil
}

func GetAllPodcasts(ctx context.Context) ([]models.Podcast, error) {
	var podcasts []models.Podcast
	err := DB.SelectContext(ctx, &podcasts, "SELECT "+podcastColumns+" FROM podcasts ORDER BY feed_title")
	if err != nil {
		log.WithError(err).Error("error getting podcasts")
		return nil, err
	}
	return podcasts, nil
}

// InsertPodcast stores a podcast, replacing the metadata of an existing
// podcast with the same feed URL, and returns its id.
func InsertPodcast(ctx context.Context, p *models.Podcast) (int64, error) {
	query := `
		INSERT INTO podcasts (feed_url, feed_title, feed_desc, image_url, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (feed_url) DO UPDATE SET
			feed_title = EXCLUDED.feed_title,
			feed_desc = EXCLUDED.feed_desc,
			image_url = EXCLUDED.image_url,
			last_updated = EXCLUDED.last_updated
		RETURNING id
	`
	var id int64
	err := DB.GetContext(ctx, &id, query, p.FeedURL, p.FeedTitle, p.FeedDesc, p.ImageURL, p.LastUpdated)
	if err != nil {
		log.WithFields(log.Fields{"feed_url": p.FeedURL, "error": err}).Error("error inserting podcast")
		return 0, err
	}
	return id, nil
}

// DeletePodcast removes a podcast by id, or by feed URL when it has no id.
// Its episodes are removed by the foreign key cascade.
func DeletePodcast(ctx context.Context, p *models.Podcast) error {
	var err error
	if p.ID != nil {
		_, err = DB.ExecContext(ctx, "DELETE FROM podcasts WHERE id = $1", *p.ID)
	} else {
		_, err = DB.ExecContext(ctx, "DELETE FROM podcasts WHERE feed_url = $1", p.FeedURL)
	}
	if err != nil {
		log.WithFields(log.Fields{"feed_url": p.FeedURL, "error": err}).Error("error deleting podcast")
		return err
	}
	return nil
}
