package repository

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"podplay/internal/feed"
	"podplay/internal/live"
	"podplay/internal/mainloop"
	"podplay/internal/models"
)

// ErrNotFound is returned when a stored podcast does not exist.
var ErrNotFound = errors.New("podcast not found")

// FeedFetcher downloads a podcast feed. A failed fetch returns a nil
// response together with an error.
type FeedFetcher interface {
	GetFeed(ctx context.Context, feedURL string) (*feed.RssFeedResponse, error)
}

// PodcastStore persists podcasts and their episodes. Loads of missing rows
// return a nil value and a nil error.
type PodcastStore interface {
	LoadPodcast(ctx context.Context, feedURL string) (*models.Podcast, error)
	LoadPodcastByID(ctx context.Context, id int64) (*models.Podcast, error)
	LoadPodcasts(ctx context.Context) ([]models.Podcast, error)
	LoadEpisodes(ctx context.Context, podcastID int64) ([]models.Episode, error)
	InsertPodcast(ctx context.Context, p *models.Podcast) (int64, error)
	InsertEpisode(ctx context.Context, e *models.Episode) error
	DeletePodcast(ctx context.Context, p *models.Podcast) error
}

// ChangeNotifier is implemented by stores that can report writes.
type ChangeNotifier interface {
	OnChange(fn func())
}

// PodcastRepository mediates between the feed fetcher and the local store.
type PodcastRepository struct {
	fetcher FeedFetcher
	store   PodcastStore
	ui      mainloop.Dispatcher
	all     *live.Podcasts
}

// New creates a repository. Callbacks passed to GetPodcast run through ui.
func New(fetcher FeedFetcher, store PodcastStore, ui mainloop.Dispatcher) *PodcastRepository {
	r := &PodcastRepository{
		fetcher: fetcher,
		store:   store,
		ui:      ui,
		all:     live.NewPodcasts(store.LoadPodcasts),
	}
	if notifier, ok := store.(ChangeNotifier); ok {
		notifier.OnChange(r.all.Invalidate)
	}
	return r
}

// GetPodcast looks feedURL up in the store, falling back to the remote feed.
// The work runs in the background and callback is dispatched on the UI loop
// with the podcast, or nil when neither source has it.
func (r *PodcastRepository) GetPodcast(ctx context.Context, feedURL string, callback func(*models.Podcast)) {
	go func() {
		podcast := r.loadPodcast(ctx, feedURL)
		r.ui.Dispatch(func() { callback(podcast) })
	}()
}

func (r *PodcastRepository) loadPodcast(ctx context.Context, feedURL string) *models.Podcast {
	logger := log.WithField("feed_url", feedURL)

	podcast, err := r.store.LoadPodcast(ctx, feedURL)
	if err != nil {
		logger.WithError(err).Error("failed to load podcast")
		return nil
	}

	if podcast != nil {
		if podcast.ID != nil {
			episodes, err := r.store.LoadEpisodes(ctx, *podcast.ID)
			if err != nil {
				logger.WithError(err).Error("failed to load episodes")
				return nil
			}
			podcast.Episodes = episodes
		}
		return podcast
	}

	resp, err := r.fetcher.GetFeed(ctx, feedURL)
	if err != nil || resp == nil {
		return nil
	}
	return RssResponseToPodcast(feedURL, "", resp)
}

// GetAll returns the live view over all stored podcasts.
func (r *PodcastRepository) GetAll() *live.Podcasts {
	return r.all
}

// ListPodcasts reloads the live view from the store and returns the list.
func (r *PodcastRepository) ListPodcasts(ctx context.Context) ([]models.Podcast, error) {
	return r.all.Refresh(ctx)
}

// GetStoredPodcast loads a stored podcast and its episodes.
func (r *PodcastRepository) GetStoredPodcast(ctx context.Context, id int64) (*models.Podcast, error) {
	podcast, err := r.store.LoadPodcastByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load podcast %d: %w", id, err)
	}
	if podcast == nil {
		return nil, ErrNotFound
	}

	podcast.Episodes, err = r.store.LoadEpisodes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load episodes for podcast %d: %w", id, err)
	}
	return podcast, nil
}

// Save persists podcast in the background. Once the podcast has its id, the
// id is stamped on every episode before the episodes are inserted. The
// podcast must not be modified until the returned channel yields; callers
// that do not care about the outcome may ignore it.
func (r *PodcastRepository) Save(ctx context.Context, podcast *models.Podcast) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := r.save(ctx, podcast)
		if err != nil {
			log.WithFields(log.Fields{"feed_url": podcast.FeedURL, "error": err}).Error("failed to save podcast")
		}
		done <- err
	}()
	return done
}

func (r *PodcastRepository) save(ctx context.Context, podcast *models.Podcast) error {
	id, err := r.store.InsertPodcast(ctx, podcast)
	if err != nil {
		return fmt.Errorf("failed to insert podcast: %w", err)
	}
	podcast.ID = &id

	for i := range podcast.Episodes {
		episode := &podcast.Episodes[i]
		episode.PodcastID = &id
		if err := r.store.InsertEpisode(ctx, episode); err != nil {
			return fmt.Errorf("failed to insert episode %s: %w", episode.GUID, err)
		}
	}

	log.WithFields(log.Fields{
		"podcast_id": id,
		"feed_url":   podcast.FeedURL,
		"episodes":   len(podcast.Episodes),
	}).Info("podcast saved")
	return nil
}

// Delete removes podcast from the store in the background.
func (r *PodcastRepository) Delete(ctx context.Context, podcast *models.Podcast) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := r.store.DeletePodcast(ctx, podcast)
		if err != nil {
			err = fmt.Errorf("failed to delete podcast: %w", err)
			log.WithFields(log.Fields{"feed_url": podcast.FeedURL, "error": err}).Error("failed to delete podcast")
		}
		done <- err
	}()
	return done
}

// UpdatePodcastEpisodes fetches the feed of a stored podcast and inserts the
// episodes that are not stored yet. It returns the inserted episodes.
func (r *PodcastRepository) UpdatePodcastEpisodes(ctx context.Context, feedURL string) ([]models.Episode, error) {
	stored, err := r.store.LoadPodcast(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load podcast: %w", err)
	}
	if stored == nil || stored.ID == nil {
		return nil, ErrNotFound
	}

	existing, err := r.store.LoadEpisodes(ctx, *stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load episodes: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, episode := range existing {
		known[episode.GUID] = struct{}{}
	}

	resp, err := r.fetcher.GetFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	fresh := RssResponseToPodcast(feedURL, "", resp)
	if fresh == nil {
		return nil, nil
	}

	fresh.ID = stored.ID
	if fresh.ImageURL == "" {
		fresh.ImageURL = stored.ImageURL
	}
	if _, err := r.store.InsertPodcast(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to update podcast: %w", err)
	}

	var added []models.Episode
	for _, episode := range fresh.Episodes {
		if _, ok := known[episode.GUID]; ok {
			continue
		}
		episode.PodcastID = stored.ID
		if err := r.store.InsertEpisode(ctx, &episode); err != nil {
			return added, fmt.Errorf("failed to insert episode %s: %w", episode.GUID, err)
		}
		added = append(added, episode)
	}

	log.WithFields(log.Fields{
		"podcast_id": *stored.ID,
		"feed_url":   feedURL,
		"new":        len(added),
	}).Info("podcast episodes updated")
	return added, nil
}
