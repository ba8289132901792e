package db

import (
	"context"
	"sync"
	"sync/atomic"

	"podplay/internal/models"
)

// Store exposes the package functions as a podcast store and notifies
// registered hooks after every write. While Listen runs, hooks fire from
// database notifications only, so each write is reported once.
type Store struct {
	mu    sync.Mutex
	hooks []func()

	listening atomic.Bool
}

func NewStore() *Store {
	return &Store{}
}

// OnChange registers fn to run after the store has been written to.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Store) changed() {
	s.mu.Lock()
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// written reports a write made through this store.
func (s *Store) written() {
	if s.listening.Load() {
		return
	}
	s.changed()
}

func (s *Store) LoadPodcast(ctx context.Context, feedURL string) (*models.Podcast, error) {
	return GetPodcastByFeedURL(ctx, feedURL)
}

func (s *Store) LoadPodcastByID(ctx context.Context, id int64) (*models.Podcast, error) {
	return GetPodcastByID(ctx, id)
}

func (s *Store) LoadPodcasts(ctx context.Context) ([]models.Podcast, error) {
	return GetAllPodcasts(ctx)
}

func (s *Store) LoadEpisodes(ctx context.Context, podcastID int64) ([]models.Episode, error) {
	return GetEpisodesByPodcastID(ctx, podcastID)
}

func (s *Store) InsertPodcast(ctx context.Context, p *models.Podcast) (int64, error) {
	id, err := InsertPodcast(ctx, p)
	if err == nil {
		s.written()
	}
	return id, err
}

func (s *Store) InsertEpisode(ctx context.Context, e *models.Episode) error {
	return InsertEpisode(ctx, e)
}

func (s *Store) DeletePodcast(ctx context.Context, p *models.Podcast) error {
	err := DeletePodcast(ctx, p)
	if err == nil {
		s.written()
	}
	return err
}
