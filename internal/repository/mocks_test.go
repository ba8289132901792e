package repository

import (
	"context"
	"errors"
	"sync"

	"podplay/internal/feed"
	"podplay/internal/models"
)

// mockFetcher is a FeedFetcher that serves canned responses and counts calls.
type mockFetcher struct {
	mu        sync.Mutex
	responses map[string]*feed.RssFeedResponse
	calls     []string
}

func (m *mockFetcher) GetFeed(ctx context.Context, feedURL string) (*feed.RssFeedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, feedURL)
	resp, ok := m.responses[feedURL]
	if !ok {
		return nil, errors.New("fetch failed")
	}
	return resp, nil
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// memoryStore is an in-memory PodcastStore. Inserted episode snapshots are
// recorded so tests can inspect the state at insert time.
type memoryStore struct {
	mu        sync.Mutex
	nextID    int64
	podcasts  map[int64]models.Podcast
	episodes  map[string]models.Episode
	inserted  []models.Episode
	failAfter int
	hooks     []func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nextID:    1,
		podcasts:  make(map[int64]models.Podcast),
		episodes:  make(map[string]models.Episode),
		failAfter: -1,
	}
}

func (s *memoryStore) OnChange(fn func()) {
	s.hooks = append(s.hooks, fn)
}

func (s *memoryStore) changed() {
	for _, fn := range s.hooks {
		fn()
	}
}

func (s *memoryStore) LoadPodcast(ctx context.Context, feedURL string) (*models.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.podcasts {
		if p.FeedURL == feedURL {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) LoadPodcastByID(ctx context.Context, id int64) (*models.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.podcasts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memoryStore) LoadPodcasts(ctx context.Context) ([]models.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Podcast
	for _, p := range s.podcasts {
		list = append(list, p)
	}
	return list, nil
}

func (s *memoryStore) LoadEpisodes(ctx context.Context, podcastID int64) ([]models.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Episode
	for _, e := range s.episodes {
		if e.PodcastID != nil && *e.PodcastID == podcastID {
			list = append(list, e)
		}
	}
	return list, nil
}

func (s *memoryStore) InsertPodcast(ctx context.Context, p *models.Podcast) (int64, error) {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()

	id := s.nextID
	for existingID, existing := range s.podcasts {
		if existing.FeedURL == p.FeedURL {
			id = existingID
		}
	}
	if id == s.nextID {
		s.nextID++
	}

	stored := *p
	stored.ID = &id
	stored.Episodes = nil
	s.podcasts[id] = stored
	return id, nil
}

func (s *memoryStore) InsertEpisode(ctx context.Context, e *models.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && len(s.inserted) >= s.failAfter {
		return errors.New("disk full")
	}
	s.inserted = append(s.inserted, *e)
	s.episodes[e.GUID] = *e
	return nil
}

func (s *memoryStore) DeletePodcast(ctx context.Context, p *models.Podcast) error {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()
	if p.ID == nil {
		return errors.New("podcast has no id")
	}
	delete(s.podcasts, *p.ID)
	for guid, e := range s.episodes {
		if e.PodcastID != nil && *e.PodcastID == *p.ID {
			delete(s.episodes, guid)
		}
	}
	return nil
}
