package boltstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"
	"podplay/internal/models"
)

var sequenceBucket = []byte("podcast_ids")

type podcastRecord struct {
	ID          int64
	FeedURL     string `boltholdIndex:"FeedURL"`
	FeedTitle   string
	FeedDesc    string
	ImageURL    string
	LastUpdated time.Time
}

type episodeRecord struct {
	GUID        string
	PodcastID   int64 `boltholdIndex:"PodcastID"`
	HasPodcast  bool
	Title       string
	Description string
	MediaURL    string
	MimeType    string
	ReleaseDate time.Time
	Duration    string
}

// Store is a single-file podcast store backed by bolthold.
type Store struct {
	store *bolthold.Store

	mu    sync.Mutex
	hooks []func()
}

// ErrLocked is returned by Open when another process holds the store file.
var ErrLocked = errors.New("bolt store is locked by another process")

// Open opens or creates the store file at path. Only one process can hold
// the file at a time.
func Open(path string) (*Store, error) {
	store, err := bolthold.Open(path, 0666, &bolthold.Options{Options: &bolt.Options{Timeout: time.Second}})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("opening %s: %w", path, ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("opening bolt store: %w", err)
	}
	return &Store{store: store}, nil
}

func (s *Store) Close() error {
	return s.store.Close()
}

// OnChange registers fn to run after podcasts are written.
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

func (s *Store) LoadPodcast(ctx context.Context, feedURL string) (*models.Podcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []podcastRecord
	if err := s.store.Find(&records, bolthold.Where("FeedURL").Eq(feedURL).Index("FeedURL").Limit(1)); err != nil {
		return nil, fmt.Errorf("finding podcast: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0].toModel(), nil
}

func (s *Store) LoadPodcastByID(ctx context.Context, id int64) (*models.Podcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record podcastRecord
	err := s.store.Get(id, &record)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting podcast: %w", err)
	}
	return record.toModel(), nil
}

func (s *Store) LoadPodcasts(ctx context.Context) ([]models.Podcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []podcastRecord
	if err := s.store.Find(&records, bolthold.Where("ID").Ge(int64(0)).SortBy("FeedTitle")); err != nil {
		return nil, fmt.Errorf("finding podcasts: %w", err)
	}
	podcasts := make([]models.Podcast, 0, len(records))
	for _, record := range records {
		podcasts = append(podcasts, *record.toModel())
	}
	return podcasts, nil
}

func (s *Store) LoadEpisodes(ctx context.Context, podcastID int64) ([]models.Episode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []episodeRecord
	query := bolthold.Where("PodcastID").Eq(podcastID).Index("PodcastID").And("HasPodcast").Eq(true)
	if err := s.store.Find(&records, query); err != nil {
		return nil, fmt.Errorf("finding episodes: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ReleaseDate.After(records[j].ReleaseDate)
	})

	episodes := make([]models.Episode, 0, len(records))
	for _, record := range records {
		episodes = append(episodes, record.toModel())
	}
	return episodes, nil
}

// InsertPodcast stores p, keeping the id of an existing podcast with the
// same feed URL, and returns the id.
func (s *Store) InsertPodcast(ctx context.Context, p *models.Podcast) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id int64
	err := s.store.Bolt().Update(func(tx *bolt.Tx) error {
		var existing []podcastRecord
		if err := s.store.TxFind(tx, &existing, bolthold.Where("FeedURL").Eq(p.FeedURL).Index("FeedURL").Limit(1)); err != nil {
			return err
		}

		if len(existing) > 0 {
			id = existing[0].ID
		} else {
			bucket, err := tx.CreateBucketIfNotExists(sequenceBucket)
			if err != nil {
				return err
			}
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			id = int64(seq)
		}

		return s.store.TxUpsert(tx, id, newPodcastRecord(id, p))
	})
	if err != nil {
		return 0, fmt.Errorf("inserting podcast: %w", err)
	}

	s.changed()
	return id, nil
}

// InsertEpisode stores e, replacing any episode with the same guid.
func (s *Store) InsertEpisode(ctx context.Context, e *models.Episode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.Upsert(e.GUID, newEpisodeRecord(e)); err != nil {
		return fmt.Errorf("inserting episode: %w", err)
	}
	return nil
}

// DeletePodcast removes the podcast and its episodes.
func (s *Store) DeletePodcast(ctx context.Context, p *models.Podcast) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := p.ID
	if id == nil {
		stored, err := s.LoadPodcast(ctx, p.FeedURL)
		if err != nil {
			return err
		}
		if stored == nil {
			return nil
		}
		id = stored.ID
	}

	err := s.store.Bolt().Update(func(tx *bolt.Tx) error {
		if err := s.store.TxDeleteMatching(tx, &episodeRecord{}, bolthold.Where("PodcastID").Eq(*id).Index("PodcastID")); err != nil {
			return err
		}
		err := s.store.TxDelete(tx, *id, &podcastRecord{})
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting podcast: %w", err)
	}

	s.changed()
	return nil
}

func newPodcastRecord(id int64, p *models.Podcast) *podcastRecord {
	return &podcastRecord{
		ID:          id,
		FeedURL:     p.FeedURL,
		FeedTitle:   p.FeedTitle,
		FeedDesc:    p.FeedDesc,
		ImageURL:    p.ImageURL,
		LastUpdated: p.LastUpdated,
	}
}

func (r podcastRecord) toModel() *models.Podcast {
	id := r.ID
	return &models.Podcast{
		ID:          &id,
		FeedURL:     r.FeedURL,
		FeedTitle:   r.FeedTitle,
		FeedDesc:    r.FeedDesc,
		ImageURL:    r.ImageURL,
		LastUpdated: r.LastUpdated,
	}
}

func newEpisodeRecord(e *models.Episode) *episodeRecord {
	record := &episodeRecord{
		GUID:        e.GUID,
		Title:       e.Title,
		Description: e.Description,
		MediaURL:    e.MediaURL,
		MimeType:    e.MimeType,
		ReleaseDate: e.ReleaseDate,
		Duration:    e.Duration,
	}
	if e.PodcastID != nil {
		record.PodcastID = *e.PodcastID
		record.HasPodcast = true
	}
	return record
}

func (r episodeRecord) toModel() models.Episode {
	e := models.Episode{
		GUID:        r.GUID,
		Title:       r.Title,
		Description: r.Description,
		MediaURL:    r.MediaURL,
		MimeType:    r.MimeType,
		ReleaseDate: r.ReleaseDate,
		Duration:    r.Duration,
	}
	if r.HasPodcast {
		id := r.PodcastID
		e.PodcastID = &id
	}
	return e
}
