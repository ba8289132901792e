package live

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"podplay/internal/models"
)

// LoadFunc loads the current list of podcasts from a store.
type LoadFunc func(ctx context.Context) ([]models.Podcast, error)

// Podcasts is an observable list of stored podcasts. Observers receive the
// latest value on subscription and again after every reload; an observer
// that falls behind only sees the most recent list.
type Podcasts struct {
	load LoadFunc

	// refreshMu orders reloads so a slow load cannot overwrite a newer one.
	refreshMu sync.Mutex

	mu        sync.Mutex
	observers map[int]chan []models.Podcast
	nextID    int
	current   []models.Podcast
	loaded    bool
}

func NewPodcasts(load LoadFunc) *Podcasts {
	return &Podcasts{
		load:      load,
		observers: make(map[int]chan []models.Podcast),
	}
}

// Observe returns a channel of podcast lists. It is closed when ctx is done.
func (p *Podcasts) Observe(ctx context.Context) <-chan []models.Podcast {
	ch := make(chan []models.Podcast, 1)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = ch
	loaded, current := p.loaded, p.current
	if loaded {
		ch <- current
	}
	p.mu.Unlock()

	if !loaded {
		p.Invalidate()
	}

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.observers, id)
		close(ch)
		p.mu.Unlock()
	}()

	return ch
}

// Snapshot returns the latest list, loading it when nothing was loaded yet.
func (p *Podcasts) Snapshot(ctx context.Context) ([]models.Podcast, error) {
	p.mu.Lock()
	loaded, current := p.loaded, p.current
	p.mu.Unlock()
	if loaded {
		return current, nil
	}
	return p.Refresh(ctx)
}

// Refresh reloads the list and publishes it to all observers.
func (p *Podcasts) Refresh(ctx context.Context) ([]models.Podcast, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	podcasts, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = podcasts
	p.loaded = true
	for _, ch := range p.observers {
		publish(ch, podcasts)
	}
	return podcasts, nil
}

// Invalidate schedules a reload in the background.
func (p *Podcasts) Invalidate() {
	go func() {
		if _, err := p.Refresh(context.Background()); err != nil {
			log.WithError(err).Error("failed to reload podcasts")
		}
	}()
}

// publish replaces any unread value in ch. Callers hold p.mu, so ch has a
// single writer and the send cannot block.
func publish(ch chan []models.Podcast, podcasts []models.Podcast) {
	select {
	case <-ch:
	default:
	}
	ch <- podcasts
}
