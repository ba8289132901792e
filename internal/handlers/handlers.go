package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"podplay/internal/live"
	"podplay/internal/mainloop"
	"podplay/internal/models"
	"podplay/pkg/tasks"
)

// PodcastRepository is the repository API the handlers consume.
type PodcastRepository interface {
	GetPodcast(ctx context.Context, feedURL string, callback func(*models.Podcast))
	GetAll() *live.Podcasts
	GetStoredPodcast(ctx context.Context, id int64) (*models.Podcast, error)
	Save(ctx context.Context, podcast *models.Podcast) <-chan error
	Delete(ctx context.Context, podcast *models.Podcast) <-chan error
}

type Handlers struct {
	podcasts    PodcastRepository
	ui          mainloop.Dispatcher
	asynqClient tasks.TaskEnqueuer
	baseURL     string
}

func New(podcasts PodcastRepository, ui mainloop.Dispatcher, asynqClient tasks.TaskEnqueuer, baseURL string) *Handlers {
	return &Handlers{
		podcasts:    podcasts,
		ui:          ui,
		asynqClient: asynqClient,
		baseURL:     baseURL,
	}
}

// Routes registers the API under /api, wrapped in the given middleware,
// and the public RSS export.
func (h *Handlers) Routes(r *mux.Router, middleware ...mux.MiddlewareFunc) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware...)
	api.HandleFunc("/podcasts", h.GetPodcasts).Methods(http.MethodGet)
	api.HandleFunc("/podcasts", h.PostPodcast).Methods(http.MethodPost)
	api.HandleFunc("/podcasts/watch", h.WatchPodcasts).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/lookup", h.LookupPodcast).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/refresh", h.RefreshPodcasts).Methods(http.MethodPost)
	api.HandleFunc("/podcasts/{id:[0-9]+}", h.GetPodcast).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/{id:[0-9]+}", h.DeletePodcast).Methods(http.MethodDelete)

	r.HandleFunc("/rss/{id:[0-9]+}", h.GetRSSFeed).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
}

// lookup runs a repository lookup and waits for its callback.
func (h *Handlers) lookup(ctx context.Context, feedURL string) *models.Podcast {
	result := make(chan *models.Podcast, 1)
	h.podcasts.GetPodcast(ctx, feedURL, func(p *models.Podcast) {
		result <- p
	})

	select {
	case p := <-result:
		return p
	case <-ctx.Done():
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("error encoding response")
	}
}
