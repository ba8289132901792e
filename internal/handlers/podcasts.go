package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"podplay/internal/models"
	"podplay/internal/repository"
	"podplay/pkg/tasks"
)

func (h *Handlers) GetPodcasts(w http.ResponseWriter, r *http.Request) {
	podcasts, err := h.podcasts.GetAll().Snapshot(r.Context())
	if err != nil {
		log.WithError(err).Error("error getting podcasts")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if podcasts == nil {
		podcasts = []models.Podcast{}
	}
	writeJSON(w, http.StatusOK, podcasts)
}

// WatchPodcasts streams the podcast list as server-sent events, one event
// per change, until the client disconnects.
func (h *Handlers) WatchPodcasts(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for podcasts := range h.podcasts.GetAll().Observe(r.Context()) {
		if podcasts == nil {
			podcasts = []models.Podcast{}
		}
		data, err := json.Marshal(podcasts)
		if err != nil {
			log.WithError(err).Error("error encoding podcasts")
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (h *Handlers) LookupPodcast(w http.ResponseWriter, r *http.Request) {
	feedURL := r.URL.Query().Get("url")
	if feedURL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	podcast := h.lookup(r.Context(), feedURL)
	if podcast == nil {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, podcast)
}

// PostPodcast subscribes to the feed in the url form value.
func (h *Handlers) PostPodcast(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	feedURL := r.FormValue("url")
	if feedURL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	podcast := h.lookup(r.Context(), feedURL)
	if podcast == nil {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}
	if podcast.Saved() {
		writeJSON(w, http.StatusOK, podcast)
		return
	}

	if err := <-h.podcasts.Save(r.Context(), podcast); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, podcast)
}

func (h *Handlers) GetPodcast(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid podcast ID", http.StatusBadRequest)
		return
	}

	podcast, err := h.podcasts.GetStoredPodcast(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).Error("error getting podcast")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, podcast)
}

func (h *Handlers) DeletePodcast(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid podcast ID", http.StatusBadRequest)
		return
	}

	podcast, err := h.podcasts.GetStoredPodcast(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).Error("error getting podcast")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := <-h.podcasts.Delete(r.Context(), podcast); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// RefreshPodcasts queues a refresh of every stored podcast.
func (h *Handlers) RefreshPodcasts(w http.ResponseWriter, r *http.Request) {
	task, err := tasks.NewRefreshAllPodcastsTask()
	if err != nil {
		log.WithError(err).Error("error creating task")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	info, err := h.asynqClient.EnqueueContext(r.Context(), task)
	if err != nil {
		log.WithError(err).Error("error enqueuing task")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID})
}
