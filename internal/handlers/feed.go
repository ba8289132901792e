package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"podplay/internal/feed"
	"podplay/internal/repository"
)

func (h *Handlers) getBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GetRSSFeed re-publishes a stored podcast as RSS.
func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
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

	rss, err := feed.GenerateRSS(podcast, fmt.Sprintf("%s/rss/%d", h.getBaseURL(r), id))
	if err != nil {
		log.WithError(err).Error("error generating RSS")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}
