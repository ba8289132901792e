package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"podplay/internal/models"
	"podplay/internal/repository"
	"podplay/pkg/tasks"
)

// PodcastUpdater is the part of the podcast repository the worker needs.
type PodcastUpdater interface {
	ListPodcasts(ctx context.Context) ([]models.Podcast, error)
	UpdatePodcastEpisodes(ctx context.Context, feedURL string) ([]models.Episode, error)
}

type TaskHandler struct {
	asynqClient tasks.TaskEnqueuer
	podcasts    PodcastUpdater
}

func NewTaskHandler(client tasks.TaskEnqueuer, podcasts PodcastUpdater) *TaskHandler {
	return &TaskHandler{asynqClient: client, podcasts: podcasts}
}

func (h *TaskHandler) HandleRefreshAllPodcastsTask(ctx context.Context, t *asynq.Task) error {
	log.Info("refreshing all podcasts")

	podcasts, err := h.podcasts.ListPodcasts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list podcasts: %w", err)
	}

	enqueued := 0
	for _, podcast := range podcasts {
		if podcast.ID == nil {
			continue
		}
		logger := log.WithFields(log.Fields{"podcast_id": *podcast.ID, "feed_url": podcast.FeedURL})

		task, err := tasks.NewRefreshPodcastTask(*podcast.ID, podcast.FeedURL)
		if err != nil {
			logger.WithError(err).Error("failed to create refresh task")
			continue
		}

		_, err = h.asynqClient.EnqueueContext(ctx, task)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			logger.Debug("refresh already pending")
			continue
		}
		if err != nil {
			logger.WithError(err).Error("failed to enqueue refresh task")
			continue
		}
		enqueued++
	}

	log.WithFields(log.Fields{"podcasts": len(podcasts), "enqueued": enqueued}).Info("finished refreshing all podcasts")
	return nil
}

func (h *TaskHandler) HandleRefreshPodcastTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.RefreshPodcastTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w: %w", err, asynq.SkipRetry)
	}
	logger := log.WithFields(log.Fields{"podcast_id": p.PodcastID, "feed_url": p.FeedURL})
	logger.Info("refreshing podcast")

	added, err := h.podcasts.UpdatePodcastEpisodes(ctx, p.FeedURL)
	if errors.Is(err, repository.ErrNotFound) {
		// Deleted since the task was enqueued.
		logger.Info("podcast no longer stored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to refresh podcast %d: %w", p.PodcastID, err)
	}

	logger.WithField("new_episodes", len(added)).Info("podcast refreshed")
	return nil
}
