package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeRefreshAllPodcasts = "podcasts:refresh_all"
	TypeRefreshPodcast     = "podcast:refresh"
)

type RefreshPodcastTaskPayload struct {
	PodcastID int64
	FeedURL   string
}

func NewRefreshPodcastTask(podcastID int64, feedURL string) (*asynq.Task, error) {
	payload, err := json.Marshal(RefreshPodcastTaskPayload{
		PodcastID: podcastID,
		FeedURL:   feedURL,
	})
	if err != nil {
		return nil, err
	}
	// One pending refresh per podcast is enough.
	return asynq.NewTask(TypeRefreshPodcast, payload,
		asynq.TaskID(fmt.Sprintf("refresh-%d", podcastID)),
		asynq.MaxRetry(3),
	), nil
}

func NewRefreshAllPodcastsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeRefreshAllPodcasts, nil), nil
}
