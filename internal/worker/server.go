package worker

import (
	"time"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"podplay/pkg/tasks"
)

// NewServer creates the asynq server that runs the refresh tasks.
func NewServer(redisAddr string, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
			RetryDelayFunc: RetryDelay,
			Logger:         log.StandardLogger(),
		},
	)
}

// RetryDelay backs off exponentially: 1min, 2min, 4min, ... capped at 6 hours.
func RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	delay := time.Minute
	maxDelay := 6 * time.Hour
	for i := 0; i < n; i++ {
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}

	log.WithFields(log.Fields{"task": task.Type(), "attempt": n + 1, "delay": delay, "error": err}).Warn("task failed, retrying")
	return delay
}

// Register routes the refresh task types to h.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeRefreshAllPodcasts, h.HandleRefreshAllPodcastsTask)
	mux.HandleFunc(tasks.TypeRefreshPodcast, h.HandleRefreshPodcastTask)
}
