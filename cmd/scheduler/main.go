package main

import (
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"podplay/internal/config"
	"podplay/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cfg.SetupLogging()

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{Logger: log.StandardLogger()},
	)

	task, err := tasks.NewRefreshAllPodcastsTask()
	if err != nil {
		log.Fatalf("could not create task: %v", err)
	}

	entryID, err := scheduler.Register(cfg.RefreshSchedule, task)
	if err != nil {
		log.Fatalf("could not register task: %v", err)
	}

	log.WithFields(log.Fields{"entry": entryID, "schedule": cfg.RefreshSchedule, "commit": CommitSHA}).Info("scheduler starting")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("could not run scheduler: %v", err)
	}
}
