package main

import (
	"context"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"podplay/internal/app"
	"podplay/internal/config"
	"podplay/internal/feed"
	"podplay/internal/mainloop"
	"podplay/internal/repository"
	"podplay/internal/worker"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cfg.SetupLogging()

	if err := cfg.SharedStore(); err != nil {
		log.Fatal(err)
	}

	store, closeStore, err := app.OpenStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("could not open store: %v", err)
	}
	defer closeStore()

	// The worker has no UI; callbacks run where they complete.
	repo := repository.New(feed.NewFetcher(cfg.FeedTimeout), store, mainloop.Inline)

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	srv := worker.NewServer(cfg.RedisAddr, 4)
	mux := asynq.NewServeMux()
	worker.NewTaskHandler(client, repo).Register(mux)

	log.WithField("commit", CommitSHA).Info("worker starting")
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
