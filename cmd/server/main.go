package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"podplay/internal/app"
	"podplay/internal/config"
	"podplay/internal/db"
	"podplay/internal/feed"
	"podplay/internal/handlers"
	"podplay/internal/mainloop"
	"podplay/internal/middleware"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("could not open store: %v", err)
	}
	defer closeStore()

	// Writes from the worker process reach the live view through NOTIFY.
	if pg, ok := store.(*db.Store); ok {
		go func() {
			if err := pg.Listen(ctx, cfg.DatabaseURL); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("database listener stopped")
			}
		}()
	}

	// The UI loop outlives the signal context so callbacks for requests
	// still draining during shutdown are delivered.
	uiCtx, stopUI := context.WithCancel(context.Background())
	ui := mainloop.New(64)
	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		ui.Run(uiCtx)
	}()
	defer func() {
		stopUI()
		<-uiDone
	}()

	repo := repository.New(feed.NewFetcher(cfg.FeedTimeout), store, ui)

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	h := handlers.New(repo, ui, client, cfg.BaseURL)

	// The bolt file is held by this process, so refresh tasks run here.
	if err := cfg.SharedStore(); err != nil {
		taskServer := worker.NewServer(cfg.RedisAddr, 1)
		taskMux := asynq.NewServeMux()
		worker.NewTaskHandler(client, repo).Register(taskMux)
		if err := taskServer.Start(taskMux); err != nil {
			log.Fatalf("could not start task server: %v", err)
		}
		defer taskServer.Shutdown()
		log.Info("running refresh tasks in-process")
	}

	var mw []mux.MiddlewareFunc
	if cfg.TelegramBotToken != "" {
		mw = append(mw, middleware.Auth(cfg.TelegramBotToken))
		go func() {
			if err := h.StartTelegramBot(ctx, cfg.TelegramBotToken); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("telegram bot stopped")
			}
		}()
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN is not set, API authentication and bot disabled")
	}
	mw = append(mw, middleware.NewRateLimiterMiddleware(rate.Limit(cfg.RateLimit), cfg.RateBurst).Middleware)

	router := mux.NewRouter()
	h.Routes(router, mw...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "commit": CommitSHA}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}
