package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"podplay/internal/boltstore"
	"podplay/internal/config"
	"podplay/internal/db"
	"podplay/internal/repository"
)

// OpenStore opens the podcast store selected by the configuration. The
// returned function releases it.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.PodcastStore, func(), error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, nil, err
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := db.InitDB(ctx, cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.DB.Close()
			return nil, nil, err
		}
		return db.NewStore(), func() { db.DB.Close() }, nil

	case config.DriverBolt:
		store, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("path", cfg.BoltPath).Info("bolt store opened")
		return store, func() { store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
