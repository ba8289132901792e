package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver
	log "github.com/sirupsen/logrus"
)

// DB is the global database connection.
var DB *sqlx.DB

// InitDB opens the database connection and verifies it.
func InitDB(ctx context.Context, dbURL string) error {
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	conn, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = conn
	log.Info("database connection established")
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS podcasts (
	id           BIGSERIAL PRIMARY KEY,
	feed_url     TEXT NOT NULL UNIQUE,
	feed_title   TEXT NOT NULL DEFAULT '',
	feed_desc    TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS episodes (
	guid         TEXT PRIMARY KEY,
	podcast_id   BIGINT REFERENCES podcasts (id) ON DELETE CASCADE,
	title        TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	media_url    TEXT NOT NULL DEFAULT '',
	mime_type    TEXT NOT NULL DEFAULT '',
	release_date TIMESTAMPTZ NOT NULL,
	duration     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS episodes_podcast_id_idx ON episodes (podcast_id);

CREATE OR REPLACE FUNCTION notify_podcasts_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + ChangesChannel + `', TG_TABLE_NAME);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS podcasts_changed ON podcasts;
CREATE TRIGGER podcasts_changed
	AFTER INSERT OR UPDATE OR DELETE ON podcasts
	FOR EACH STATEMENT EXECUTE FUNCTION notify_podcasts_changed();
`

// Migrate creates the tables and change triggers if they do not exist.
func Migrate(ctx context.Context) error {
	if _, err := DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
