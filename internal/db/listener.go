package db

import (
	"context"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// ChangesChannel is the notification channel the table triggers publish on.
const ChangesChannel = "podcasts_changed"

// Listen forwards database change notifications, including those caused by
// other processes, to the store's hooks until ctx is done.
func (s *Store) Listen(ctx context.Context, dbURL string) error {
	listener := pq.NewListener(dbURL, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.WithError(err).Warn("database listener event")
		}
	})
	if err := listener.Listen(ChangesChannel); err != nil {
		listener.Close()
		return err
	}
	defer listener.Close()

	s.listening.Store(true)
	defer s.listening.Store(false)

	log.WithField("channel", ChangesChannel).Info("listening for database changes")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-listener.Notify:
			// A nil notification means the connection was re-established
			// and changes may have been missed.
			s.changed()
		case <-time.After(90 * time.Second):
			go listener.Ping()
		}
	}
}
