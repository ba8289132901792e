package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podplay/internal/db"
	"podplay/internal/models"
	"podplay/internal/test"
)

var podcastCols = []string{"id", "feed_url", "feed_title", "feed_desc", "image_url", "last_updated"}

func TestGetPodcastByFeedURL(t *testing.T) {
	_, mock := test.NewMockDB(t)
	updated := time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, feed_url, feed_title, feed_desc, image_url, last_updated FROM podcasts WHERE feed_url = \$1`).
		WithArgs("https://example.com/feed.xml").
		WillReturnRows(sqlmock.NewRows(podcastCols).AddRow(3, "https://example.com/feed.xml", "Title", "Desc", "", updated))

	podcast, err := db.GetPodcastByFeedURL(context.Background(), "https://example.com/feed.xml")
	require.NoError(t, err)
	require.NotNil(t, podcast)
	require.NotNil(t, podcast.ID)
	assert.Equal(t, int64(3), *podcast.ID)
	assert.Equal(t, "Title", podcast.FeedTitle)
	assert.Equal(t, updated, podcast.LastUpdated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPodcastByFeedURLMissing(t *testing.T) {
	_, mock := test.NewMockDB(t)

	mock.ExpectQuery(`FROM podcasts WHERE feed_url = \$1`).
		WithArgs("https://example.com/none.xml").
		WillReturnRows(sqlmock.NewRows(podcastCols))

	podcast, err := db.GetPodcastByFeedURL(context.Background(), "https://example.com/none.xml")
	assert.NoError(t, err)
	assert.Nil(t, podcast)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPodcastByIDError(t *testing.T) {
	_, mock := test.NewMockDB(t)

	mock.ExpectQuery(`FROM podcasts WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(errors.New("connection reset"))

	podcast, err := db.GetPodcastByID(context.Background(), 9)
	assert.Error(t, err)
	assert.Nil(t, podcast)
}

func TestInsertPodcast(t *testing.T) {
	_, mock := test.NewMockDB(t)
	p := &models.Podcast{FeedURL: "https://example.com/feed.xml", FeedTitle: "Title", FeedDesc: "Desc", LastUpdated: time.Now()}

	mock.ExpectQuery(`INSERT INTO podcasts`).
		WithArgs(p.FeedURL, p.FeedTitle, p.FeedDesc, p.ImageURL, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := db.InsertPodcast(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePodcast(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		id := int64(4)
		mock.ExpectExec(`DELETE FROM podcasts WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, db.DeletePodcast(context.Background(), &models.Podcast{ID: &id}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("by feed url", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectExec(`DELETE FROM podcasts WHERE feed_url = \$1`).WithArgs("https://example.com/feed.xml").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, db.DeletePodcast(context.Background(), &models.Podcast{FeedURL: "https://example.com/feed.xml"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetEpisodesByPodcastID(t *testing.T) {
	_, mock := test.NewMockDB(t)
	released := time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"guid", "podcast_id", "title", "description", "media_url", "mime_type", "release_date", "duration"}).
		AddRow("ep-2", 3, "Episode 2", "", "https://example.com/2.mp3", "audio/mpeg", released, "10:00").
		AddRow("ep-1", 3, "Episode 1", "", "https://example.com/1.mp3", "audio/mpeg", released.Add(-time.Hour), "")
	mock.ExpectQuery(`FROM episodes\s+WHERE podcast_id = \$1\s+ORDER BY release_date DESC`).WithArgs(int64(3)).WillReturnRows(rows)

	episodes, err := db.GetEpisodesByPodcastID(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, "ep-2", episodes[0].GUID)
	require.NotNil(t, episodes[0].PodcastID)
	assert.Equal(t, int64(3), *episodes[0].PodcastID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEpisode(t *testing.T) {
	_, mock := test.NewMockDB(t)
	id := int64(3)
	e := &models.Episode{GUID: "ep-1", PodcastID: &id, Title: "Episode 1", ReleaseDate: time.Now()}

	mock.ExpectExec(`INSERT INTO episodes`).
		WithArgs("ep-1", id, "Episode 1", "", "", "", sqlmock.AnyArg(), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, db.InsertEpisode(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreNotifiesOnWrites(t *testing.T) {
	_, mock := test.NewMockDB(t)
	store := db.NewStore()
	notified := 0
	store.OnChange(func() { notified++ })

	mock.ExpectQuery(`INSERT INTO podcasts`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO episodes`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM podcasts`).WillReturnError(errors.New("locked"))

	id, err := store.InsertPodcast(context.Background(), &models.Podcast{FeedURL: "u"})
	require.NoError(t, err)
	require.NoError(t, store.InsertEpisode(context.Background(), &models.Episode{GUID: "g", PodcastID: &id}))
	assert.Error(t, store.DeletePodcast(context.Background(), &models.Podcast{ID: &id}))

	assert.Equal(t, 1, notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS podcasts`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSkipsHooksWhileListening(t *testing.T) {
	_, mock := test.NewMockDB(t)
	store := db.NewStore()
	notified := 0
	store.OnChange(func() { notified++ })
	store.SetListening(true)

	mock.ExpectQuery(`INSERT INTO podcasts`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM podcasts`).WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.InsertPodcast(context.Background(), &models.Podcast{FeedURL: "u"})
	require.NoError(t, err)
	require.NoError(t, store.DeletePodcast(context.Background(), &models.Podcast{ID: &id}))

	assert.Equal(t, 0, notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}
