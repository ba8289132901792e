package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshPodcastTask(t *testing.T) {
	task, err := NewRefreshPodcastTask(5, "https://example.com/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, TypeRefreshPodcast, task.Type())

	var payload RefreshPodcastTaskPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(5), payload.PodcastID)
	assert.Equal(t, "https://example.com/feed.xml", payload.FeedURL)
}

func TestNewRefreshAllPodcastsTask(t *testing.T) {
	task, err := NewRefreshAllPodcastsTask()
	require.NoError(t, err)
	assert.Equal(t, TypeRefreshAllPodcasts, task.Type())
	assert.Empty(t, task.Payload())
}
