package upload

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/executor"
	"kids-learning-pipeline/types"
)

func TestWrapGoogleError(t *testing.T) {
	quota := wrapGoogleError(&googleapi.Error{Code: 403, Message: "quotaExceeded"})
	var httpErr *executor.HTTPError
	require.ErrorAs(t, quota, &httpErr)
	assert.Equal(t, 403, httpErr.StatusCode)
	assert.Equal(t, executor.ClassFatal, executor.ClassifyHTTP(quota))

	server := wrapGoogleError(&googleapi.Error{Code: 503, Message: "backendError"})
	assert.Equal(t, executor.ClassRetryable, executor.ClassifyHTTP(server))

	plain := errors.New("network down")
	assert.Equal(t, plain, wrapGoogleError(plain))
}

func TestLogUpload(t *testing.T) {
	dir := t.TempDir()
	meta := &types.VideoMetadata{Title: "Learn Colors", Visibility: "private"}

	require.NoError(t, LogUpload("vid123", "https://www.youtube.com/watch?v=vid123", "final.mp4", dir, meta))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "vid123", entry["video_id"])
	assert.Equal(t, "Learn Colors", entry["title"])
}

func TestPlaylistCacheRoundTrip(t *testing.T) {
	cfg := &config.Config{}
	cfg.Paths.PlaylistCache = filepath.Join(t.TempDir(), "nested", "playlists.json")

	m := NewPlaylistManager(cfg, slog.Default())

	cache, err := m.loadCache()
	require.NoError(t, err)
	assert.Empty(t, cache)

	cache["numbers_counting"] = "PL123"
	require.NoError(t, m.saveCache(cache))

	loaded, err := m.loadCache()
	require.NoError(t, err)
	assert.Equal(t, "PL123", loaded["numbers_counting"])
}

func TestPlaylistCacheCorrupt(t *testing.T) {
	cfg := &config.Config{}
	cfg.Paths.PlaylistCache = filepath.Join(t.TempDir(), "playlists.json")
	require.NoError(t, os.WriteFile(cfg.Paths.PlaylistCache, []byte("{not json"), 0644))

	m := NewPlaylistManager(cfg, slog.Default())
	_, err := m.loadCache()
	assert.Error(t, err)
}
