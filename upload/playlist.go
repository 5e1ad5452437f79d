package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"kids-learning-pipeline/config"
)

// PlaylistManager keeps one playlist per category and adds every
// uploaded video to its category playlist. Playlist IDs are cached in a
// local JSON file to avoid list calls on every run.
type PlaylistManager struct {
	cfg       *config.Config
	cachePath string
	logger    *slog.Logger
}

func NewPlaylistManager(cfg *config.Config, logger *slog.Logger) *PlaylistManager {
	return &PlaylistManager{
		cfg:       cfg,
		cachePath: cfg.Paths.PlaylistCache,
		logger:    logger.With("stage", "playlist"),
	}
}

// AddVideo puts the video in its category playlist, creating the
// playlist on first use. Returns the playlist ID.
func (m *PlaylistManager) AddVideo(ctx context.Context, videoID, categoryKey, categoryLabel string) (string, error) {
	client, err := oauthClient(ctx)
	if err != nil {
		return "", err
	}
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("youtube service: %w", err)
	}

	playlistID, err := m.getOrCreate(ctx, svc, categoryKey, categoryLabel)
	if err != nil {
		return "", err
	}

	_, err = svc.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", wrapGoogleError(err)
	}

	m.logger.Info("video added to playlist", "video_id", videoID, "playlist_id", playlistID)
	return playlistID, nil
}

func (m *PlaylistManager) getOrCreate(ctx context.Context, svc *youtube.Service, categoryKey, categoryLabel string) (string, error) {
	cache, err := m.loadCache()
	if err != nil {
		m.logger.Warn("playlist cache unreadable, starting fresh", "error", err)
		cache = map[string]string{}
	}
	if id, ok := cache[categoryKey]; ok && id != "" {
		return id, nil
	}

	title := fmt.Sprintf("%s | Learning for Kids 2-6", categoryLabel)
	playlist, err := svc.Playlists.Insert([]string{"snippet", "status"}, &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       title,
			Description: fmt.Sprintf("Fun %s videos for toddlers and preschoolers.", categoryLabel),
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: "public"},
	}).Context(ctx).Do()
	if err != nil {
		return "", wrapGoogleError(err)
	}

	m.logger.Info("playlist created", "category", categoryKey, "playlist_id", playlist.Id)

	cache[categoryKey] = playlist.Id
	if err := m.saveCache(cache); err != nil {
		m.logger.Warn("could not save playlist cache", "error", err)
	}
	return playlist.Id, nil
}

func (m *PlaylistManager) loadCache() (map[string]string, error) {
	data, err := os.ReadFile(m.cachePath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cache map[string]string
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return cache, nil
}

func (m *PlaylistManager) saveCache(cache map[string]string) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.cachePath), 0755); err != nil {
		return err
	}
	tmp := m.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, m.cachePath)
}
