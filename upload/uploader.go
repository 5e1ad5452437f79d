package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/executor"
	"kids-learning-pipeline/types"
)

// Uploader pushes the finished video to YouTube via the Data API v3 and
// optionally sets a custom thumbnail and playlist.
type Uploader struct {
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Uploader {
	return &Uploader{cfg: cfg, logger: logger.With("stage", "upload")}
}

// Run uploads the video with its metadata. Returns the video ID and
// watch URL.
func (u *Uploader) Run(ctx context.Context, videoFile, thumbnailFile string, metadata *types.VideoMetadata) (string, string, error) {
	u.logger.Info("authenticating with youtube")

	svc, err := u.service(ctx)
	if err != nil {
		return "", "", fmt.Errorf("youtube auth: %w", err)
	}

	snippet := &youtube.VideoSnippet{
		Title:                metadata.Title,
		Description:          metadata.Description,
		Tags:                 metadata.Tags,
		CategoryId:           metadata.CategoryID,
		DefaultLanguage:      u.cfg.Upload.DefaultLanguage,
		DefaultAudioLanguage: u.cfg.Upload.DefaultLanguage,
	}
	status := &youtube.VideoStatus{
		PrivacyStatus:           metadata.Visibility,
		SelfDeclaredMadeForKids: u.cfg.Upload.MadeForKids,
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		u.logger.Info("uploading video",
			"title", metadata.Title,
			"size_mb", fmt.Sprintf("%.1f", float64(fi.Size())/1024/1024))
	}

	// Resumable upload, required for files over 5MB.
	call := svc.Videos.Insert([]string{"snippet", "status"}, &youtube.Video{
		Snippet: snippet,
		Status:  status,
	})
	call.NotifySubscribers(u.cfg.Upload.NotifySubscribers)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return "", "", wrapGoogleError(err)
	}

	videoID := uploaded.Id
	videoURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	u.logger.Info("video uploaded", "video_id", videoID, "url", videoURL)

	if thumbnailFile != "" {
		if err := u.setThumbnail(ctx, svc, videoID, thumbnailFile); err != nil {
			u.logger.Warn("thumbnail upload failed", "error", err)
		}
	}

	return videoID, videoURL, nil
}

func (u *Uploader) setThumbnail(ctx context.Context, svc *youtube.Service, videoID, thumbnailFile string) error {
	f, err := os.Open(thumbnailFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = svc.Thumbnails.Set(videoID).Media(f).Context(ctx).Do()
	if err != nil {
		return wrapGoogleError(err)
	}
	u.logger.Info("thumbnail set", "video_id", videoID)
	return nil
}

// service builds an authenticated YouTube client from env credentials.
func (u *Uploader) service(ctx context.Context) (*youtube.Service, error) {
	client, err := oauthClient(ctx)
	if err != nil {
		return nil, err
	}
	return youtube.NewService(ctx, option.WithHTTPClient(client))
}

func oauthClient(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, executor.Permanent(
			fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET or YOUTUBE_REFRESH_TOKEN not set"))
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}

// wrapGoogleError converts Google API errors into status-coded errors
// for the retry classifier.
func wrapGoogleError(err error) error {
	if gErr, ok := err.(*googleapi.Error); ok && gErr.Code > 0 {
		return &executor.HTTPError{StatusCode: gErr.Code, Message: gErr.Message}
	}
	return err
}

// LogUpload saves the upload result alongside the run artifacts.
func LogUpload(videoID, videoURL, videoFile, outputDir string, metadata *types.VideoMetadata) error {
	entry := map[string]interface{}{
		"video_id":    videoID,
		"video_url":   videoURL,
		"title":       metadata.Title,
		"visibility":  metadata.Visibility,
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
		"video_file":  videoFile,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	logFile := filepath.Join(outputDir, fmt.Sprintf("upload_%s.json", time.Now().Format("20060102_150405")))
	return os.WriteFile(logFile, data, 0644)
}
