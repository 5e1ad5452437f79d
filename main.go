package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/executor"
	"kids-learning-pipeline/images"
	"kids-learning-pipeline/metadata"
	"kids-learning-pipeline/script"
	"kids-learning-pipeline/selector"
	"kids-learning-pipeline/thumbnail"
	"kids-learning-pipeline/topics"
	"kids-learning-pipeline/types"
	"kids-learning-pipeline/upload"
	"kids-learning-pipeline/video"
	"kids-learning-pipeline/voiceover"
)

func main() {
	// Load .env for local dev; CI injects secrets directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	scheduled := flag.Bool("schedule", false, "run on the cron schedule from config instead of once")
	flag.Parse()

	logger := newLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *scheduled && cfg.Schedule.Cron != "" {
		runScheduled(ctx, cfg, logger)
		return
	}

	if err := runOnce(ctx, cfg, logger); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		_ = level.UnmarshalText([]byte(l))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func runScheduled(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	loc := time.Local
	if cfg.Schedule.Timezone != "" {
		l, err := time.LoadLocation(cfg.Schedule.Timezone)
		if err != nil {
			logger.Error("invalid timezone", "timezone", cfg.Schedule.Timezone, "error", err)
			os.Exit(1)
		}
		loc = l
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(cfg.Schedule.Cron, func() {
		if err := runOnce(ctx, cfg, logger); err != nil {
			logger.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid cron expression", "cron", cfg.Schedule.Cron, "error", err)
		os.Exit(1)
	}

	logger.Info("scheduler started", "cron", cfg.Schedule.Cron, "timezone", loc.String())
	c.Start()
	<-ctx.Done()
	cronCtx := c.Stop()
	<-cronCtx.Done()
	logger.Info("scheduler stopped")
}

// runOnce executes the full pipeline: select a topic, write the script,
// generate images and narration, render, score metadata, upload.
func runOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	logger = logger.With("run_id", runID)
	logger.Info("pipeline starting", "output", runDir)

	state := &types.RunState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveJSON(logger, filepath.Join(runDir, "run_state.json"), state)
	}()

	fail := func(stage string, err error) error {
		state.Error = fmt.Sprintf("%s: %v", stage, err)
		return fmt.Errorf("%s: %w", stage, err)
	}

	// Topic selection
	topic, err := selectTopic(cfg, logger)
	if err != nil {
		return fail("topic selection", err)
	}
	state.Topic = topic
	saveJSON(logger, filepath.Join(runDir, "topic.json"), topic)
	logger.Info("topic selected", "category", topic.Category, "title", topic.Title)

	// Script
	writer, err := script.New(cfg, logger)
	if err != nil {
		return fail("script init", err)
	}
	var scriptData *types.Script
	if err := stageExec(cfg, logger, "script", func(e *executor.Executor) error {
		return e.Run(ctx, "script", func(ctx context.Context) error {
			var err error
			scriptData, err = writer.Run(ctx, topic)
			return err
		})
	}); err != nil {
		return fail("script", err)
	}
	state.Script = scriptData
	saveJSON(logger, filepath.Join(runDir, "script.json"), scriptData)

	// Images
	imageGen, err := images.New(cfg, logger)
	if err != nil {
		return fail("images init", err)
	}
	if err := imageGen.Run(ctx, scriptData, filepath.Join(runDir, "images")); err != nil {
		return fail("images", err)
	}
	saveJSON(logger, filepath.Join(runDir, "script.json"), scriptData)

	// Voiceover
	voiceGen, err := voiceover.New(cfg, logger)
	if err != nil {
		return fail("voiceover init", err)
	}
	narrationFile, err := voiceGen.Run(ctx, scriptData, filepath.Join(runDir, "audio"))
	if err != nil {
		return fail("voiceover", err)
	}
	state.VoiceoverFile = narrationFile
	saveJSON(logger, filepath.Join(runDir, "script.json"), scriptData)

	// Render
	creator := video.New(cfg, logger)
	var finalVideo string
	if err := stageExec(cfg, logger, "render", func(e *executor.Executor) error {
		return e.Run(ctx, "render", func(ctx context.Context) error {
			var err error
			finalVideo, err = creator.Run(ctx, scriptData, topic, narrationFile, runDir)
			return err
		})
	}); err != nil {
		return fail("render", err)
	}
	state.VideoFile = finalVideo

	// Metadata + SEO
	metaGen, err := metadata.New(cfg, logger)
	if err != nil {
		return fail("metadata init", err)
	}
	var meta *types.VideoMetadata
	var seo *types.SEOScore
	if err := stageExec(cfg, logger, "metadata", func(e *executor.Executor) error {
		return e.Run(ctx, "metadata", func(ctx context.Context) error {
			var err error
			meta, seo, err = metaGen.Run(ctx, scriptData, topic)
			return err
		})
	}); err != nil {
		return fail("metadata", err)
	}
	state.Metadata = meta
	state.SEO = seo
	saveJSON(logger, filepath.Join(runDir, "metadata.json"), meta)
	saveJSON(logger, filepath.Join(runDir, "seo_score.json"), seo)

	// Thumbnail (best effort)
	if cfg.Thumbnail.Enabled {
		thumbGen, err := thumbnail.New(cfg, logger)
		if err != nil {
			logger.Warn("thumbnail init failed, continuing without", "error", err)
		} else if thumbFile, err := thumbGen.Run(ctx, topic, meta.Title, runDir); err != nil {
			logger.Warn("thumbnail failed, continuing without", "error", err)
		} else {
			state.ThumbnailFile = thumbFile
		}
	}

	// Upload
	if cfg.Upload.Enabled {
		uploader := upload.New(cfg, logger)
		var videoID, videoURL string
		if err := stageExec(cfg, logger, "upload", func(e *executor.Executor) error {
			return e.Run(ctx, "upload", func(ctx context.Context) error {
				var err error
				videoID, videoURL, err = uploader.Run(ctx, finalVideo, state.ThumbnailFile, meta)
				return err
			})
		}); err != nil {
			return fail("upload", err)
		}
		state.YouTubeID = videoID
		state.YouTubeURL = videoURL
		_ = upload.LogUpload(videoID, videoURL, finalVideo, runDir, meta)

		if cfg.Upload.AddToPlaylist {
			pm := upload.NewPlaylistManager(cfg, logger)
			playlistID, err := pm.AddVideo(ctx, videoID, topic.CategoryKey, topic.Category)
			if err != nil {
				logger.Warn("playlist add failed", "error", err)
			} else {
				state.PlaylistID = playlistID
			}
		}
		logger.Info("pipeline complete", "url", videoURL)
	} else {
		logger.Info("upload disabled, pipeline complete", "video", finalVideo)
	}

	cleanupOldRuns(cfg, logger, runID)
	return nil
}

// selectTopic wires the weighted selector with the built-in catalog and
// persisted history, then resolves a concrete topic.
func selectTopic(cfg *config.Config, logger *slog.Logger) (*types.Topic, error) {
	lang := cfg.Content.Language
	catalog := topics.Catalog(lang, cfg.Content.CategoryWeights)
	store := selector.NewFileStore(cfg.Paths.HistoryFile)
	library := topics.NewLibrary()

	sel, err := selector.New(catalog, store, library, selector.Config{
		ExclusionWindow: cfg.Selector.ExclusionWindow,
		HistoryCap:      cfg.Selector.HistoryCap,
	}, selector.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	selection, err := sel.Select(lang)
	if err != nil {
		var persistErr *selector.PersistError
		if !errors.As(err, &persistErr) {
			return nil, err
		}
		logger.Warn("topic history not persisted", "error", persistErr)
	}

	return &types.Topic{
		Title:       selection.Topic,
		CategoryKey: selection.Category.Key,
		Category:    selection.Category.Label,
		AgeGroup:    topics.AgeGroup,
		Language:    lang,
		SelectedAt:  selection.SelectedAt.UTC().Format(time.RFC3339),
	}, nil
}

// stageExec builds the per-stage retry executor and runs the stage
// through it.
func stageExec(cfg *config.Config, logger *slog.Logger, stage string, run func(*executor.Executor) error) error {
	e, err := executor.New(cfg.Retry.For(stage).Executor(),
		executor.WithClassifier(executor.ClassifyHTTP),
		executor.WithEventSink(executor.SlogSink(logger.With("stage", stage))))
	if err != nil {
		return err
	}
	return run(e)
}

// cleanupOldRuns keeps the most recent N run directories and removes
// the rest.
func cleanupOldRuns(cfg *config.Config, logger *slog.Logger, currentRunID string) {
	keep := cfg.Paths.KeepLastRuns
	if keep <= 0 {
		return
	}

	entries, err := os.ReadDir(cfg.Paths.Output)
	if err != nil {
		return
	}

	type runDir struct {
		name string
		mod  time.Time
	}
	var runs []runDir
	for _, e := range entries {
		if !e.IsDir() || e.Name() == currentRunID {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		runs = append(runs, runDir{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].mod.After(runs[j].mod) })

	// The current run counts toward the keep total.
	for i := keep - 1; i < len(runs); i++ {
		path := filepath.Join(cfg.Paths.Output, runs[i].name)
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("could not remove old run dir", "dir", path, "error", err)
		} else {
			logger.Info("removed old run dir", "dir", path)
		}
	}
}

func saveJSON(logger *slog.Logger, path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Warn("could not marshal artifact", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warn("could not save artifact", "path", path, "error", err)
	}
}
