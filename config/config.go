package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"kids-learning-pipeline/executor"
)

type Config struct {
	Content   ContentConfig   `yaml:"content"`
	Selector  SelectorConfig  `yaml:"selector"`
	Retry     RetryConfig     `yaml:"retry"`
	Script    ScriptConfig    `yaml:"script"`
	Images    ImagesConfig    `yaml:"images"`
	Voiceover VoiceoverConfig `yaml:"voiceover"`
	Video     VideoConfig     `yaml:"video"`
	Music     MusicConfig     `yaml:"music"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Upload    UploadConfig    `yaml:"upload"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Paths     PathsConfig     `yaml:"paths"`
}

type ContentConfig struct {
	// Language mode: "en", "hi" or "both"
	Language string `yaml:"language"`
	// CategoryWeights overrides built-in catalog weights per category key
	CategoryWeights map[string]float64 `yaml:"category_weights"`
}

type SelectorConfig struct {
	ExclusionWindow int `yaml:"exclusion_window"`
	HistoryCap      int `yaml:"history_cap"`
}

// RetryPolicy is one stage's retry settings.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	BaseDelaySec      float64 `yaml:"base_delay_sec"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// Executor converts the policy to an executor config.
func (p RetryPolicy) Executor() executor.Config {
	return executor.Config{
		MaxAttempts:       p.MaxAttempts,
		BaseDelay:         time.Duration(p.BaseDelaySec * float64(time.Second)),
		BackoffMultiplier: p.BackoffMultiplier,
	}
}

func (p RetryPolicy) isZero() bool {
	return p.MaxAttempts == 0 && p.BaseDelaySec == 0 && p.BackoffMultiplier == 0
}

// RetryConfig holds the default policy plus per-stage overrides.
type RetryConfig struct {
	Default   RetryPolicy `yaml:"default"`
	Script    RetryPolicy `yaml:"script"`
	Images    RetryPolicy `yaml:"images"`
	Voiceover RetryPolicy `yaml:"voiceover"`
	Render    RetryPolicy `yaml:"render"`
	Metadata  RetryPolicy `yaml:"metadata"`
	Upload    RetryPolicy `yaml:"upload"`
}

// For returns the policy for a stage, falling back to the default.
func (r RetryConfig) For(stage string) RetryPolicy {
	policies := map[string]RetryPolicy{
		"script":    r.Script,
		"images":    r.Images,
		"voiceover": r.Voiceover,
		"render":    r.Render,
		"metadata":  r.Metadata,
		"upload":    r.Upload,
	}
	if p, ok := policies[stage]; ok && !p.isZero() {
		return p
	}
	return r.Default
}

type ScriptConfig struct {
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	TargetDurationSec int     `yaml:"target_duration_sec"`
}

type ImagesConfig struct {
	Model          string  `yaml:"model"`
	Size           string  `yaml:"size"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	UseFallback    bool    `yaml:"use_fallback"`
}

type VoiceoverConfig struct {
	VoiceID       string  `yaml:"voice_id"`
	Model         string  `yaml:"model"`
	Stability     float64 `yaml:"stability"`
	Similarity    float64 `yaml:"similarity"`
	MaxChunkChars int     `yaml:"max_chunk_chars"`
	FallbackVoice string  `yaml:"fallback_voice"`
}

type VideoConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type MusicConfig struct {
	Enabled bool `yaml:"enabled"`
	// Volume of the music bed under narration, 0.0-1.0
	Volume float64 `yaml:"volume"`
	// TrackByCategory maps a category key to a track filename in the
	// music assets dir
	TrackByCategory map[string]string `yaml:"track_by_category"`
	DefaultTrack    string            `yaml:"default_track"`
}

type MetadataConfig struct {
	Model           string `yaml:"model"`
	TitleMaxChars   int    `yaml:"title_max_chars"`
	TagsMax         int    `yaml:"tags_max"`
	HashtagsMax     int    `yaml:"hashtags_max"`
	ChannelName     string `yaml:"channel_name"`
	MinOverallScore int    `yaml:"min_overall_score"`
}

type ThumbnailConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	Font    string `yaml:"font"`
}

type UploadConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	DefaultLanguage   string `yaml:"default_language"`
	AddToPlaylist     bool   `yaml:"add_to_playlist"`
}

type ScheduleConfig struct {
	// Cron is a standard cron expression; empty disables schedule mode
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type PathsConfig struct {
	Output        string `yaml:"output"`
	Data          string `yaml:"data"`
	MusicAssets   string `yaml:"music_assets"`
	HistoryFile   string `yaml:"history_file"`
	PlaylistCache string `yaml:"playlist_cache"`
	KeepLastRuns  int    `yaml:"keep_last_runs"`
}

// Load reads and validates the YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Content.Language == "" {
		c.Content.Language = "en"
	}
	if c.Selector.ExclusionWindow == 0 && c.Selector.HistoryCap == 0 {
		c.Selector.ExclusionWindow = 5
		c.Selector.HistoryCap = 50
	}
	if c.Retry.Default.isZero() {
		c.Retry.Default = RetryPolicy{MaxAttempts: 3, BaseDelaySec: 1, BackoffMultiplier: 2}
	}
	if c.Script.Model == "" {
		c.Script.Model = "gpt-4o-mini"
	}
	if c.Script.MaxTokens == 0 {
		c.Script.MaxTokens = 4096
	}
	if c.Script.TargetDurationSec == 0 {
		c.Script.TargetDurationSec = 240
	}
	if c.Images.Size == "" {
		c.Images.Size = "1024x1024"
	}
	if c.Images.RequestsPerSec == 0 {
		c.Images.RequestsPerSec = 1
	}
	if c.Voiceover.MaxChunkChars == 0 {
		c.Voiceover.MaxChunkChars = 2500
	}
	if c.Video.Width == 0 {
		c.Video.Width = 1920
	}
	if c.Video.Height == 0 {
		c.Video.Height = 1080
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = 30
	}
	if c.Metadata.TitleMaxChars == 0 {
		c.Metadata.TitleMaxChars = 100
	}
	if c.Metadata.TagsMax == 0 {
		c.Metadata.TagsMax = 15
	}
	if c.Metadata.HashtagsMax == 0 {
		c.Metadata.HashtagsMax = 3
	}
	if c.Upload.Visibility == "" {
		c.Upload.Visibility = "private"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "27" // Education
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Data == "" {
		c.Paths.Data = "data"
	}
	if c.Paths.HistoryFile == "" {
		c.Paths.HistoryFile = "data/topic_history.json"
	}
	if c.Paths.PlaylistCache == "" {
		c.Paths.PlaylistCache = "data/playlists.json"
	}
	if c.Paths.KeepLastRuns == 0 {
		c.Paths.KeepLastRuns = 3
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Content.Language {
	case "en", "hi", "both":
	default:
		return fmt.Errorf("content.language must be en, hi or both, got %q", c.Content.Language)
	}
	for key, w := range c.Content.CategoryWeights {
		if w <= 0 {
			return fmt.Errorf("content.category_weights[%s] must be positive, got %g", key, w)
		}
	}
	if c.Selector.ExclusionWindow < 0 {
		return fmt.Errorf("selector.exclusion_window must not be negative")
	}
	if c.Selector.HistoryCap < 0 {
		return fmt.Errorf("selector.history_cap must not be negative")
	}
	for _, stage := range []string{"script", "images", "voiceover", "render", "metadata", "upload"} {
		if err := c.Retry.For(stage).Executor().Validate(); err != nil {
			return fmt.Errorf("retry policy for %s: %w", stage, err)
		}
	}
	switch c.Upload.Visibility {
	case "private", "unlisted", "public":
	default:
		return fmt.Errorf("upload.visibility must be private, unlisted or public, got %q", c.Upload.Visibility)
	}
	return nil
}
