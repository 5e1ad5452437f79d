package types

// Topic is one selected video topic ready for scripting
type Topic struct {
	Title       string `json:"title"`
	CategoryKey string `json:"category_key"`
	Category    string `json:"category"`
	AgeGroup    string `json:"age_group"`
	Language    string `json:"language"`
	SelectedAt  string `json:"selected_at"`
}

// ScriptSection is one narrated section of the video script
type ScriptSection struct {
	Number           int     `json:"number"`
	Title            string  `json:"title"`
	Narration        string  `json:"narration"`
	DurationSec      float64 `json:"duration_sec"`
	VisualPrompt     string  `json:"visual_prompt"`
	ImageFile        string  `json:"image_file"`
	AudioFile        string  `json:"audio_file"`
	AudioDurationSec float64 `json:"audio_duration_sec"`
}

// Script is the full structured script for one video
type Script struct {
	Topic    string          `json:"topic"`
	Title    string          `json:"title"`
	Sections []ScriptSection `json:"sections"` // intro first, outro last
	TotalSec float64         `json:"total_sec"`
}

// VideoMetadata holds all YouTube upload metadata
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Hashtags    []string `json:"hashtags"`
	Keywords    []string `json:"keywords"`
	CategoryID  string   `json:"category_id"`
	Visibility  string   `json:"visibility"`
}

// SEOScore is a 0-100 quality score with a per-field breakdown
type SEOScore struct {
	Overall         int      `json:"overall_score"`
	Title           int      `json:"title_score"`
	Description     int      `json:"description_score"`
	Tags            int      `json:"tags_score"`
	Hashtags        int      `json:"hashtags_score"`
	KeywordDensity  int      `json:"keyword_density_score"`
	Recommendations []string `json:"recommendations"`
}

// RunState tracks the full state of one pipeline run
type RunState struct {
	RunID         string         `json:"run_id"`
	StartedAt     string         `json:"started_at"`
	CompletedAt   string         `json:"completed_at"`
	Topic         *Topic         `json:"topic"`
	Script        *Script        `json:"script"`
	VoiceoverFile string         `json:"voiceover_file"`
	VideoFile     string         `json:"video_file"`
	ThumbnailFile string         `json:"thumbnail_file"`
	Metadata      *VideoMetadata `json:"metadata"`
	SEO           *SEOScore      `json:"seo"`
	YouTubeID     string         `json:"youtube_id"`
	YouTubeURL    string         `json:"youtube_url"`
	PlaylistID    string         `json:"playlist_id"`
	Error         string         `json:"error,omitempty"`
}
