package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/types"
)

// Creator assembles the final video: one still image per section held
// for the section's narration duration, concatenated and muxed with the
// narration track plus an optional music bed.
type Creator struct {
	cfg    *config.Config
	mixer  *MusicMixer
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Creator {
	logger = logger.With("stage", "render")
	return &Creator{
		cfg:    cfg,
		mixer:  NewMusicMixer(cfg, logger),
		logger: logger,
	}
}

// Run renders the full video for the script and returns the final MP4.
func (c *Creator) Run(ctx context.Context, script *types.Script, topic *types.Topic, narrationFile, outputDir string) (string, error) {
	c.logger.Info("starting video assembly", "sections", len(script.Sections))

	segmentsDir := filepath.Join(outputDir, "segments")
	if err := os.MkdirAll(segmentsDir, 0755); err != nil {
		return "", fmt.Errorf("create segments dir: %w", err)
	}

	var segments []string
	for _, section := range script.Sections {
		if section.ImageFile == "" {
			return "", fmt.Errorf("section %d has no image file", section.Number)
		}
		duration := section.AudioDurationSec
		if duration <= 0 {
			duration = section.DurationSec
		}

		segFile := filepath.Join(segmentsDir, fmt.Sprintf("segment_%02d.mp4", section.Number))
		if err := c.renderSegment(ctx, section.ImageFile, duration, segFile); err != nil {
			return "", fmt.Errorf("render segment %d: %w", section.Number, err)
		}
		segments = append(segments, segFile)
	}

	silentVideo := filepath.Join(outputDir, "visuals_raw.mp4")
	if err := c.concatSegments(ctx, segments, silentVideo); err != nil {
		return "", fmt.Errorf("concatenate segments: %w", err)
	}

	audioFile := narrationFile
	if c.cfg.Music.Enabled {
		mixed, err := c.mixer.Mix(ctx, topic.CategoryKey, narrationFile, outputDir)
		if err != nil {
			c.logger.Warn("music mix failed, using narration only", "error", err)
		} else {
			audioFile = mixed
		}
	}

	finalVideo := filepath.Join(outputDir, "final_video.mp4")
	if err := c.mux(ctx, silentVideo, audioFile, finalVideo); err != nil {
		return "", fmt.Errorf("combine video and audio: %w", err)
	}

	c.logger.Info("video ready", "file", finalVideo)
	return finalVideo, nil
}

// renderSegment turns a still image into a video clip of the given
// duration, scaled and padded to the output frame.
func (c *Creator) renderSegment(ctx context.Context, imageFile string, durationSec float64, outFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-loop", "1",
		"-i", imageFile,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-vf", scalePadFilter(c.cfg.Video.Width, c.cfg.Video.Height),
		"-r", fmt.Sprintf("%d", c.cfg.Video.FPS),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg segment: %w: %s", err, tail(string(out), 300))
	}
	return nil
}

func (c *Creator) concatSegments(ctx context.Context, segments []string, outFile string) error {
	if len(segments) == 0 {
		return fmt.Errorf("no segments to concatenate")
	}

	listFile := filepath.Join(filepath.Dir(outFile), "segments_concat.txt")
	var lines []string
	for _, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			return err
		}
		lines = append(lines, fmt.Sprintf("file '%s'", abs))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}
	defer os.Remove(listFile)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, tail(string(out), 300))
	}
	return nil
}

func (c *Creator) mux(ctx context.Context, videoFile, audioFile, outFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-i", audioFile,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart", // optimize for web streaming
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux: %w: %s", err, tail(string(out), 300))
	}
	return nil
}

// scalePadFilter fits any input into WxH with letterboxing.
func scalePadFilter(w, h int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		w, h, w, h)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
