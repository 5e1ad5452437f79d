package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"kids-learning-pipeline/config"
)

// MusicMixer lays a quiet music bed under the narration. Each category
// can have its own track; missing tracks just skip the mix.
type MusicMixer struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewMusicMixer(cfg *config.Config, logger *slog.Logger) *MusicMixer {
	return &MusicMixer{cfg: cfg, logger: logger}
}

// Mix blends the category's music track under the narration. The track
// is looped to cover the full narration and ducked to the configured
// volume. Returns the narration file unchanged when no track exists.
func (m *MusicMixer) Mix(ctx context.Context, categoryKey, narrationFile, outputDir string) (string, error) {
	track := m.trackFor(categoryKey)
	if track == "" {
		m.logger.Warn("no music track for category, skipping music bed", "category", categoryKey)
		return narrationFile, nil
	}
	if _, err := os.Stat(track); err != nil {
		m.logger.Warn("music track missing, skipping music bed", "track", track)
		return narrationFile, nil
	}

	volume := m.cfg.Music.Volume
	if volume <= 0 || volume >= 1 {
		volume = 0.15
	}

	outFile := filepath.Join(outputDir, "audio_with_music.mp3")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", narrationFile,
		"-stream_loop", "-1",
		"-i", track,
		"-filter_complex", musicMixFilter(volume),
		"-map", "[aout]",
		"-c:a", "libmp3lame",
		"-q:a", "2",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg music mix: %w: %s", err, tail(string(out), 300))
	}

	m.logger.Info("music bed mixed", "track", filepath.Base(track), "volume", volume)
	return outFile, nil
}

// trackFor resolves the music file for a category, falling back to the
// default track.
func (m *MusicMixer) trackFor(categoryKey string) string {
	name := m.cfg.Music.TrackByCategory[categoryKey]
	if name == "" {
		name = m.cfg.Music.DefaultTrack
	}
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.cfg.Paths.MusicAssets, name)
}

// musicMixFilter ducks the music under the narration and ends the mix
// with the narration.
func musicMixFilter(volume float64) string {
	return fmt.Sprintf("[1:a]volume=%.2f[bed];[0:a][bed]amix=inputs=2:duration=first:normalize=0[aout]", volume)
}
