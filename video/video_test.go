package video

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"kids-learning-pipeline/config"
)

func TestScalePadFilter(t *testing.T) {
	got := scalePadFilter(1920, 1080)
	assert.Equal(t,
		"scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,setsar=1",
		got)
}

func TestMusicMixFilter(t *testing.T) {
	got := musicMixFilter(0.15)
	assert.Equal(t, "[1:a]volume=0.15[bed];[0:a][bed]amix=inputs=2:duration=first:normalize=0[aout]", got)
}

func TestTrackForCategoryAndDefault(t *testing.T) {
	cfg := &config.Config{}
	cfg.Music.TrackByCategory = map[string]string{"numbers_counting": "counting_fun.mp3"}
	cfg.Music.DefaultTrack = "gentle_piano.mp3"
	cfg.Paths.MusicAssets = "assets/music"

	m := NewMusicMixer(cfg, slog.Default())

	assert.Equal(t, filepath.Join("assets/music", "counting_fun.mp3"), m.trackFor("numbers_counting"))
	assert.Equal(t, filepath.Join("assets/music", "gentle_piano.mp3"), m.trackFor("emotions"))
}

func TestTrackForAbsolutePath(t *testing.T) {
	cfg := &config.Config{}
	cfg.Music.DefaultTrack = "/srv/music/calm.mp3"

	m := NewMusicMixer(cfg, slog.Default())
	assert.Equal(t, "/srv/music/calm.mp3", m.trackFor("anything"))
}

func TestTrackForNoTracks(t *testing.T) {
	m := NewMusicMixer(&config.Config{}, slog.Default())
	assert.Equal(t, "", m.trackFor("emotions"))
}
