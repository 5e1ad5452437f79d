package voiceover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/executor"
	"kids-learning-pipeline/types"
)

// Generator produces narration audio for every script section, using
// ElevenLabs when an API key is available and edge-tts otherwise.
type Generator struct {
	cfg    *config.Config
	client *elevenLabsClient
	exec   *executor.Executor
	logger *slog.Logger
}

// New creates a Generator. ELEVENLABS_API_KEY is optional; without it
// every section goes through the edge-tts fallback.
func New(cfg *config.Config, logger *slog.Logger) (*Generator, error) {
	logger = logger.With("stage", "voiceover")
	exec, err := executor.New(cfg.Retry.For("voiceover").Executor(),
		executor.WithClassifier(executor.ClassifyHTTP),
		executor.WithEventSink(executor.SlogSink(logger)))
	if err != nil {
		return nil, err
	}

	g := &Generator{cfg: cfg, exec: exec, logger: logger}
	if apiKey := os.Getenv("ELEVENLABS_API_KEY"); apiKey != "" {
		g.client = newElevenLabsClient(apiKey)
	} else {
		logger.Warn("ELEVENLABS_API_KEY not set, using edge-tts for all narration")
	}
	return g, nil
}

// Run generates per-section audio, measures real durations with ffprobe
// and concatenates everything into a single narration track.
func (g *Generator) Run(ctx context.Context, script *types.Script, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	for i := range script.Sections {
		section := &script.Sections[i]
		outFile := filepath.Join(outputDir, fmt.Sprintf("section_%02d.mp3", section.Number))

		g.logger.Info("generating narration", "section", section.Number, "of", len(script.Sections))

		step := fmt.Sprintf("voiceover-%02d", section.Number)
		err := g.exec.Run(ctx, step, func(ctx context.Context) error {
			return g.generateSectionAudio(ctx, section.Narration, outFile)
		})
		if err != nil {
			return "", fmt.Errorf("narration for section %d: %w", section.Number, err)
		}

		section.AudioFile = outFile
		if dur, err := audioDuration(outFile); err != nil {
			g.logger.Warn("could not measure audio duration, keeping estimate",
				"section", section.Number, "error", err)
		} else {
			section.AudioDurationSec = dur
		}
	}

	recalcTotal(script)

	finalAudio := filepath.Join(outputDir, "narration_full.mp3")
	if err := concatAudio(ctx, script, outputDir, finalAudio); err != nil {
		return "", fmt.Errorf("concatenate narration: %w", err)
	}

	g.logger.Info("narration ready", "file", finalAudio, "total_sec", script.TotalSec)
	return finalAudio, nil
}

// generateSectionAudio synthesizes one section, splitting long narration
// into chunks and merging them afterwards.
func (g *Generator) generateSectionAudio(ctx context.Context, text, outFile string) error {
	if g.client == nil {
		return g.edgeTTS(ctx, text, outFile)
	}

	chunks := chunkText(text, g.cfg.Voiceover.MaxChunkChars)
	if len(chunks) == 1 {
		audio, err := g.synthesize(ctx, chunks[0])
		if err != nil {
			return g.maybeFallback(ctx, err, text, outFile)
		}
		return os.WriteFile(outFile, audio, 0644)
	}

	dir := filepath.Dir(outFile)
	base := strings.TrimSuffix(filepath.Base(outFile), ".mp3")
	var parts []string
	for i, chunk := range chunks {
		part := filepath.Join(dir, fmt.Sprintf("%s_part%d.mp3", base, i))
		audio, err := g.synthesize(ctx, chunk)
		if err != nil {
			return g.maybeFallback(ctx, err, text, outFile)
		}
		if err := os.WriteFile(part, audio, 0644); err != nil {
			return err
		}
		parts = append(parts, part)
	}
	defer func() {
		for _, p := range parts {
			os.Remove(p)
		}
	}()
	return concatFiles(ctx, parts, outFile)
}

func (g *Generator) synthesize(ctx context.Context, text string) ([]byte, error) {
	return g.client.Synthesize(ctx,
		g.cfg.Voiceover.VoiceID,
		g.cfg.Voiceover.Model,
		text,
		g.cfg.Voiceover.Stability,
		g.cfg.Voiceover.Similarity)
}

// maybeFallback retries a failed synthesis through edge-tts unless the
// run itself was cancelled.
func (g *Generator) maybeFallback(ctx context.Context, err error, text, outFile string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if _, lookErr := exec.LookPath("edge-tts"); lookErr != nil {
		return err
	}
	g.logger.Warn("elevenlabs failed, falling back to edge-tts", "error", err)
	return g.edgeTTS(ctx, text, outFile)
}

// edgeTTS runs the free Microsoft TTS CLI (pip install edge-tts).
func (g *Generator) edgeTTS(ctx context.Context, text, outFile string) error {
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return fmt.Errorf("edge-tts not found, install it with: pip install edge-tts")
	}
	voice := g.cfg.Voiceover.FallbackVoice
	if voice == "" {
		voice = "en-US-AnaNeural"
	}
	cmd := exec.CommandContext(ctx, "edge-tts",
		"--voice", voice,
		"--text", text,
		"--write-media", outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("edge-tts: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// chunkText splits long narration at sentence boundaries so each API
// request stays under the character limit.
func chunkText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	sentences := splitSentences(text)
	var chunks []string
	var current strings.Builder
	for _, s := range sentences {
		if current.Len() > 0 && current.Len()+1+len(s) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitSentences breaks text on ./!/? keeping the terminator attached.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func recalcTotal(script *types.Script) {
	var total float64
	for _, s := range script.Sections {
		if s.AudioDurationSec > 0 {
			total += s.AudioDurationSec
		} else {
			total += s.DurationSec
		}
	}
	script.TotalSec = total
}

// concatAudio joins all section audio files in order via ffmpeg concat.
func concatAudio(ctx context.Context, script *types.Script, audioDir, outputFile string) error {
	var files []string
	for _, section := range script.Sections {
		if section.AudioFile != "" {
			files = append(files, section.AudioFile)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no section audio files to concatenate")
	}
	return concatFiles(ctx, files, outputFile)
}

func concatFiles(ctx context.Context, files []string, outputFile string) error {
	listFile := filepath.Join(filepath.Dir(outputFile), "concat_list.txt")
	var lines []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
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
		outputFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, tail(string(out), 300))
	}
	return nil
}

// audioDuration uses ffprobe for the accurate duration in seconds.
func audioDuration(audioFile string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioFile,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
