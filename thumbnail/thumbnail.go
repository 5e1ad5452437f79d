package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/executor"
	"kids-learning-pipeline/types"
)

// Generator renders a custom thumbnail: an AI background image with the
// video title drawn on top.
type Generator struct {
	cfg        *config.Config
	client     *openai.Client
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Generator. OPENAI_API_KEY must be set.
func New(cfg *config.Config, logger *slog.Logger) (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, executor.Permanent(fmt.Errorf("OPENAI_API_KEY not set"))
	}
	return &Generator{
		cfg:        cfg,
		client:     openai.NewClient(apiKey),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.With("stage", "thumbnail"),
	}, nil
}

// Run generates the thumbnail JPEG for the video. YouTube requires
// under 2MB at 1280x720.
func (g *Generator) Run(ctx context.Context, topic *types.Topic, title, outputDir string) (string, error) {
	g.logger.Info("generating thumbnail", "topic", topic.Title)

	base := filepath.Join(outputDir, "thumbnail_base.png")
	if err := g.generateBackground(ctx, topic, base); err != nil {
		return "", fmt.Errorf("thumbnail background: %w", err)
	}

	outFile := filepath.Join(outputDir, "thumbnail.jpg")
	if err := g.overlayTitle(ctx, base, overlayText(title), outFile); err != nil {
		g.logger.Warn("title overlay failed, using plain background", "error", err)
		if err := g.plainResize(ctx, base, outFile); err != nil {
			return "", fmt.Errorf("thumbnail resize: %w", err)
		}
	}

	g.logger.Info("thumbnail ready", "file", outFile)
	return outFile, nil
}

func (g *Generator) generateBackground(ctx context.Context, topic *types.Topic, outFile string) error {
	model := g.cfg.Thumbnail.Model
	if model == "" {
		model = g.cfg.Images.Model
	}
	prompt := fmt.Sprintf(
		"YouTube thumbnail background for a children's video about %s, "+
			"cute cartoon style, very bright saturated colors, large simple shapes, "+
			"big empty area on the left for text, no text, no letters, no watermark",
		topic.Title)

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:  model,
		Prompt: prompt,
		Size:   "1792x1024",
		N:      1,
	})
	if err != nil {
		return wrapAPIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return fmt.Errorf("image API returned no image")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resp.Data[0].URL, nil)
	if err != nil {
		return err
	}
	httpResp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return &executor.HTTPError{StatusCode: httpResp.StatusCode, Message: "thumbnail download failed"}
	}
	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return err
	}
	return os.WriteFile(outFile, data, 0644)
}

// overlayTitle draws the title text on the image and resizes to the
// YouTube thumbnail frame.
func (g *Generator) overlayTitle(ctx context.Context, inFile, text, outFile string) error {
	font := g.cfg.Thumbnail.Font
	if font == "" {
		font = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
	}
	if _, err := os.Stat(font); err != nil {
		return fmt.Errorf("thumbnail font not found: %s", font)
	}

	drawtext := fmt.Sprintf(
		"drawtext=fontfile='%s':text='%s':fontcolor=white:fontsize=96:borderw=8:bordercolor=black:x=60:y=(h-text_h)/2",
		font, escapeDrawtext(text))

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", inFile,
		"-vf", "scale=1280:720:force_original_aspect_ratio=increase,crop=1280:720,"+drawtext,
		"-frames:v", "1",
		"-q:v", "2",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg drawtext: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (g *Generator) plainResize(ctx context.Context, inFile, outFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", inFile,
		"-vf", "scale=1280:720:force_original_aspect_ratio=increase,crop=1280:720",
		"-frames:v", "1",
		"-q:v", "2",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg resize: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// overlayText shortens the title to the first few words so it stays
// readable at thumbnail size.
func overlayText(title string) string {
	words := strings.Fields(title)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}

// escapeDrawtext escapes the characters ffmpeg's drawtext filter treats
// specially.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &executor.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	return err
}
