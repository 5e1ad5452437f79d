package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/executor"
	"kids-learning-pipeline/types"
)

// Generator creates one illustration per script section via the DALL-E
// API, with an optional free fallback when a generation keeps failing.
type Generator struct {
	cfg        *config.Config
	client     *openai.Client
	httpClient *http.Client
	limiter    *rate.Limiter
	exec       *executor.Executor
	fallback   *PollinationsFetcher
	logger     *slog.Logger
}

// New creates a Generator. OPENAI_API_KEY must be set.
func New(cfg *config.Config, logger *slog.Logger) (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, executor.Permanent(fmt.Errorf("OPENAI_API_KEY not set"))
	}

	logger = logger.With("stage", "images")
	exec, err := executor.New(cfg.Retry.For("images").Executor(),
		executor.WithClassifier(executor.ClassifyHTTP),
		executor.WithEventSink(executor.SlogSink(logger)))
	if err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:        cfg,
		client:     openai.NewClient(apiKey),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.Images.RequestsPerSec), 1),
		exec:       exec,
		logger:     logger,
	}
	if cfg.Images.UseFallback {
		g.fallback = NewPollinationsFetcher()
	}
	return g, nil
}

// Run generates an image for every section and records the file path on
// the section. A section whose generation fails even through the
// fallback fails the whole stage.
func (g *Generator) Run(ctx context.Context, script *types.Script, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create images dir: %w", err)
	}

	for i := range script.Sections {
		section := &script.Sections[i]
		if section.VisualPrompt == "" {
			return fmt.Errorf("section %d has no visual prompt", section.Number)
		}

		outFile := filepath.Join(outputDir, fmt.Sprintf("section_%02d.png", section.Number))
		g.logger.Info("generating image", "section", section.Number, "of", len(script.Sections))

		step := fmt.Sprintf("image-%02d", section.Number)
		path, err := executor.Do(ctx, g.exec, step, func(ctx context.Context) (string, error) {
			return g.generateOne(ctx, section.VisualPrompt, outFile)
		})
		if err != nil && g.fallback != nil && !errors.Is(err, context.Canceled) {
			g.logger.Warn("falling back to pollinations", "section", section.Number, "error", err)
			path, err = g.fallback.Fetch(ctx, section.VisualPrompt, section.Number, outputDir)
		}
		if err != nil {
			return fmt.Errorf("image for section %d: %w", section.Number, err)
		}

		section.ImageFile = path
	}

	g.logger.Info("all images ready", "count", len(script.Sections))
	return nil
}

func (g *Generator) generateOne(ctx context.Context, prompt, outFile string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:  g.cfg.Images.Model,
		Prompt: kidsStylePrompt(prompt),
		Size:   g.cfg.Images.Size,
		N:      1,
	})
	if err != nil {
		return "", wrapAPIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image API returned no image")
	}

	if err := g.download(ctx, resp.Data[0].URL, outFile); err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	return outFile, nil
}

func (g *Generator) download(ctx context.Context, url, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &executor.HTTPError{StatusCode: resp.StatusCode, Message: "image download failed"}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) < 100 {
		return fmt.Errorf("image response too small (%d bytes)", len(data))
	}
	return os.WriteFile(outFile, data, 0644)
}

// kidsStylePrompt wraps a visual prompt with the fixed child-safe style
// modifiers every illustration uses.
func kidsStylePrompt(base string) string {
	return base + ", cute cartoon illustration for toddlers, bright cheerful colors, " +
		"soft rounded shapes, simple flat style, no text, no scary elements, no brand logos"
}

func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &executor.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	return err
}
