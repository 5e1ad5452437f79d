package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"kids-learning-pipeline/executor"
)

// PollinationsFetcher generates images via Pollinations.ai (free, no key
// needed). Used as a fallback when the primary image API fails.
type PollinationsFetcher struct {
	httpClient *http.Client
}

func NewPollinationsFetcher() *PollinationsFetcher {
	return &PollinationsFetcher{
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch generates one image for a section prompt and saves it locally.
func (p *PollinationsFetcher) Fetch(ctx context.Context, prompt string, sectionNum int, outputDir string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("section %d has no visual prompt", sectionNum)
	}

	// Format: https://image.pollinations.ai/prompt/{encoded_prompt}?params
	encodedPrompt := url.PathEscape(kidsStylePrompt(prompt))
	imageURL := fmt.Sprintf(
		"https://image.pollinations.ai/prompt/%s?width=1024&height=1024&nologo=true&model=flux&seed=%d",
		encodedPrompt,
		sectionNum*42+7, // deterministic seed per section for reproducibility
	)

	outFile := filepath.Join(outputDir, fmt.Sprintf("section_%02d.jpg", sectionNum))
	if err := p.downloadImage(ctx, imageURL, outFile); err != nil {
		return "", fmt.Errorf("pollinations fetch: %w", err)
	}
	return outFile, nil
}

func (p *PollinationsFetcher) downloadImage(ctx context.Context, imageURL, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; KidsLearningPipeline/1.0)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &executor.HTTPError{StatusCode: resp.StatusCode, Message: "pollinations request failed"}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Validate it's actually an image, not an error HTML page
	if len(data) < 100 {
		return fmt.Errorf("response too small (%d bytes)", len(data))
	}

	return os.WriteFile(outFile, data, 0644)
}
