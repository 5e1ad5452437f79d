package voiceover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kids-learning-pipeline/executor"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// elevenLabsClient is a thin HTTP client for the ElevenLabs TTS API.
type elevenLabsClient struct {
	apiKey     string
	httpClient *http.Client
}

func newElevenLabsClient(apiKey string) *elevenLabsClient {
	return &elevenLabsClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to MP3 audio using the given voice.
func (c *elevenLabsClient) Synthesize(ctx context.Context, voiceID, modelID, text string, stability, similarity float64) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       stability,
			SimilarityBoost: similarity,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", elevenLabsBaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &executor.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("elevenlabs: %s", bytes.TrimSpace(msg)),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) < 100 {
		return nil, fmt.Errorf("elevenlabs returned %d bytes, expected audio", len(audio))
	}
	return audio, nil
}
