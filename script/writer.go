package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/executor"
	"kids-learning-pipeline/types"
)

const systemPrompt = `You are a world-class children's educational scriptwriter for ages 2-6. You write warm, simple, engaging scripts for early-learning YouTube videos.

Your scripts MUST follow this exact structure:
1. INTRO (~15 seconds) - Warm greeting, say what we will learn today.
2. BODY (3-5 sections) - One key idea per section, with a question to the young viewer.
3. OUTRO (~15 seconds) - Recap in one sentence, cheerful goodbye.

Rules:
- Short sentences, simple words a 4-year-old understands.
- Friendly, calm, encouraging tone. No fear, no violence, no complex topics.
- NO copyrighted characters, NO brand names.
- Each section needs a "visual_prompt": a bright, colorful, child-friendly illustration description.

You MUST respond with ONLY valid JSON - no preamble, no markdown, no explanation.

JSON structure:
{
  "title": "video title",
  "intro": {"narration": "...", "visual_prompt": "..."},
  "sections": [{"title": "...", "narration": "...", "visual_prompt": "..."}],
  "outro": {"narration": "...", "visual_prompt": "..."}
}`

// Narration pace for duration estimates, words per second.
const wordsPerSec = 2.5

// Writer generates structured kids scripts via the OpenAI chat API.
type Writer struct {
	cfg     *config.Config
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates a Writer. OPENAI_API_KEY must be set.
func New(cfg *config.Config, logger *slog.Logger) (*Writer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, executor.Permanent(fmt.Errorf("OPENAI_API_KEY not set"))
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai-script",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	return &Writer{
		cfg:     cfg,
		client:  openai.NewClient(apiKey),
		breaker: breaker,
		logger:  logger.With("stage", "script"),
	}, nil
}

type scriptJSON struct {
	Title    string        `json:"title"`
	Intro    sectionJSON   `json:"intro"`
	Sections []sectionJSON `json:"sections"`
	Outro    sectionJSON   `json:"outro"`
}

type sectionJSON struct {
	Title        string `json:"title"`
	Narration    string `json:"narration"`
	VisualPrompt string `json:"visual_prompt"`
}

// Run generates a full script for the selected topic.
func (w *Writer) Run(ctx context.Context, topic *types.Topic) (*types.Script, error) {
	w.logger.Info("generating script", "topic", topic.Title)

	structure := calculateStructure(w.cfg.Script.TargetDurationSec)
	userPrompt := buildUserPrompt(topic, structure)

	cbResult, err := w.breaker.Execute(func() (interface{}, error) {
		resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: w.cfg.Script.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: float32(w.cfg.Script.Temperature),
			MaxTokens:   w.cfg.Script.MaxTokens,
		})
		if err != nil {
			return nil, wrapAPIError(err)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("script API circuit open: %w", err)
		}
		return nil, fmt.Errorf("script generation: %w", err)
	}

	resp := cbResult.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("script API returned no choices")
	}

	content := cleanJSON(resp.Choices[0].Message.Content)

	var raw scriptJSON
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse script JSON: %w", err)
	}
	if len(raw.Sections) == 0 {
		return nil, fmt.Errorf("script has no body sections")
	}

	script := convertToScript(topic.Title, raw)
	w.logger.Info("script ready",
		"title", script.Title,
		"sections", len(script.Sections),
		"estimated_sec", script.TotalSec)
	return script, nil
}

// structure sizes the script by target duration.
type structure struct {
	BodySections int
	SectionSec   int
	IntroSec     int
	OutroSec     int
}

// calculateStructure picks 3-5 body sections depending on the target
// length, with fixed intro and outro bookends.
func calculateStructure(targetSec int) structure {
	s := structure{IntroSec: 15, OutroSec: 15}
	switch {
	case targetSec < 180:
		s.BodySections = 3
	case targetSec < 300:
		s.BodySections = 4
	default:
		s.BodySections = 5
	}
	body := targetSec - s.IntroSec - s.OutroSec
	if body < s.BodySections*20 {
		body = s.BodySections * 20
	}
	s.SectionSec = body / s.BodySections
	return s
}

func buildUserPrompt(topic *types.Topic, st structure) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write a children's educational video script about: %s\n\n", topic.Title))
	sb.WriteString(fmt.Sprintf("Category: %s\n", topic.Category))
	sb.WriteString(fmt.Sprintf("Audience age: %s\n", topic.AgeGroup))
	if topic.Language != "" && topic.Language != "en" {
		sb.WriteString(fmt.Sprintf("Language: %s\n", topic.Language))
	}
	sb.WriteString(fmt.Sprintf("\nStructure: INTRO (~%ds), %d body sections (~%ds each), OUTRO (~%ds).\n",
		st.IntroSec, st.BodySections, st.SectionSec, st.OutroSec))
	sb.WriteString(fmt.Sprintf("Narration word count per section should match its duration (roughly %.1f words per second).\n", wordsPerSec))
	sb.WriteString("\nRespond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String()
}

// convertToScript flattens intro/body/outro into an ordered section list
// with word-count duration estimates.
func convertToScript(topic string, raw scriptJSON) *types.Script {
	script := &types.Script{Topic: topic, Title: raw.Title}

	flat := make([]sectionJSON, 0, len(raw.Sections)+2)
	flat = append(flat, raw.Intro)
	flat = append(flat, raw.Sections...)
	flat = append(flat, raw.Outro)

	var total float64
	for i, s := range flat {
		duration := float64(len(strings.Fields(s.Narration))) / wordsPerSec
		title := s.Title
		if i == 0 && title == "" {
			title = "Intro"
		}
		if i == len(flat)-1 && title == "" {
			title = "Outro"
		}
		script.Sections = append(script.Sections, types.ScriptSection{
			Number:       i,
			Title:        title,
			Narration:    s.Narration,
			DurationSec:  duration,
			VisualPrompt: s.VisualPrompt,
		})
		total += duration
	}
	script.TotalSec = total
	return script
}

// cleanJSON strips markdown fences if the model wraps its response in
// ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// wrapAPIError converts OpenAI SDK errors into status-coded errors so
// the retry classifier works on codes, not message text.
func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &executor.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	return err
}
