package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"

	"kids-learning-pipeline/config"
	"kids-learning-pipeline/executor"
	"kids-learning-pipeline/types"
)

const metadataSystemPrompt = `You are a YouTube SEO specialist for children's educational channels (ages 2-6).
Generate metadata that helps parents find the video and satisfies YouTube Kids policies.

You MUST respond with ONLY valid JSON — no markdown, no explanation, no preamble.

The JSON must have exactly these fields:
- "title": string (max 90 chars, clear and descriptive, what the child will learn)
- "description": string (200-400 words, parent-facing, includes what kids learn and age range)
- "tags": array of up to 20 strings (early learning keywords, mix broad and specific)
- "hashtags": array of up to 5 strings without the # symbol
- "keywords": array of 3-5 primary keywords the description should emphasize

Rules:
- No clickbait, no ALL CAPS words, no emojis in the title.
- Never promise anything the video does not show.
- Mention the age range (2-6 years, toddlers, preschool).`

// Generator creates YouTube metadata for a finished video and scores it
// before upload.
type Generator struct {
	cfg    *config.Config
	client *openai.Client
	logger *slog.Logger
}

// New creates a Generator. OPENAI_API_KEY must be set.
func New(cfg *config.Config, logger *slog.Logger) (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, executor.Permanent(fmt.Errorf("OPENAI_API_KEY not set"))
	}
	return &Generator{
		cfg:    cfg,
		client: openai.NewClient(apiKey),
		logger: logger.With("stage", "metadata"),
	}, nil
}

type metadataJSON struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Hashtags    []string `json:"hashtags"`
	Keywords    []string `json:"keywords"`
}

// Run generates, cleans and scores metadata for the video.
func (g *Generator) Run(ctx context.Context, script *types.Script, topic *types.Topic) (*types.VideoMetadata, *types.SEOScore, error) {
	g.logger.Info("generating metadata", "title", script.Title)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.metadataModel(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: metadataSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildMetadataPrompt(script, topic)},
		},
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, nil, wrapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("metadata API returned no choices")
	}

	content := cleanJSON(resp.Choices[0].Message.Content)
	var raw metadataJSON
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, nil, fmt.Errorf("parse metadata JSON: %w", err)
	}

	meta := g.sanitize(raw)
	meta.CategoryID = g.cfg.Upload.CategoryID
	meta.Visibility = g.cfg.Upload.Visibility

	score := Score(meta)
	g.logger.Info("metadata ready",
		"title", meta.Title,
		"tags", len(meta.Tags),
		"seo_score", score.Overall)

	if g.cfg.Metadata.MinOverallScore > 0 && score.Overall < g.cfg.Metadata.MinOverallScore {
		g.logger.Warn("seo score below threshold",
			"score", score.Overall,
			"min", g.cfg.Metadata.MinOverallScore,
			"recommendations", strings.Join(score.Recommendations, "; "))
	}
	return meta, score, nil
}

func (g *Generator) metadataModel() string {
	if g.cfg.Metadata.Model != "" {
		return g.cfg.Metadata.Model
	}
	return g.cfg.Script.Model
}

// sanitize enforces the channel's hard rules on model output: length
// caps, no emoji, no clickbait phrasing.
func (g *Generator) sanitize(raw metadataJSON) *types.VideoMetadata {
	title := CleanTitle(raw.Title, g.cfg.Metadata.TitleMaxChars)

	tags := dedupeLower(raw.Tags)
	if len(tags) > g.cfg.Metadata.TagsMax {
		tags = tags[:g.cfg.Metadata.TagsMax]
	}

	hashtags := normalizeHashtags(raw.Hashtags)
	if len(hashtags) > g.cfg.Metadata.HashtagsMax {
		hashtags = hashtags[:g.cfg.Metadata.HashtagsMax]
	}

	description := strings.TrimSpace(raw.Description)
	if g.cfg.Metadata.ChannelName != "" && !strings.Contains(description, g.cfg.Metadata.ChannelName) {
		description += "\n\n" + g.cfg.Metadata.ChannelName
	}
	if len(hashtags) > 0 {
		description += "\n\n" + strings.Join(hashtags, " ")
	}

	return &types.VideoMetadata{
		Title:       title,
		Description: description,
		Tags:        tags,
		Hashtags:    hashtags,
		Keywords:    dedupeLower(raw.Keywords),
	}
}

func buildMetadataPrompt(script *types.Script, topic *types.Topic) string {
	var sb strings.Builder
	sb.WriteString("Generate YouTube metadata for this children's learning video.\n\n")
	sb.WriteString(fmt.Sprintf("TOPIC: %s\n", topic.Title))
	sb.WriteString(fmt.Sprintf("CATEGORY: %s\n", topic.Category))
	sb.WriteString(fmt.Sprintf("AGE GROUP: %s\n", topic.AgeGroup))
	sb.WriteString(fmt.Sprintf("DURATION: %.0f seconds\n\n", script.TotalSec))

	sb.WriteString("WHAT THE VIDEO COVERS:\n")
	for _, s := range script.Sections {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", s.Title, truncate(s.Narration, 80)))
	}
	sb.WriteString("\nRespond ONLY with valid JSON.")
	return sb.String()
}

// CleanTitle strips emoji and clickbait phrasing and enforces the cap.
func CleanTitle(title string, maxChars int) string {
	title = stripEmoji(title)
	title = stripClickbait(title)
	title = strings.Join(strings.Fields(title), " ")
	if maxChars > 0 && len(title) > maxChars {
		cut := title[:maxChars]
		if i := strings.LastIndex(cut, " "); i > maxChars/2 {
			cut = cut[:i]
		}
		title = strings.TrimRight(cut, " ,.-|")
	}
	return title
}

var clickbaitPhrases = []string{
	"you won't believe",
	"gone wrong",
	"shocking",
	"must watch",
	"watch till the end",
	"insane",
	"!!!",
}

func stripClickbait(s string) string {
	lower := strings.ToLower(s)
	for _, phrase := range clickbaitPhrases {
		for {
			i := strings.Index(lower, phrase)
			if i < 0 {
				break
			}
			s = s[:i] + s[i+len(phrase):]
			lower = strings.ToLower(s)
		}
	}
	return strings.TrimSpace(s)
}

func stripEmoji(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r > unicode.MaxLatin1 && !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeHashtags(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, h := range in {
		h = strings.TrimSpace(strings.TrimPrefix(h, "#"))
		h = strings.ReplaceAll(h, " ", "")
		if h == "" || seen[strings.ToLower(h)] {
			continue
		}
		seen[strings.ToLower(h)] = true
		out = append(out, "#"+h)
	}
	return out
}

func dedupeLower(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &executor.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	return err
}
