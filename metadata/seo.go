package metadata

import (
	"fmt"
	"strings"

	"kids-learning-pipeline/types"
)

// Component weights for the overall score. They sum to 1.0.
const (
	weightTitle       = 0.30
	weightDescription = 0.25
	weightTags        = 0.20
	weightHashtags    = 0.10
	weightKeywords    = 0.15
)

// Score rates metadata 0-100 per component and overall, and collects
// actionable recommendations for everything that loses points.
func Score(meta *types.VideoMetadata) *types.SEOScore {
	score := &types.SEOScore{}

	score.Title = scoreTitle(meta, &score.Recommendations)
	score.Description = scoreDescription(meta, &score.Recommendations)
	score.Tags = scoreTags(meta, &score.Recommendations)
	score.Hashtags = scoreHashtags(meta, &score.Recommendations)
	score.KeywordDensity = scoreKeywordDensity(meta, &score.Recommendations)

	overall := float64(score.Title)*weightTitle +
		float64(score.Description)*weightDescription +
		float64(score.Tags)*weightTags +
		float64(score.Hashtags)*weightHashtags +
		float64(score.KeywordDensity)*weightKeywords
	score.Overall = int(overall + 0.5)
	return score
}

func scoreTitle(meta *types.VideoMetadata, recs *[]string) int {
	title := meta.Title
	if title == "" {
		*recs = append(*recs, "title is empty")
		return 0
	}

	score := 100
	n := len(title)
	switch {
	case n < 20:
		score -= 30
		*recs = append(*recs, "title is very short, aim for 30-70 characters")
	case n < 30:
		score -= 10
		*recs = append(*recs, "title could be longer for better search matching")
	case n > 70:
		score -= 15
		*recs = append(*recs, "title over 70 characters gets truncated in search results")
	}

	lower := strings.ToLower(title)
	hasKeyword := false
	for _, kw := range meta.Keywords {
		if strings.Contains(lower, kw) {
			hasKeyword = true
			break
		}
	}
	if len(meta.Keywords) > 0 && !hasKeyword {
		score -= 20
		*recs = append(*recs, "title does not contain any primary keyword")
	}
	if !strings.ContainsAny(lower, "0123456789") &&
		!strings.Contains(lower, "learn") && !strings.Contains(lower, "kids") && !strings.Contains(lower, "toddler") {
		score -= 10
		*recs = append(*recs, "title should signal learning content (kids, learn, toddler)")
	}
	return clamp(score)
}

func scoreDescription(meta *types.VideoMetadata, recs *[]string) int {
	desc := meta.Description
	if desc == "" {
		*recs = append(*recs, "description is empty")
		return 0
	}

	score := 100
	words := len(strings.Fields(desc))
	switch {
	case words < 50:
		score -= 40
		*recs = append(*recs, "description under 50 words, aim for 200-400")
	case words < 150:
		score -= 15
		*recs = append(*recs, "description is on the short side")
	case words > 600:
		score -= 10
		*recs = append(*recs, "description over 600 words, trim the filler")
	}

	lower := strings.ToLower(desc)
	if !strings.Contains(lower, "age") && !strings.Contains(lower, "toddler") && !strings.Contains(lower, "preschool") {
		score -= 15
		*recs = append(*recs, "description should mention the target age range")
	}
	return clamp(score)
}

func scoreTags(meta *types.VideoMetadata, recs *[]string) int {
	n := len(meta.Tags)
	if n == 0 {
		*recs = append(*recs, "no tags set")
		return 0
	}

	score := 100
	switch {
	case n < 5:
		score -= 30
		*recs = append(*recs, fmt.Sprintf("only %d tags, aim for 10-15", n))
	case n < 10:
		score -= 10
		*recs = append(*recs, "add a few more tags for broader reach")
	}

	long := 0
	for _, t := range meta.Tags {
		if strings.Contains(t, " ") {
			long++
		}
	}
	if long == 0 {
		score -= 15
		*recs = append(*recs, "include multi-word phrase tags, not only single words")
	}
	return clamp(score)
}

func scoreHashtags(meta *types.VideoMetadata, recs *[]string) int {
	n := len(meta.Hashtags)
	switch {
	case n == 0:
		*recs = append(*recs, "no hashtags, add 2-3")
		return 40
	case n > 5:
		*recs = append(*recs, "too many hashtags, YouTube ignores past the first few")
		return 60
	}
	return 100
}

func scoreKeywordDensity(meta *types.VideoMetadata, recs *[]string) int {
	if len(meta.Keywords) == 0 {
		*recs = append(*recs, "no primary keywords defined")
		return 50
	}
	desc := strings.ToLower(meta.Description)
	found := 0
	for _, kw := range meta.Keywords {
		if strings.Contains(desc, kw) {
			found++
		}
	}

	ratio := float64(found) / float64(len(meta.Keywords))
	switch {
	case ratio == 1:
		return 100
	case ratio >= 0.5:
		*recs = append(*recs, "some primary keywords missing from the description")
		return 75
	case ratio > 0:
		*recs = append(*recs, "most primary keywords missing from the description")
		return 50
	default:
		*recs = append(*recs, "description does not use any primary keyword")
		return 25
	}
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
