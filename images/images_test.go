package images

import (
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kids-learning-pipeline/executor"
)

func TestKidsStylePrompt(t *testing.T) {
	got := kidsStylePrompt("a red apple on a table")

	assert.True(t, strings.HasPrefix(got, "a red apple on a table"))
	assert.Contains(t, got, "cartoon")
	assert.Contains(t, got, "no text")
	assert.Contains(t, got, "no scary elements")
}

func TestWrapAPIError(t *testing.T) {
	wrapped := wrapAPIError(&openai.APIError{HTTPStatusCode: 500, Message: "server error"})

	var httpErr *executor.HTTPError
	require.ErrorAs(t, wrapped, &httpErr)
	assert.Equal(t, 500, httpErr.StatusCode)
	assert.Equal(t, executor.ClassRetryable, executor.ClassifyHTTP(wrapped))

	content := wrapAPIError(&openai.APIError{HTTPStatusCode: 400, Message: "content policy"})
	assert.Equal(t, executor.ClassFatal, executor.ClassifyHTTP(content))
}
