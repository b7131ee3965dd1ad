package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionPrompt(t *testing.T) {
	p, err := QuestionPrompt("sustainable_design", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, p.System)
	assert.Contains(t, p.User, "sustainable_design")
	assert.Contains(t, p.User, "3")
}

func TestQuestionPrompt_InvalidTheme(t *testing.T) {
	_, err := QuestionPrompt("", 1)
	assert.Error(t, err)

	_, err = QuestionPrompt(`design"; drop`, 1)
	assert.Error(t, err)
}

func TestFollowupQuestionPrompt(t *testing.T) {
	p, err := FollowupQuestionPrompt("design", "Buildings breathe through controlled ventilation.")
	require.NoError(t, err)
	assert.Contains(t, p.User, "Buildings breathe through controlled ventilation.")

	_, err = FollowupQuestionPrompt("design", "  ")
	assert.Error(t, err)
}

func TestAnswerPrompt(t *testing.T) {
	p, err := AnswerPrompt("design", "How do buildings breathe?")
	require.NoError(t, err)
	assert.Contains(t, p.User, "How do buildings breathe?")
	assert.Contains(t, p.User, "design")

	_, err = AnswerPrompt("design", "")
	assert.Error(t, err)
}

func TestImagePrompt(t *testing.T) {
	assert.Contains(t, ImagePrompt("urbanism", "brutalist collage"), "brutalist collage")
	assert.Contains(t, ImagePrompt("urbanism", ""), "minimalist")
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Options{TextModel: "m"})
	assert.Error(t, err, "missing API key")

	_, err = NewClient(Options{APIKey: "k"})
	assert.Error(t, err, "missing text model")

	c, err := NewClient(Options{APIKey: "k", TextModel: "m"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.opts.Timeout)
	assert.Equal(t, DefaultMaxTokens, c.opts.MaxTokens)
}
