// ABOUTME: OpenAI-compatible generation client for Together-style endpoints
// ABOUTME: Implements TextGenerator and ImageGenerator on sashabaranov/go-openai

package generate

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client defaults when options are left zero.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
)

// Options configures the generation client. APIKey is required; everything
// else has a default.
type Options struct {
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoint, e.g. https://api.together.xyz/v1
	TextModel   string
	ImageModel  string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// Client implements TextGenerator and ImageGenerator against an
// OpenAI-compatible API.
type Client struct {
	api    *openai.Client
	opts   Options
	logger *slog.Logger
}

// NewClient creates a generation client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("generation API key must not be empty")
	}
	if opts.TextModel == "" {
		return nil, fmt.Errorf("text model must not be empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Client{
		api:    openai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: slog.Default().With("component", "generate"),
	}, nil
}

// GenerateText sends a chat completion request and returns the raw model
// output. Failures are returned as *Error; the caller owns retry policy.
func (c *Client) GenerateText(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: p.User,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.opts.TextModel,
		Messages:    messages,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", &Error{Op: "text", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Op: "text", Err: fmt.Errorf("no choices in response")}
	}

	c.logger.Debug("text generation complete",
		"model", c.opts.TextModel,
		"finish_reason", resp.Choices[0].FinishReason,
	)
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage requests one image as base64 and returns the decoded bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if c.opts.ImageModel == "" {
		return nil, &Error{Op: "image", Err: fmt.Errorf("no image model configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          c.opts.ImageModel,
		Prompt:         prompt,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, &Error{Op: "image", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &Error{Op: "image", Err: fmt.Errorf("no images in response")}
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, &Error{Op: "image", Err: fmt.Errorf("decoding image payload: %w", err)}
	}

	c.logger.Debug("image generation complete", "model", c.opts.ImageModel, "bytes", len(data))
	return data, nil
}

// Ensure Client implements both capabilities
var (
	_ TextGenerator  = (*Client)(nil)
	_ ImageGenerator = (*Client)(nil)
)
