// ABOUTME: Capability interfaces for external text and image generation
// ABOUTME: Defines the typed Error the coordinator propagates to callers

package generate

import "context"

// Prompt carries the user prompt and an optional system framing for one
// generation call.
type Prompt struct {
	System string
	User   string
}

// TextGenerator produces text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, p Prompt) (string, error)
}

// ImageGenerator produces image bytes from a prompt. It is invoked by
// callers downstream of the cycle coordinator, not by the coordinator
// itself.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Error wraps a failed generation call with the operation that failed.
type Error struct {
	Op  string // "text" or "image"
	Err error
}

func (e *Error) Error() string {
	return "generating " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
