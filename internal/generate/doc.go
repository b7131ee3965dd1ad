// Package generate defines the external text and image generation
// capabilities the engine depends on, and an OpenAI-compatible client that
// implements them. The engine never retries generation calls itself;
// retry and backoff policy belongs to the caller.
package generate
