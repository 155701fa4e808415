// Package generator abstracts the external text-generation service: submit a
// prompt, receive text plus observed token counts, or fail with a classified
// error.
package generator

import "context"

// Request is a single generation request.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int // 0 leaves the provider default in place
}

// Response is a successful generation result. Token counts are the provider's
// observed usage, not estimates.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client issues generation requests. Implementations classify failures with
// the error types in this package so callers can decide what is retryable.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
