// Package llm abstracts the language-model service used for intent
// translation. The core pipeline treats the model as an opaque,
// failable collaborator: given a prompt it returns text; retries and
// timeouts live here, not in the validation core.
package llm

import (
	"context"
	"time"
)

// Request is a single generation request.
type Request struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	TopP         float64
}

// Response carries the generated text plus cost accounting.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Elapsed          time.Duration
}

// Tokens returns the total token count of the exchange.
func (r *Response) Tokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Client is implemented by LLM providers.
type Client interface {
	// Generate produces a completion for the request. It honors ctx
	// cancellation and returns an error on transport or provider
	// failure.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name for logging and metrics.
	Name() string
}
