package agent

import "context"

// Request contains the parameters for a single LLM call.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Response contains the text returned by the LLM.
type Response struct {
	Content string
}

// Provider is an interface for LLM API backends.
type Provider interface {
	// Call makes an LLM API call.
	Call(ctx context.Context, request Request) (*Response, error)

	// Name returns the provider name.
	Name() string
}
