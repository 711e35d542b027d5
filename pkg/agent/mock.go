package agent

import (
	"context"
	"fmt"
)

// MockProvider is a deterministic stand-in used when no API key is
// configured. It always instructs the engine to finish immediately, so
// test sessions complete without external calls.
type MockProvider struct{}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Call returns a canned completion referencing the task prompt.
func (p *MockProvider) Call(ctx context.Context, request Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	task := request.Prompt
	if len(task) > 100 {
		task = task[:100] + "..."
	}
	content := fmt.Sprintf(
		`{"action": "done", "message": "Mock LLM response: Test completed successfully. Simulated execution for task: %s"}`,
		jsonEscape(task),
	)
	return &Response{Content: content}, nil
}

func jsonEscape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\t':
			out = append(out, '\\', 't')
		case '\r':
			out = append(out, '\\', 'r')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
