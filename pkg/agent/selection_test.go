package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSelectProvider_Priority tests google > openai > anthropic ordering
func TestSelectProvider_Priority(t *testing.T) {
	logger := zerolog.Nop()

	p := SelectProvider(Credentials{
		GoogleAPIKey:    "g",
		OpenAIAPIKey:    "o",
		AnthropicAPIKey: "a",
	}, logger)
	assert.Equal(t, "gemini", p.Name())

	p = SelectProvider(Credentials{OpenAIAPIKey: "o", AnthropicAPIKey: "a"}, logger)
	assert.Equal(t, "openai", p.Name())

	p = SelectProvider(Credentials{AnthropicAPIKey: "a"}, logger)
	assert.Equal(t, "anthropic", p.Name())
}

// TestSelectProvider_NoCredentials tests the mock fallback
func TestSelectProvider_NoCredentials(t *testing.T) {
	p := SelectProvider(Credentials{}, zerolog.Nop())
	assert.Equal(t, "mock", p.Name())
}

// TestCredentials_Merge tests non-empty overlay
func TestCredentials_Merge(t *testing.T) {
	base := Credentials{GoogleAPIKey: "env-g", OpenAIAPIKey: "env-o"}
	merged := base.Merge(Credentials{OpenAIAPIKey: "file-o", AnthropicAPIKey: "file-a"})

	assert.Equal(t, "env-g", merged.GoogleAPIKey)
	assert.Equal(t, "file-o", merged.OpenAIAPIKey)
	assert.Equal(t, "file-a", merged.AnthropicAPIKey)
}

// TestMockProvider_Call tests the canned done reply
func TestMockProvider_Call(t *testing.T) {
	p := NewMockProvider()

	resp, err := p.Call(context.Background(), Request{Prompt: "Test Case: smoke"})
	require.NoError(t, err)

	act, ok := parseAction(resp.Content)
	require.True(t, ok)
	assert.Equal(t, "done", act.Action)
	assert.Contains(t, act.Message, "Mock LLM response")
	assert.Contains(t, act.Message, "Test Case: smoke")
}

// TestMockProvider_Call_TruncatesLongTasks tests prompt truncation
func TestMockProvider_Call_TruncatesLongTasks(t *testing.T) {
	p := NewMockProvider()

	long := strings.Repeat("x", 300)
	resp, err := p.Call(context.Background(), Request{Prompt: long})
	require.NoError(t, err)

	act, ok := parseAction(resp.Content)
	require.True(t, ok)
	assert.Contains(t, act.Message, strings.Repeat("x", 100)+"...")
	assert.NotContains(t, act.Message, strings.Repeat("x", 101))
}

// TestMockProvider_Call_CancelledContext tests context handling
func TestMockProvider_Call_CancelledContext(t *testing.T) {
	p := NewMockProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Call(ctx, Request{Prompt: "task"})
	assert.ErrorIs(t, err, context.Canceled)
}
