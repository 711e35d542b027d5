package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays a fixed sequence of replies
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
	prompts []string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Call(ctx context.Context, req Request) (*Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, req.Prompt)
	if p.err != nil {
		return nil, p.err
	}
	reply := p.replies[len(p.replies)-1]
	if p.calls < len(p.replies) {
		reply = p.replies[p.calls]
	}
	p.calls++
	return &Response{Content: reply}, nil
}

// fakePage records browser actions
type fakePage struct {
	mu      sync.Mutex
	actions []string
	url     string
	text    string
	navErr  error
	closed  bool
}

func (p *fakePage) Navigate(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, "navigate:"+url)
	if p.navErr != nil {
		return p.navErr
	}
	p.url = url
	return nil
}

func (p *fakePage) Click(selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, "click:"+selector)
	return nil
}

func (p *fakePage) Type(selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, "type:"+selector+"="+text)
	return nil
}

func (p *fakePage) Text() (string, error) { return p.text, nil }
func (p *fakePage) URL() string           { return p.url }

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func newTestEngine(provider Provider, p *fakePage, maxSteps int) *LLMEngine {
	e := NewLLMEngine(Options{
		Provider: provider,
		MaxSteps: maxSteps,
		Logger:   zerolog.Nop(),
	})
	e.newPage = func(ctx context.Context) (page, error) { return p, nil }
	return e
}

// TestLLMEngine_Run_NavigateThenDone tests a two-step run
func TestLLMEngine_Run_NavigateThenDone(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`{"action": "navigate", "value": "https://example.com"}`,
		`{"action": "done", "message": "login page loads correctly"}`,
	}}
	p := &fakePage{text: "Welcome"}
	engine := newTestEngine(provider, p, 10)

	outcome, err := engine.Run(context.Background(), "Test Case: smoke")
	require.NoError(t, err)

	completion, ok := outcome.(Completion)
	require.True(t, ok)
	assert.True(t, completion.Done)
	assert.Equal(t, "login page loads correctly", completion.Message)
	assert.Equal(t, 2, completion.Steps)

	assert.Equal(t, []string{"navigate:https://example.com"}, p.actions)
	assert.True(t, p.closed)

	// The second prompt carries the action history.
	require.Len(t, provider.prompts, 2)
	assert.Contains(t, provider.prompts[1], "Actions taken so far")
	assert.Contains(t, provider.prompts[1], "navigate https://example.com -> ok")
}

// TestLLMEngine_Run_ProseReplyEndsRun tests that a non-JSON reply is
// treated as the final summary
func TestLLMEngine_Run_ProseReplyEndsRun(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"Everything looks fine, the test passed."}}
	engine := newTestEngine(provider, &fakePage{}, 10)

	outcome, err := engine.Run(context.Background(), "task")
	require.NoError(t, err)

	completion := outcome.(Completion)
	assert.True(t, completion.Done)
	assert.Equal(t, "Everything looks fine, the test passed.", completion.Message)
}

// TestLLMEngine_Run_StepLimit tests the step budget
func TestLLMEngine_Run_StepLimit(t *testing.T) {
	provider := &scriptedProvider{replies: []string{`{"action": "click", "selector": "#next"}`}}
	engine := newTestEngine(provider, &fakePage{}, 3)

	outcome, err := engine.Run(context.Background(), "task")
	require.NoError(t, err)

	completion := outcome.(Completion)
	assert.False(t, completion.Done)
	assert.Equal(t, 3, completion.Steps)
	assert.Contains(t, completion.Message, "step limit")
	assert.Equal(t, 3, provider.calls)
}

// TestLLMEngine_Run_ProviderError tests provider failure propagation
func TestLLMEngine_Run_ProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("rate limited")}
	engine := newTestEngine(provider, &fakePage{}, 5)

	_, err := engine.Run(context.Background(), "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

// TestLLMEngine_Run_CancelledContext tests context cancellation
func TestLLMEngine_Run_CancelledContext(t *testing.T) {
	provider := &scriptedProvider{replies: []string{`{"action": "click", "selector": "#x"}`}}
	engine := newTestEngine(provider, &fakePage{}, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, "task")
	assert.ErrorIs(t, err, context.Canceled)
}

// TestLLMEngine_Run_ActionErrorIsReported tests that failed browser
// actions feed back into the next prompt instead of ending the run
func TestLLMEngine_Run_ActionErrorIsReported(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`{"action": "navigate", "value": "https://down.example.com"}`,
		`{"action": "done", "message": "site unreachable"}`,
	}}
	p := &fakePage{navErr: errors.New("dns failure")}
	engine := newTestEngine(provider, p, 10)

	outcome, err := engine.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.True(t, outcome.(Completion).Done)

	require.Len(t, provider.prompts, 2)
	assert.Contains(t, provider.prompts[1], "error: dns failure")
}

// TestParseAction tests JSON extraction from model replies
func TestParseAction(t *testing.T) {
	act, ok := parseAction(`{"action": "click", "selector": "#submit"}`)
	require.True(t, ok)
	assert.Equal(t, "click", act.Action)
	assert.Equal(t, "#submit", act.Selector)

	// JSON embedded in prose still parses.
	act, ok = parseAction("Sure, next I will do: {\"action\": \"type\", \"selector\": \"#q\", \"value\": \"hello\"}")
	require.True(t, ok)
	assert.Equal(t, "type", act.Action)
	assert.Equal(t, "hello", act.Value)

	_, ok = parseAction("no json here")
	assert.False(t, ok)

	_, ok = parseAction(`{"selector": "#x"}`)
	assert.False(t, ok)

	_, ok = parseAction(`{broken`)
	assert.False(t, ok)
}
