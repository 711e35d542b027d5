package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdeepam/ai-test-tool/pkg/agent"
	"github.com/pdeepam/ai-test-tool/pkg/browser"
	"github.com/pdeepam/ai-test-tool/pkg/testcase"
)

// fakeProvider is a scriptable browser.Provider for testing
type fakeProvider struct {
	mu             sync.Mutex
	attachErr      error
	provisionErr   error
	attachCalls    int
	provisionCalls int
	releaseCalls   int
	releaseErr     error
	lastProfile    browser.Profile
}

func (f *fakeProvider) AttachExisting(ctx context.Context, cdpURL string) (*browser.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachCalls++
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	return &browser.Resource{}, nil
}

func (f *fakeProvider) ProvisionIsolated(ctx context.Context, profile browser.Profile) (*browser.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisionCalls++
	f.lastProfile = profile
	if f.provisionErr != nil {
		return nil, f.provisionErr
	}
	return &browser.Resource{}, nil
}

func (f *fakeProvider) Release(res *browser.Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
	return f.releaseErr
}

// fakeEngine is a scriptable agent.Engine for testing
type fakeEngine struct {
	outcome any
	err     error
	doPanic bool
}

func (f *fakeEngine) Run(ctx context.Context, task string) (any, error) {
	if f.doPanic {
		panic("engine blew up")
	}
	return f.outcome, f.err
}

func newTestController(t *testing.T, provider *fakeProvider, engine *fakeEngine) *Controller {
	t.Helper()
	ctrl, err := NewController(Options{
		Provider: provider,
		Engines: func(res *browser.Resource, cfg testcase.RunConfig) agent.Engine {
			return engine
		},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return ctrl
}

func controllerSpec() testcase.Spec {
	return testcase.Spec{
		ID:        "tc-1",
		Name:      "Checkout",
		TargetURL: "https://example.com",
		Steps:     []string{"add to cart", "pay"},
	}
}

// TestNewController_Validation tests constructor requirements
func TestNewController_Validation(t *testing.T) {
	_, err := NewController(Options{Engines: func(res *browser.Resource, cfg testcase.RunConfig) agent.Engine { return nil }})
	assert.Error(t, err)

	_, err = NewController(Options{Provider: &fakeProvider{}})
	assert.Error(t, err)
}

// TestController_Create tests handle creation with an isolated browser
func TestController_Create(t *testing.T) {
	provider := &fakeProvider{}
	ctrl := newTestController(t, provider, &fakeEngine{})

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{Headless: true})
	require.NoError(t, err)

	assert.Equal(t, StateReady, h.State())
	assert.Contains(t, h.ID, "agent_tc-1_")
	assert.Equal(t, 1, provider.provisionCalls)
	assert.Equal(t, 0, provider.attachCalls)
	assert.True(t, provider.lastProfile.Headless)
	assert.True(t, provider.lastProfile.NoSandbox)
}

// TestController_Create_ProvisioningError tests the provisioning failure path
func TestController_Create_ProvisioningError(t *testing.T) {
	provider := &fakeProvider{provisionErr: errors.New("no chrome binary")}
	ctrl := newTestController(t, provider, &fakeEngine{})

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{})
	require.Error(t, err)
	assert.Nil(t, h)
	assert.True(t, IsProvisioning(err))
	assert.Contains(t, err.Error(), "tc-1")
}

// TestController_Create_AttachPreferred tests existing-browser reuse
func TestController_Create_AttachPreferred(t *testing.T) {
	provider := &fakeProvider{}
	ctrl := newTestController(t, provider, &fakeEngine{})

	cfg := testcase.RunConfig{UseExistingBrowser: true, CDPURL: "ws://localhost:9222"}
	h, err := ctrl.Create(context.Background(), controllerSpec(), cfg)
	require.NoError(t, err)

	assert.Equal(t, StateReady, h.State())
	assert.Equal(t, 1, provider.attachCalls)
	assert.Equal(t, 0, provider.provisionCalls)
}

// TestController_Create_AttachFallback tests falling back to an isolated
// browser when the shared one is unreachable
func TestController_Create_AttachFallback(t *testing.T) {
	provider := &fakeProvider{attachErr: errors.New("connection refused")}
	ctrl := newTestController(t, provider, &fakeEngine{})

	cfg := testcase.RunConfig{UseExistingBrowser: true}
	h, err := ctrl.Create(context.Background(), controllerSpec(), cfg)
	require.NoError(t, err)

	assert.Equal(t, StateReady, h.State())
	assert.Equal(t, 1, provider.attachCalls)
	assert.Equal(t, 1, provider.provisionCalls)
}

// TestController_Execute_Success tests a passing run
func TestController_Execute_Success(t *testing.T) {
	provider := &fakeProvider{}
	engine := &fakeEngine{outcome: agent.Completion{Message: "all good", Done: true}}
	ctrl := newTestController(t, provider, engine)

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{})
	require.NoError(t, err)

	result, err := ctrl.Execute(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, h.State())
	assert.Equal(t, "tc-1", result.TestCaseID)
	assert.Equal(t, testcase.OutcomePassed, result.Outcome)
	assert.Equal(t, "all good", result.Message)
	assert.False(t, result.Timestamp.IsZero())
	require.NotNil(t, h.Result())
	assert.Equal(t, result.TestCaseID, h.Result().TestCaseID)
}

// TestController_Execute_EngineError tests a failing run folded into the result
func TestController_Execute_EngineError(t *testing.T) {
	provider := &fakeProvider{}
	engine := &fakeEngine{err: errors.New("llm call failed")}
	ctrl := newTestController(t, provider, engine)

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{})
	require.NoError(t, err)

	result, err := ctrl.Execute(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, StateError, h.State())
	assert.Equal(t, testcase.OutcomeError, result.Outcome)
	assert.Contains(t, result.Message, "llm call failed")
}

// TestController_Execute_EnginePanic tests panic containment
func TestController_Execute_EnginePanic(t *testing.T) {
	provider := &fakeProvider{}
	ctrl := newTestController(t, provider, &fakeEngine{doPanic: true})

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{})
	require.NoError(t, err)

	result, err := ctrl.Execute(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, StateError, h.State())
	assert.Equal(t, testcase.OutcomeError, result.Outcome)
	assert.Contains(t, result.Message, "panic")
}

// TestController_Execute_InvalidState tests executing a non-ready handle
func TestController_Execute_InvalidState(t *testing.T) {
	provider := &fakeProvider{}
	ctrl := newTestController(t, provider, &fakeEngine{})

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{})
	require.NoError(t, err)

	_, err = ctrl.Execute(context.Background(), h)
	require.NoError(t, err)

	// Second execution must be rejected, not re-run.
	_, err = ctrl.Execute(context.Background(), h)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

// TestController_Cleanup tests release and idempotency
func TestController_Cleanup(t *testing.T) {
	provider := &fakeProvider{}
	ctrl := newTestController(t, provider, &fakeEngine{})

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{})
	require.NoError(t, err)

	ctrl.Cleanup(h)
	ctrl.Cleanup(h)
	assert.Equal(t, 1, provider.releaseCalls)

	ctrl.Cleanup(nil)
	assert.Equal(t, 1, provider.releaseCalls)
}

// TestController_Cleanup_KeepBrowserOpen tests the keep-open escape hatch
func TestController_Cleanup_KeepBrowserOpen(t *testing.T) {
	provider := &fakeProvider{}
	ctrl := newTestController(t, provider, &fakeEngine{})

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{KeepBrowserOpen: true})
	require.NoError(t, err)

	ctrl.Cleanup(h)
	assert.Equal(t, 0, provider.releaseCalls)
}

// TestController_Cleanup_ReleaseError tests that release failures are swallowed
func TestController_Cleanup_ReleaseError(t *testing.T) {
	provider := &fakeProvider{releaseErr: errors.New("process already gone")}
	ctrl := newTestController(t, provider, &fakeEngine{})

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{})
	require.NoError(t, err)

	assert.NotPanics(t, func() { ctrl.Cleanup(h) })
}

// TestController_ExecuteWithCleanup tests that cleanup always runs
func TestController_ExecuteWithCleanup(t *testing.T) {
	provider := &fakeProvider{}
	ctrl := newTestController(t, provider, &fakeEngine{outcome: "done"})

	h, err := ctrl.Create(context.Background(), controllerSpec(), testcase.RunConfig{})
	require.NoError(t, err)

	result, err := ctrl.ExecuteWithCleanup(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, testcase.OutcomePassed, result.Outcome)
	assert.Equal(t, 1, provider.releaseCalls)
}
