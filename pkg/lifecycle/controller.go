package lifecycle

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/pdeepam/ai-test-tool/pkg/agent"
	"github.com/pdeepam/ai-test-tool/pkg/browser"
	"github.com/pdeepam/ai-test-tool/pkg/testcase"
)

// EngineFactory builds an execution engine bound to an acquired
// browser resource.
type EngineFactory func(res *browser.Resource, cfg testcase.RunConfig) agent.Engine

// Options configures a Controller.
type Options struct {
	Provider browser.Provider
	Engines  EngineFactory
	Logger   zerolog.Logger

	// ChromePath points isolated launches at a specific binary. Empty
	// means rod's own browser resolution.
	ChromePath string
}

// Controller creates, executes, and tears down agent handles. It owns
// the resource-acquisition fallback policy: attach to a shared browser
// when requested, fall back to an isolated hardened instance, and fail
// with a provisioning error only when both paths fail.
type Controller struct {
	provider   browser.Provider
	engines    EngineFactory
	logger     zerolog.Logger
	chromePath string
}

// NewController creates a new lifecycle controller.
func NewController(opts Options) (*Controller, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("browser provider is required")
	}
	if opts.Engines == nil {
		return nil, fmt.Errorf("engine factory is required")
	}
	return &Controller{
		provider:   opts.Provider,
		engines:    opts.Engines,
		logger:     opts.Logger,
		chromePath: opts.ChromePath,
	}, nil
}

// Create acquires a browser resource for the spec and returns a handle
// in the Ready state.
func (c *Controller) Create(ctx context.Context, spec testcase.Spec, cfg testcase.RunConfig) (*Handle, error) {
	h := &Handle{
		ID:     newHandleID(spec.ID),
		Spec:   spec,
		Config: cfg,
		state:  StateInitialized,
	}

	res, err := c.acquire(ctx, cfg)
	if err != nil {
		h.transition(StateError)
		return nil, &AgentError{
			Code:    ErrCodeProvisioning,
			Message: fmt.Sprintf("failed to acquire browser for test case %s: %v", spec.ID, err),
		}
	}

	h.resource = res
	h.engine = c.engines(res, cfg)
	h.transition(StateReady)

	c.logger.Info().
		Str("handle_id", h.ID).
		Str("test_case", spec.Name).
		Msg("Agent handle created")

	return h, nil
}

// acquire applies the reuse-then-fallback policy.
func (c *Controller) acquire(ctx context.Context, cfg testcase.RunConfig) (*browser.Resource, error) {
	if cfg.UseExistingBrowser {
		cdpURL := cfg.CDPURL
		if cdpURL == "" {
			cdpURL = testcase.DefaultCDPURL
		}

		res, err := c.provider.AttachExisting(ctx, cdpURL)
		if err == nil {
			return res, nil
		}
		c.logger.Warn().
			Err(err).
			Str("cdp_url", cdpURL).
			Msg("Could not attach to existing browser, falling back to isolated instance")
	}

	profile := browser.Hardened()
	profile.Headless = cfg.Headless
	profile.ChromePath = c.chromePath
	return c.provider.ProvisionIsolated(ctx, profile)
}

// Execute runs the handle's test case to a terminal state and returns
// the populated result. The only error it returns is an invalid-state
// error when the handle is not Ready; execution failures are folded
// into the result and never escape.
func (c *Controller) Execute(ctx context.Context, h *Handle) (testcase.Result, error) {
	if !h.transition(StateRunning) {
		return testcase.Result{}, &AgentError{
			Code:    ErrCodeInvalidState,
			Message: fmt.Sprintf("handle %s is %s, expected %s", h.ID, h.State(), StateReady),
		}
	}

	h.mu.Lock()
	h.startedAt = time.Now()
	engine := h.engine
	h.mu.Unlock()

	c.logger.Info().
		Str("handle_id", h.ID).
		Str("test_case", h.Spec.Name).
		Msg("Starting test execution")

	outcome, err := c.runEngine(ctx, engine, testcase.BuildTask(h.Spec))

	h.mu.Lock()
	h.endedAt = time.Now()
	elapsed := h.endedAt.Sub(h.startedAt).Seconds()
	h.mu.Unlock()

	var result testcase.Result
	if err != nil {
		h.transition(StateError)
		result = testcase.Result{
			TestCaseID:    h.Spec.ID,
			Outcome:       testcase.OutcomeError,
			Message:       err.Error(),
			ExecutionTime: elapsed,
			Timestamp:     time.Now(),
		}
		c.logger.Error().
			Err(err).
			Str("handle_id", h.ID).
			Str("test_case", h.Spec.Name).
			Msg("Test execution failed")
	} else {
		h.transition(StateCompleted)
		result = testcase.Result{
			TestCaseID:    h.Spec.ID,
			Outcome:       testcase.OutcomePassed,
			Message:       ExtractSummary(outcome),
			ExecutionTime: elapsed,
			Timestamp:     time.Now(),
		}
		c.logger.Info().
			Str("handle_id", h.ID).
			Str("test_case", h.Spec.Name).
			Float64("execution_time", elapsed).
			Msg("Test completed")
	}

	h.mu.Lock()
	h.result = &result
	h.mu.Unlock()

	return result, nil
}

// runEngine invokes the engine, converting panics into execution errors
// so a misbehaving engine cannot take the session down.
func (c *Controller) runEngine(ctx context.Context, engine agent.Engine, task string) (outcome any, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = &AgentError{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("engine panic: %v", r),
			}
		}
	}()

	return engine.Run(ctx, task)
}

// Cleanup releases the handle's browser resource. It is idempotent,
// honors keep_browser_open, and logs rather than propagates release
// failures.
func (c *Controller) Cleanup(h *Handle) {
	if h == nil {
		return
	}

	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	res := h.resource
	h.resource = nil
	keepOpen := h.Config.KeepBrowserOpen
	h.mu.Unlock()

	if res == nil {
		return
	}

	if keepOpen {
		c.logger.Info().
			Str("handle_id", h.ID).
			Msg("Browser kept open for test case")
		return
	}

	if err := c.provider.Release(res); err != nil {
		c.logger.Error().
			Err(err).
			Str("handle_id", h.ID).
			Msg("Error releasing browser resource")
		return
	}

	c.logger.Debug().Str("handle_id", h.ID).Msg("Browser resource released")
}

// ExecuteWithCleanup runs Execute and guarantees Cleanup on every exit
// path, including panics inside the controller itself.
func (c *Controller) ExecuteWithCleanup(ctx context.Context, h *Handle) (testcase.Result, error) {
	defer c.Cleanup(h)
	return c.Execute(ctx, h)
}

func newHandleID(testCaseID string) string {
	return fmt.Sprintf("agent_%s_%s", testCaseID, gonanoid.Must(8))
}
