// Package driver runs one session end to end: it walks the session's
// test case specs through the lifecycle controller, records every
// result in the tracker, and settles the session's final status.
package driver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdeepam/ai-test-tool/internal/metrics"
	"github.com/pdeepam/ai-test-tool/pkg/lifecycle"
	"github.com/pdeepam/ai-test-tool/pkg/scheduler"
	"github.com/pdeepam/ai-test-tool/pkg/testcase"
	"github.com/pdeepam/ai-test-tool/pkg/tracker"
)

// Controller is the lifecycle surface the driver needs. The concrete
// implementation is lifecycle.Controller; tests substitute fakes.
type Controller interface {
	Create(ctx context.Context, spec testcase.Spec, cfg testcase.RunConfig) (*lifecycle.Handle, error)
	Execute(ctx context.Context, h *lifecycle.Handle) (testcase.Result, error)
	Cleanup(h *lifecycle.Handle)
}

// Factory builds drivers bound to the shared tracker and controller.
// Metrics is optional.
type Factory struct {
	Tracker *tracker.Tracker
	Ctrl    Controller
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// New creates a driver for the given session.
func (f *Factory) New(sessionID string) *Driver {
	return &Driver{
		sessionID: sessionID,
		tracker:   f.Tracker,
		ctrl:      f.Ctrl,
		logger:    f.Logger.With().Str("session_id", sessionID).Logger(),
		metrics:   f.Metrics,
	}
}

// Driver executes a single session's test cases.
type Driver struct {
	sessionID string
	tracker   *tracker.Tracker
	ctrl      Controller
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// Start launches the session run in a background goroutine and returns
// a channel closed when the run finishes.
func (d *Driver) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(ctx)
	}()
	return done
}

// run drives the session to a terminal status. Per-test failures are
// recorded as error results and never abort the remaining tests; only
// a tracker failure ends the session with status error.
func (d *Driver) run(ctx context.Context) {
	specs, cfg, err := d.tracker.Specs(d.sessionID)
	if err != nil {
		d.logger.Error().Err(err).Msg("Session vanished before execution")
		return
	}

	if err := d.tracker.SetStatus(d.sessionID, tracker.StatusRunning); err != nil {
		d.logger.Error().Err(err).Msg("Could not mark session running")
		return
	}

	if cfg.Parallel && len(specs) > 1 {
		d.runParallel(ctx, specs, cfg)
	} else {
		d.runSequential(ctx, specs, cfg)
	}

	if ctx.Err() != nil || d.tracker.Stopped(d.sessionID) {
		// A cancelled context (server shutdown) must still leave the
		// session terminal so retention can evict it.
		if err := d.tracker.SetStatus(d.sessionID, tracker.StatusStopped); err != nil {
			d.logger.Debug().Err(err).Msg("Session gone before stop could be recorded")
		}
		d.logger.Info().Msg("Session stopped before completion")
		return
	}

	if err := d.tracker.SetStatus(d.sessionID, tracker.StatusCompleted); err != nil {
		d.logger.Error().Err(err).Msg("Could not mark session completed")
	}
}

// runSequential executes specs one at a time, checking for a stop
// request between tests. A test that is already executing when the
// stop arrives runs to completion and its result is still recorded.
func (d *Driver) runSequential(ctx context.Context, specs []testcase.Spec, cfg testcase.RunConfig) {
	for i, spec := range specs {
		if ctx.Err() != nil || d.tracker.Stopped(d.sessionID) {
			d.logger.Info().
				Int("remaining", len(specs)-i).
				Msg("Stop requested, skipping remaining tests")
			return
		}

		result := d.executeOne(ctx, spec, cfg)
		d.record(result)
	}
}

// runParallel dispatches all specs through the bounded scheduler and
// records results in submission order once the batch drains. Specs
// that observe a stop before launching return an empty result, which
// is skipped rather than recorded.
func (d *Driver) runParallel(ctx context.Context, specs []testcase.Spec, cfg testcase.RunConfig) {
	exec := scheduler.New(cfg.MaxConcurrent, d.logger)

	items := make([]scheduler.Item, len(specs))
	for i, spec := range specs {
		spec := spec
		items[i] = scheduler.Item{
			ID: spec.ID,
			Run: func(ctx context.Context) (testcase.Result, error) {
				if ctx.Err() != nil || d.tracker.Stopped(d.sessionID) {
					return testcase.Result{}, nil
				}
				return d.executeOne(ctx, spec, cfg), nil
			},
		}
	}

	for _, result := range exec.Run(ctx, items) {
		d.record(result)
	}
}

// executeOne runs a single spec through create, execute, cleanup. Every
// failure mode is folded into an error result for the spec's slot.
func (d *Driver) executeOne(ctx context.Context, spec testcase.Spec, cfg testcase.RunConfig) testcase.Result {
	h, err := d.ctrl.Create(ctx, spec, cfg)
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("test_case", spec.ID).
			Msg("Agent provisioning failed")
		return testcase.ErrorResult(spec.ID, fmt.Sprintf("failed to provision agent: %v", err))
	}
	defer d.ctrl.Cleanup(h)

	// A stop can land between provisioning and execution; stop the
	// handle so the resource is released without running the test.
	if ctx.Err() != nil || d.tracker.Stopped(d.sessionID) {
		h.Stop()
		return testcase.Result{}
	}

	result, err := d.ctrl.Execute(ctx, h)
	if err != nil {
		return testcase.ErrorResult(spec.ID, err.Error())
	}
	return result
}

// record appends one result. An empty test case id marks a spec that
// observed a stop before executing and is not recorded.
func (d *Driver) record(result testcase.Result) {
	if result.TestCaseID == "" {
		return
	}
	d.metrics.ObserveResult(string(result.Outcome), result.ExecutionTime)
	if err := d.tracker.AppendResult(d.sessionID, result); err != nil {
		d.logger.Warn().
			Err(err).
			Str("test_case", result.TestCaseID).
			Msg("Result discarded")
	}
}
