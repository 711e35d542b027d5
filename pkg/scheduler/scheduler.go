// Package scheduler dispatches an ordered collection of work items
// with a bounded number of simultaneously in-flight executions. Items
// start in submission order, failures are isolated per item, and the
// aggregate is returned indexed by submission order regardless of
// completion order.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdeepam/ai-test-tool/pkg/testcase"
)

// DefaultLimit is the concurrency bound used when none is configured.
const DefaultLimit = 2

// Item is one schedulable unit of work producing a test result.
type Item struct {
	ID  string
	Run func(ctx context.Context) (testcase.Result, error)
}

// Executor runs item batches with a fixed concurrency limit.
type Executor struct {
	limit  int
	logger zerolog.Logger
}

// New creates an executor. A non-positive limit falls back to DefaultLimit.
func New(limit int, logger zerolog.Logger) *Executor {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Executor{limit: limit, logger: logger}
}

// Limit returns the configured concurrency bound.
func (e *Executor) Limit() int {
	return e.limit
}

// Run executes all items and returns one result per item in submission
// order. An item's error or panic becomes a synthesized error result in
// its slot; sibling items are unaffected and every item is attempted.
func (e *Executor) Run(ctx context.Context, items []Item) []testcase.Result {
	results := make([]testcase.Result, len(items))
	if len(items) == 0 {
		return results
	}

	start := time.Now()
	sem := make(chan struct{}, e.limit)
	var wg sync.WaitGroup

	for i, item := range items {
		// Acquiring before launch keeps dispatch in submission order.
		sem <- struct{}{}
		wg.Add(1)

		go func(index int, item Item) {
			defer wg.Done()
			defer func() { <-sem }()

			results[index] = e.runOne(ctx, item)
		}(i, item)
	}

	wg.Wait()

	e.logger.Debug().
		Int("items", len(items)).
		Int("limit", e.limit).
		Dur("duration", time.Since(start)).
		Msg("Scheduler batch completed")

	return results
}

func (e *Executor) runOne(ctx context.Context, item Item) (result testcase.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("item_id", item.ID).
				Interface("panic", r).
				Msg("Work item panicked")
			result = testcase.ErrorResult(item.ID, fmt.Sprintf("work item panic: %v", r))
		}
	}()

	r, err := item.Run(ctx)
	if err != nil {
		e.logger.Error().Err(err).Str("item_id", item.ID).Msg("Work item failed")
		return testcase.ErrorResult(item.ID, err.Error())
	}
	return r
}
