package search

import (
	"context"
	"time"

	"wordsmith/internal/core"
)

// Task status codes for the task-submit/poll SERP backend. Three codes mean
// the task is still moving through the queue; one means the result is ready.
const (
	statusDone        = 20000
	statusTaskCreated = 20100
	statusTaskHanded  = 40601
	statusTaskInQueue = 40602
)

// stillProcessing reports whether a task status code means "keep polling".
func stillProcessing(code int) bool {
	switch code {
	case statusTaskCreated, statusTaskHanded, statusTaskInQueue:
		return true
	}
	return false
}

// Poll backoff schedule: start 0.5s, multiply by 1.5, cap 5s, 10 attempts.
const (
	pollInitialDelay = 500 * time.Millisecond
	pollMultiplier   = 1.5
	pollMaxDelay     = 5 * time.Second
	pollMaxAttempts  = 10
)

// taskFuture models a submitted task awaiting its result. submit returns
// the task token; fetch polls once and reports (statusCode, done).
type taskFuture[T any] struct {
	submit func(ctx context.Context) (string, error)
	fetch  func(ctx context.Context, taskID string) (T, int, error)
}

// await submits the task and polls until done, failed, or attempts are
// exhausted, following the fixed backoff schedule.
func (f taskFuture[T]) await(ctx context.Context) (T, error) {
	var zero T

	taskID, err := f.submit(ctx)
	if err != nil {
		return zero, err
	}

	delay := pollInitialDelay
	for attempt := 1; attempt <= pollMaxAttempts; attempt++ {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, core.Wrap(core.KindCancelled, ctx.Err(), "task poll cancelled")
		}

		result, status, err := f.fetch(ctx, taskID)
		if err != nil {
			return zero, err
		}
		if status == statusDone {
			return result, nil
		}
		if !stillProcessing(status) {
			return zero, core.Errf(core.KindProviderUnavailable, "task %s failed with status %d", taskID, status)
		}

		delay = time.Duration(float64(delay) * pollMultiplier)
		if delay > pollMaxDelay {
			delay = pollMaxDelay
		}
	}

	return zero, core.Errf(core.KindTimeout, "task %s still processing after %d polls", taskID, pollMaxAttempts)
}
