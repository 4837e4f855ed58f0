package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"podcast-home/internal/logging"
)

func TestRevalidatorRunsImmediatelyAndRepeats(t *testing.T) {
	var calls atomic.Int32
	var active atomic.Int32
	var overlapped atomic.Bool

	job := func(ctx context.Context) error {
		if active.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer active.Add(-1)
		calls.Add(1)
		time.Sleep(5 * time.Millisecond)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRevalidator(2*time.Millisecond, job, logging.Discard()).Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for repeated runs, got %d", calls.Load())
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancellation")
	}

	if overlapped.Load() {
		t.Fatalf("expected runs never to overlap")
	}
}

func TestRevalidatorSurvivesFailures(t *testing.T) {
	var calls atomic.Int32
	job := func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("upstream down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewRevalidator(time.Millisecond, job, logging.Discard()).Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected a retry after a failed run")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRevalidatorSkipsWhenCancelled(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewRevalidator(time.Hour, func(context.Context) error {
		calls.Add(1)
		return nil
	}, logging.Discard()).Run(ctx)

	if calls.Load() != 0 {
		t.Fatalf("expected no runs on a cancelled context")
	}
}
