package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"launchPadAPI/internal/launch"
	"launchPadAPI/internal/logger"
)

type countingFinalizer struct {
	calls atomic.Int32
}

func (f *countingFinalizer) FinalizePreviousWeek(ctx context.Context) (*launch.FinalizeResult, error) {
	f.calls.Add(1)
	return &launch.FinalizeResult{Success: false, Reason: "Week already finalized"}, nil
}

type countingBuilder struct {
	calls atomic.Int32
}

func (b *countingBuilder) RebuildSnapshot(ctx context.Context) error {
	b.calls.Add(1)
	return nil
}

func TestStartFinalizeWorker_TicksUntilCancelled(t *testing.T) {
	finalizer := &countingFinalizer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		StartFinalizeWorker(ctx, finalizer, 5*time.Millisecond, logger.New("test"))
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return finalizer.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("finalize worker did not stop on cancel")
	}
}

func TestStartSnapshotWorker_RebuildsImmediately(t *testing.T) {
	builder := &countingBuilder{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		StartSnapshotWorker(ctx, builder, time.Hour, logger.New("test"))
		close(done)
	}()

	// The first rebuild runs before the first tick.
	assert.Eventually(t, func() bool {
		return builder.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("snapshot worker did not stop on cancel")
	}
}
