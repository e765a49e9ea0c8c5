package workers

import (
	"chat-session/errors"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestEventLoop_RunsTasksInOrder(t *testing.T) {
	req := require.New(t)
	loop := NewEventLoop(logs.GetLoggerFromLevel(slog.LevelDebug), 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var seen []int
	for i := 0; i < 10; i++ {
		req.NoError(loop.Submit(ctx, func() { seen = append(seen, i) }))
	}

	// Do is queued behind the submitted tasks, so seen is complete when it returns
	var snapshot []int
	req.NoError(loop.Do(ctx, func() error {
		snapshot = append(snapshot, seen...)
		return nil
	}))
	req.Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot)
}

func TestEventLoop_DoReturnsTaskError(t *testing.T) {
	req := require.New(t)
	loop := NewEventLoop(slog.Default(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	err := loop.Do(ctx, func() error { return fmt.Errorf("no focus") })
	req.EqualError(err, "no focus")
}

func TestEventLoop_StoppedLoopRefusesTasks(t *testing.T) {
	req := require.New(t)
	loop := NewEventLoop(slog.Default(), 1)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	req.ErrorIs(loop.Submit(context.Background(), func() {}), errors.ErrLoopStopped)
	req.ErrorIs(loop.Do(context.Background(), func() error { return nil }), errors.ErrLoopStopped)
}

func TestEventLoop_SubmitHonoursContext(t *testing.T) {
	req := require.New(t)
	// Given a full queue and no running loop
	loop := NewEventLoop(slog.Default(), 1)
	req.NoError(loop.Submit(context.Background(), func() {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// When another task is submitted, the caller gives up with its context
	req.ErrorIs(loop.Submit(ctx, func() {}), context.DeadlineExceeded)
}
