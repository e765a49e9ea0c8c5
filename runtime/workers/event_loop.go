package workers

import (
	"chat-session/errors"
	"context"
	"log/slog"
)

// EventLoop executes session tasks one at a time, in submission order.
// Inbound transport frames and user actions are both submitted here, so the
// session state is only ever touched from the loop goroutine.
type EventLoop struct {
	log   *slog.Logger
	tasks chan func()
	done  chan struct{}
}

func NewEventLoop(log *slog.Logger, bufferSize int) *EventLoop {
	return &EventLoop{
		log:   log,
		tasks: make(chan func(), bufferSize),
		done:  make(chan struct{}),
	}
}

// Submit enqueues a task. It blocks while the queue is full, until ctx is done.
func (l *EventLoop) Submit(ctx context.Context, task func()) error {
	select {
	case <-l.done:
		return errors.ErrLoopStopped
	default:
	}
	select {
	case l.tasks <- task:
		return nil
	case <-l.done:
		return errors.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs task on the loop and waits for its result.
func (l *EventLoop) Do(ctx context.Context, task func() error) error {
	result := make(chan error, 1)
	if err := l.Submit(ctx, func() { result <- task() }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-l.done:
		return errors.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is done. Tasks left in the queue are dropped.
func (l *EventLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("Context done, stopping event loop", "dropped", len(l.tasks))
			l.stop()
			return nil
		case task := <-l.tasks:
			task()
		}
	}
}

func (l *EventLoop) stop() {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
}
