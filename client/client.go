// Package client wires a chat session to a relay connection.
package client

import (
	"chat-session/contract"
	"chat-session/domain"
	"chat-session/infrastructure/socket"
	"chat-session/projection"
	"chat-session/runtime"
	"chat-session/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Config struct {
	ServerURL       string
	Identity        string
	Avatar          domain.Avatar
	BufferSize      int
	RestartInterval time.Duration
	EchoSuppression bool
	Socket          socket.Options
}

// Client owns the goroutines of one session: the socket read loop and the
// event loop every state change runs on.
type Client struct {
	log        *slog.Logger
	loop       *workers.EventLoop
	transport  *socket.Client
	supervisor *workers.Supervisor
	session    *runtime.Session
	started    bool
	stopped    chan struct{}
}

// Connect dials the relay and prepares the session. Nothing is announced
// before Start.
func Connect(ctx context.Context, log *slog.Logger, config Config, sinks ...contract.EventSink) (*Client, error) {
	loop := workers.NewEventLoop(log, config.BufferSize)
	options := config.Socket
	options.Executor = loop
	transport, err := socket.Dial(ctx, log, config.ServerURL, options)
	if err != nil {
		return nil, err
	}

	fanout := runtime.NewFanout(log).Add(sinks...)
	presence := runtime.NewPresenceRegistry(log, fanout)
	conversations := projection.NewConversationStore(log, fanout)

	var opts []runtime.Option
	if config.EchoSuppression {
		opts = append(opts, runtime.WithEchoSuppression())
	}
	self := domain.Peer{Identity: config.Identity, Avatar: config.Avatar}
	session := runtime.NewSession(log, transport, presence, conversations, fanout, self, opts...)

	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(loop, transport)

	return &Client{
		log:        log,
		loop:       loop,
		transport:  transport,
		supervisor: supervisor,
		session:    session,
		stopped:    make(chan struct{}),
	}, nil
}

// Start runs the supervised workers and starts the session on the event loop.
func (c *Client) Start(ctx context.Context) error {
	c.started = true
	go func() {
		defer close(c.stopped)
		c.supervisor.Run(ctx)
	}()
	if err := c.Do(ctx, func(s *runtime.Session) error { return s.Start(ctx) }); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// Do runs fn on the event loop and waits for it.
func (c *Client) Do(ctx context.Context, fn func(s *runtime.Session) error) error {
	return c.loop.Do(ctx, func() error { return fn(c.session) })
}

// View reads the derived state on the event loop.
func (c *Client) View(ctx context.Context) (runtime.View, error) {
	var view runtime.View
	err := c.Do(ctx, func(s *runtime.Session) error {
		view = s.View()
		return nil
	})
	return view, err
}

// Done is closed when the relay connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.transport.Done()
}

// Close tears the session down, closes the connection and waits for the
// workers to exit.
func (c *Client) Close() {
	if !c.started {
		c.transport.Close()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Do(ctx, func(s *runtime.Session) error {
		s.Close()
		return nil
	}); err != nil {
		c.log.Debug("Session closed off the loop", "error", err)
	}
	c.transport.Close()
	c.supervisor.Stop()
	select {
	case <-c.stopped:
	case <-ctx.Done():
	}
	c.log.Info("Client stopped")
}
