// Package socket implements the session transport over a single websocket.
package socket

import (
	"chat-session/contract"
	"chat-session/domain/event"
	"chat-session/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	// ReadTimeout is extended on every frame and every pong.
	ReadTimeout time.Duration
	// Executor runs handlers. Handlers run on the read loop when nil.
	Executor contract.IExecutor
}

func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     20 * time.Second,
		ReadTimeout:      60 * time.Second,
	}
}

type subscription struct {
	id      uuid.UUID
	handler contract.Handler
}

// Client is the websocket implementation of contract.ITransport.
type Client struct {
	log     *slog.Logger
	conn    *websocket.Conn
	options Options

	writeMu sync.Mutex

	mu       sync.RWMutex
	handlers map[event.Name][]subscription
	names    map[uuid.UUID]event.Name

	done      chan struct{}
	closeOnce sync.Once
}

// Dial opens the websocket connection of a session.
func Dial(ctx context.Context, log *slog.Logger, url string, options Options) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: options.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	log.Info("Connected to relay", "url", url)
	return NewClient(log, conn, options), nil
}

// NewClient wraps an established connection.
func NewClient(log *slog.Logger, conn *websocket.Conn, options Options) *Client {
	return &Client{
		log:      log,
		conn:     conn,
		options:  options,
		handlers: make(map[event.Name][]subscription),
		names:    make(map[uuid.UUID]event.Name),
		done:     make(chan struct{}),
	}
}

// Emit writes one frame. Concurrent writers are serialised.
func (c *Client) Emit(ctx context.Context, name event.Name, payload any) error {
	select {
	case <-c.done:
		return errors.ErrTransportClosed
	default:
	}
	frame, err := event.NewFrame(name, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err = c.conn.SetWriteDeadline(c.writeDeadline(ctx)); err != nil {
		return fmt.Errorf("emit %s: %w", name, err)
	}
	if err = c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("emit %s: %w", name, err)
	}
	c.log.Debug("Frame emitted", "event", name, "bytes", len(frame.Data))
	return nil
}

func (c *Client) writeDeadline(ctx context.Context) time.Time {
	deadline := time.Time{}
	if c.options.WriteTimeout > 0 {
		deadline = time.Now().Add(c.options.WriteTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}

// Subscribe registers handler for the frames named name.
// Handlers of the same name run in subscription order.
func (c *Client) Subscribe(name event.Name, handler contract.Handler) uuid.UUID {
	id := uuid.New()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = append(c.handlers[name], subscription{id: id, handler: handler})
	c.names[id] = name
	return id
}

// Unsubscribe removes a handler. Unknown ids are ignored.
func (c *Client) Unsubscribe(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[id]
	if !ok {
		return
	}
	delete(c.names, id)
	remaining := lo.Reject(c.handlers[name], func(s subscription, _ int) bool {
		return s.id == id
	})
	if len(remaining) == 0 {
		delete(c.handlers, name)
		return
	}
	c.handlers[name] = remaining
}

// Handlers counts the handlers subscribed to name.
func (c *Client) Handlers(name event.Name) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers[name])
}

// Run is the read loop. It returns nil once the connection is closed so a
// supervisor does not restart it, and an error only for a transport failure.
func (c *Client) Run(ctx context.Context) error {
	defer c.Close()

	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.pingLoop(pingCtx)

	// Unblock ReadJSON when the caller gives up
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	for {
		var frame event.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			select {
			case <-c.done:
				c.log.Debug("Read loop stopped", "reason", "closed")
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("Relay closed the connection")
				return nil
			}
			return fmt.Errorf("%w: %v", errors.ErrTransportClosed, err)
		}
		c.extendReadDeadline()
		if frame.Event == "" {
			c.log.Warn("Frame without event name dropped")
			continue
		}
		c.dispatch(ctx, frame)
	}
}

func (c *Client) dispatch(ctx context.Context, frame event.Frame) {
	if c.options.Executor == nil {
		c.deliver(frame)
		return
	}
	if err := c.options.Executor.Submit(ctx, func() { c.deliver(frame) }); err != nil {
		c.log.Warn("Frame not dispatched", "event", frame.Event, "error", err)
	}
}

func (c *Client) deliver(frame event.Frame) {
	c.mu.RLock()
	subs := append([]subscription(nil), c.handlers[frame.Event]...)
	c.mu.RUnlock()

	if len(subs) == 0 {
		c.log.Debug("No handler for frame", "event", frame.Event)
		return
	}
	for _, sub := range subs {
		if err := sub.handler(frame); err != nil {
			c.log.Warn("Handler failed", "event", frame.Event, "error", err)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	if c.options.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.options.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.controlTimeout()))
			c.writeMu.Unlock()
			if err != nil {
				c.log.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Client) controlTimeout() time.Duration {
	if c.options.WriteTimeout > 0 {
		return c.options.WriteTimeout
	}
	return time.Second
}

func (c *Client) extendReadDeadline() {
	if c.options.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
	}
}

// Done is closed once the connection is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and releases the connection. Safe to call twice.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.controlTimeout()))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
}
