package relay

import (
	"chat-session/domain/event"
	"chat-session/errors"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connection is the relay side of one client websocket.
// Frames are queued in a bounded outbox and written by a single writer.
type connection struct {
	log          *slog.Logger
	ws           *websocket.Conn
	outbox       chan event.Frame
	writeTimeout time.Duration
	done         chan struct{}
	once         sync.Once
}

func newConnection(log *slog.Logger, ws *websocket.Conn, outboxSize int, writeTimeout time.Duration) *connection {
	return &connection{
		log:          log,
		ws:           ws,
		outbox:       make(chan event.Frame, outboxSize),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

// Send queues frame without blocking the caller.
func (c *connection) Send(frame event.Frame) error {
	select {
	case <-c.done:
		return errors.ErrTransportClosed
	default:
	}
	select {
	case c.outbox <- frame:
		return nil
	default:
		return errors.ErrOutboxFull
	}
}

// writeLoop drains the outbox and pings the client until the connection closes.
func (c *connection) writeLoop(ctx context.Context, pingInterval time.Duration) {
	var ping <-chan time.Time
	if pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case <-c.done:
			return
		case frame := <-c.outbox:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteJSON(frame); err != nil {
				c.log.Debug("Write failed", "event", frame.Event, "error", err)
				c.close()
				return
			}
		case <-ping:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
