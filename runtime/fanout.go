// Package runtime handles event intake, propagation and the session state machine.
// It orchestrates the client session without containing rendering logic.
package runtime

import (
	"chat-session/contract"
	"chat-session/domain/event"
	"log/slog"
)

// Fanout broadcasts state changes to multiple in-process sinks.
//
// Delivery is synchronous and ordered by registration, inside the turn that
// performed the mutation. A failing sink does not prevent the next ones from
// consuming the event.
//
// Sinks are registered before the first Publish. On the client, Fanout lives
// on the event loop.
type Fanout struct {
	log   *slog.Logger
	sinks []contract.EventSink
}

func NewFanout(log *slog.Logger) *Fanout {
	return &Fanout{log: log}
}

func (f *Fanout) Add(sinks ...contract.EventSink) *Fanout {
	f.sinks = append(f.sinks, sinks...)
	return f
}

// Publish One sink after the other for each event
func (f *Fanout) Publish(e event.DomainEvent) {
	for _, sink := range f.sinks {
		if err := sink.Consume(e); err != nil {
			f.log.Warn("Sink failed to consume event", "kind", e.Kind(), "error", err)
		}
	}
}
