// Package relay is a development server for the chat event contract.
// It tracks who is online, answers history requests from BadgerDB and relays
// messages to their recipient.
package relay

import (
	"chat-session/domain"
	"chat-session/domain/event"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// FrameSink receives the frames addressed to one connected member.
type FrameSink interface {
	Send(frame event.Frame) error
}

type member struct {
	peer domain.Peer
	sink FrameSink
}

// Hub is the presence registry of the relay, keyed by identity.
// Members keep their join order; a member joining again from a new
// connection keeps its position and replaces the previous sink.
type Hub struct {
	mu      sync.RWMutex
	log     *slog.Logger
	members map[string]member
	order   []string
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{log: log, members: make(map[string]member)}
}

// Join registers peer and broadcasts the new presence snapshot to everyone.
func (h *Hub) Join(peer domain.Peer, sink FrameSink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.members[peer.Identity]; !ok {
		h.order = append(h.order, peer.Identity)
	}
	h.members[peer.Identity] = member{peer: peer, sink: sink}
	h.log.Info("Peer joined", "identity", peer.Identity, "online", len(h.order))

	frame, err := event.NewFrame(event.PresenceSnapshotName, event.FromDomainPeers(h.peers()))
	if err != nil {
		h.log.Error("Presence snapshot not encoded", "error", err)
		return
	}
	h.broadcast(frame)
}

// Leave removes identity when sink is still its current connection and
// broadcasts its departure. A stale connection leaving is ignored.
func (h *Hub) Leave(identity string, sink FrameSink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[identity]
	if !ok || m.sink != sink {
		return
	}
	delete(h.members, identity)
	h.order = slices.DeleteFunc(h.order, func(id string) bool { return id == identity })
	h.log.Info("Peer left", "identity", identity, "online", len(h.order))

	frame, err := event.NewFrame(event.PeerDepartedName, identity)
	if err != nil {
		h.log.Error("Departure not encoded", "error", err)
		return
	}
	h.broadcast(frame)
}

// Deliver sends frame to identity only. It reports false when identity is offline.
func (h *Hub) Deliver(identity string, frame event.Frame) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m, ok := h.members[identity]
	if !ok {
		return false
	}
	if err := m.sink.Send(frame); err != nil {
		h.log.Warn("Frame not delivered", "identity", identity, "event", frame.Event, "error", err)
		return false
	}
	return true
}

// Peers lists the online members in join order.
func (h *Hub) Peers() []domain.Peer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.peers()
}

func (h *Hub) peers() []domain.Peer {
	return lo.Map(h.order, func(identity string, _ int) domain.Peer {
		return h.members[identity].peer
	})
}

func (h *Hub) broadcast(frame event.Frame) {
	for _, identity := range h.order {
		if err := h.members[identity].sink.Send(frame); err != nil {
			h.log.Warn("Broadcast skipped a member", "identity", identity, "event", frame.Event, "error", err)
		}
	}
}
