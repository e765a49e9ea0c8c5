package runtime

import (
	"chat-session/contract"
	"chat-session/domain"
	"chat-session/domain/event"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

// PresenceRegistry holds the peers currently visible to the session, in the
// order of the last presence snapshot.
// It never contains two peers with the same identity.
type PresenceRegistry struct {
	log       *slog.Logger
	publisher contract.IPublisher
	peers     []domain.Peer
}

func NewPresenceRegistry(log *slog.Logger, publisher contract.IPublisher) *PresenceRegistry {
	return &PresenceRegistry{log: log, publisher: publisher}
}

// ReplaceAll installs a new presence snapshot.
// Duplicated identities are collapsed: the first occurrence in input order wins.
func (r *PresenceRegistry) ReplaceAll(peers []domain.Peer) {
	unique := lo.UniqBy(peers, func(p domain.Peer) string {
		return p.Identity
	})
	if dropped := len(peers) - len(unique); dropped > 0 {
		r.log.Debug("Duplicate peers discarded from snapshot", "dropped", dropped)
	}
	r.peers = unique
	r.publish(event.PresenceReplaced{Peers: r.List()})
}

// Remove deletes one peer. Removing an unknown identity is a no-op.
func (r *PresenceRegistry) Remove(identity string) {
	idx := slices.IndexFunc(r.peers, func(p domain.Peer) bool {
		return p.Identity == identity
	})
	if idx < 0 {
		return
	}
	r.peers = slices.Delete(slices.Clone(r.peers), idx, idx+1)
	r.publish(event.PeerRemoved{Identity: identity})
}

// ListOthers returns every peer except self, in registry order.
func (r *PresenceRegistry) ListOthers(self string) []domain.Peer {
	return lo.Filter(r.peers, func(p domain.Peer, _ int) bool {
		return p.Identity != self
	})
}

func (r *PresenceRegistry) Get(identity string) (domain.Peer, bool) {
	return lo.Find(r.peers, func(p domain.Peer) bool {
		return p.Identity == identity
	})
}

func (r *PresenceRegistry) List() []domain.Peer {
	return slices.Clone(r.peers)
}

func (r *PresenceRegistry) Len() int {
	return len(r.peers)
}

func (r *PresenceRegistry) publish(e event.DomainEvent) {
	if r.publisher != nil {
		r.publisher.Publish(e)
	}
}
