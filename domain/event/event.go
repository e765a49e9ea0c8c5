package event

import (
	"chat-session/domain"
)

// DomainEvent describes a state change published to presentation sinks.
// Events are emitted synchronously, in the turn that performed the mutation.
type DomainEvent interface {
	Kind() string
}

type PresenceReplaced struct {
	Peers []domain.Peer
}

func (PresenceReplaced) Kind() string { return "presence_replaced" }

type PeerRemoved struct {
	Identity string
}

func (PeerRemoved) Kind() string { return "peer_removed" }

type MessageAppended struct {
	ConversationID domain.ConversationID
	Message        domain.Message
}

func (MessageAppended) Kind() string { return "message_appended" }

type HistoryReplaced struct {
	ConversationID domain.ConversationID
	Messages       []domain.Message
}

func (HistoryReplaced) Kind() string { return "history_replaced" }

type FocusChanged struct {
	Peer           string
	ConversationID domain.ConversationID
}

func (FocusChanged) Kind() string { return "focus_changed" }
