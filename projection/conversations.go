// Package projection builds local conversation logs from observed events.
// Logs keep arrival order; nothing is reordered, trimmed or deduplicated.
// Does not emit transport events or interact with UI directly.
package projection

import (
	"chat-session/contract"
	"chat-session/domain"
	"chat-session/domain/event"
	"log/slog"
	"slices"
)

// ConversationStore holds one ordered log per conversation id.
// A log exists once a snapshot or a first message arrived; a conversation whose
// history was requested but not received yet stays absent and pending.
type ConversationStore struct {
	log       *slog.Logger
	publisher contract.IPublisher
	logs      map[domain.ConversationID][]domain.Message
	order     []domain.ConversationID
	requested map[domain.ConversationID]struct{}
}

func NewConversationStore(log *slog.Logger, publisher contract.IPublisher) *ConversationStore {
	return &ConversationStore{
		log:       log,
		publisher: publisher,
		logs:      make(map[domain.ConversationID][]domain.Message),
		requested: make(map[domain.ConversationID]struct{}),
	}
}

// EnsureLoaded calls fetch the first time an absent conversation is asked for.
// Later calls are no-ops until the history arrives, and forever if it never does.
// A failing fetch is not remembered, so the next call fetches again.
func (s *ConversationStore) EnsureLoaded(id domain.ConversationID, fetch func() error) error {
	if s.Has(id) || s.Pending(id) {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	s.requested[id] = struct{}{}
	s.log.Debug("History requested", "conversation_id", id)
	return nil
}

// Append adds the message at the tail of the log, creating the log if needed.
func (s *ConversationStore) Append(id domain.ConversationID, message domain.Message) {
	s.create(id)
	s.logs[id] = append(s.logs[id], message)
	s.publish(event.MessageAppended{ConversationID: id, Message: message})
}

// ReplaceLog overwrites the whole log of the snapshot's conversation.
// It reports false and changes nothing when the snapshot has no recoverable id.
func (s *ConversationStore) ReplaceLog(snapshot domain.HistorySnapshot) (domain.ConversationID, bool) {
	id, ok := snapshot.Target()
	if !ok {
		s.log.Debug("Empty history snapshot without conversation id ignored")
		return "", false
	}
	s.create(id)
	s.logs[id] = slices.Clone(snapshot.Messages)
	s.publish(event.HistoryReplaced{ConversationID: id, Messages: slices.Clone(snapshot.Messages)})
	return id, true
}

// Log returns a copy of the conversation log.
func (s *ConversationStore) Log(id domain.ConversationID) ([]domain.Message, bool) {
	messages, ok := s.logs[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(messages), true
}

func (s *ConversationStore) Has(id domain.ConversationID) bool {
	_, ok := s.logs[id]
	return ok
}

// Pending reports a conversation whose history was requested but never received.
func (s *ConversationStore) Pending(id domain.ConversationID) bool {
	_, ok := s.requested[id]
	return ok && !s.Has(id)
}

// Conversations lists known ids in creation order.
func (s *ConversationStore) Conversations() []domain.ConversationID {
	return slices.Clone(s.order)
}

func (s *ConversationStore) create(id domain.ConversationID) {
	if s.Has(id) {
		return
	}
	s.logs[id] = []domain.Message{}
	s.order = append(s.order, id)
	delete(s.requested, id)
}

func (s *ConversationStore) publish(e event.DomainEvent) {
	if s.publisher != nil {
		s.publisher.Publish(e)
	}
}
