// Package domain contains core concepts of the chat session.
// This file defines Message values exchanged inside a conversation.
// Messages are immutable once created.
package domain

// Message represents one line of a two-party conversation.
// SentAt is the sender's local wall-clock rendering, not a parseable instant.
type Message struct {
	ConversationID ConversationID
	Sender         string
	Text           string
	SentAt         string
}

// HistorySnapshot replaces the whole log of one conversation.
// ConversationID is the out-of-band id; when empty the id of the first
// message is used instead.
type HistorySnapshot struct {
	ConversationID ConversationID
	Messages       []Message
}

// Target resolves the conversation the snapshot belongs to.
// An empty snapshot without out-of-band id has no recoverable target.
func (h HistorySnapshot) Target() (ConversationID, bool) {
	if h.ConversationID != "" {
		return h.ConversationID, true
	}
	if len(h.Messages) == 0 {
		return "", false
	}
	return h.Messages[0].ConversationID, true
}
