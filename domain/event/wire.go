package event

import (
	"bytes"
	"chat-session/domain"
	"chat-session/errors"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// Name is the channel name of a transport event.
type Name string

const (
	AnnouncePresenceName Name = "announce-presence"
	FetchHistoryName     Name = "fetch-history"
	SendMessageName      Name = "send-message"
	PresenceSnapshotName Name = "presence-snapshot"
	PeerDepartedName     Name = "peer-departed"
	MessageReceivedName  Name = "message-received"
	HistorySnapshotName  Name = "history-snapshot"
)

// Frame is the envelope carried by the transport for every event.
type Frame struct {
	Event Name            `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Identities never hold the conversation separator nor the storage key
// separator, so distinct pairs keep distinct conversation ids.
type Peer struct {
	Identity string `json:"identity" validate:"required,excludesall=-:"`
	Avatar   []byte `json:"avatar,omitempty"`
}

type AnnouncePresence struct {
	Identity string `json:"identity" validate:"required,excludesall=-:"`
	Avatar   []byte `json:"avatar,omitempty"`
}

type SendMessage struct {
	Recipient      string `json:"recipient" validate:"required,excludesall=-:"`
	Text           string `json:"text"`
	Sender         string `json:"sender" validate:"required,excludesall=-:"`
	SentAt         string `json:"sentAt"`
	ConversationID string `json:"conversationId" validate:"required"`
}

type MessageReceived struct {
	Sender         string `json:"sender" validate:"required"`
	Text           string `json:"text"`
	ConversationID string `json:"conversationId" validate:"required"`
	SentAt         string `json:"sentAt"`
}

// HistorySnapshot is the full history of one conversation.
// ConversationID is empty when the server sent the bare list form.
type HistorySnapshot struct {
	ConversationID string            `json:"conversationId,omitempty"`
	Messages       []MessageReceived `json:"messages" validate:"dive"`
}

// UnmarshalJSON accepts both the bare list of messages and the object form
// carrying the conversation id out-of-band.
func (h *HistorySnapshot) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		h.ConversationID = ""
		return json.Unmarshal(trimmed, &h.Messages)
	}
	type object HistorySnapshot
	var o object
	if err := json.Unmarshal(trimmed, &o); err != nil {
		return err
	}
	*h = HistorySnapshot(o)
	return nil
}

// NewFrame encodes payload as the data of an event.
func NewFrame(name Name, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Frame{Event: name, Data: data}, nil
}

// Decode unmarshals the frame data into T and validates struct payloads.
func Decode[T any](frame Frame) (T, error) {
	var payload T
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		return payload, fmt.Errorf("%w: %s: %v", errors.ErrInvalidPayload, frame.Event, err)
	}
	if reflect.Indirect(reflect.ValueOf(payload)).Kind() == reflect.Struct {
		if err := validate.Struct(payload); err != nil {
			return payload, fmt.Errorf("%w: %s: %v", errors.ErrInvalidPayload, frame.Event, err)
		}
	}
	return payload, nil
}

// ValidPeers keeps the peers carrying an identity and reports how many were dropped.
func ValidPeers(peers []Peer) ([]Peer, int) {
	valid := lo.Filter(peers, func(p Peer, _ int) bool {
		return validate.Struct(p) == nil
	})
	return valid, len(peers) - len(valid)
}

func ToDomainPeers(peers []Peer) []domain.Peer {
	return lo.Map(peers, func(p Peer, _ int) domain.Peer {
		return domain.Peer{Identity: p.Identity, Avatar: p.Avatar}
	})
}

func FromDomainPeers(peers []domain.Peer) []Peer {
	return lo.Map(peers, func(p domain.Peer, _ int) Peer {
		return Peer{Identity: p.Identity, Avatar: p.Avatar}
	})
}

func (m MessageReceived) ToDomain() domain.Message {
	return domain.Message{
		ConversationID: domain.ConversationID(m.ConversationID),
		Sender:         m.Sender,
		Text:           m.Text,
		SentAt:         m.SentAt,
	}
}

func FromDomainMessage(m domain.Message) MessageReceived {
	return MessageReceived{
		Sender:         m.Sender,
		Text:           m.Text,
		ConversationID: string(m.ConversationID),
		SentAt:         m.SentAt,
	}
}

func (h HistorySnapshot) ToDomain() []domain.Message {
	return lo.Map(h.Messages, func(m MessageReceived, _ int) domain.Message {
		return m.ToDomain()
	})
}

func (s SendMessage) ToDomain() domain.Message {
	return domain.Message{
		ConversationID: domain.ConversationID(s.ConversationID),
		Sender:         s.Sender,
		Text:           s.Text,
		SentAt:         s.SentAt,
	}
}

func (h HistorySnapshot) ToDomainSnapshot() domain.HistorySnapshot {
	return domain.HistorySnapshot{
		ConversationID: domain.ConversationID(h.ConversationID),
		Messages:       h.ToDomain(),
	}
}
