package sink

import (
	"bytes"
	"chat-session/domain"
	"chat-session/domain/event"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTerminal_RendersFocusedConversation(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	terminal := NewTerminal(&out, "alice", false)

	// Given alice chatting with bob
	req.NoError(terminal.Consume(event.PresenceReplaced{Peers: []domain.Peer{{Identity: "alice"}, {Identity: "bob"}}}))
	req.NoError(terminal.Consume(event.FocusChanged{Peer: "bob", ConversationID: "alice-bob"}))
	req.NoError(terminal.Consume(event.HistoryReplaced{ConversationID: "alice-bob", Messages: []domain.Message{
		{ConversationID: "alice-bob", Sender: "bob", Text: "hello", SentAt: "09:59:00"},
	}}))

	// When messages arrive in and out of focus
	req.NoError(terminal.Consume(event.MessageAppended{ConversationID: "alice-bob", Message: domain.Message{
		ConversationID: "alice-bob", Sender: "alice", Text: "hi", SentAt: "10:00:00",
	}}))
	req.NoError(terminal.Consume(event.MessageAppended{ConversationID: "alice-carol", Message: domain.Message{
		ConversationID: "alice-carol", Sender: "carol", Text: "psst", SentAt: "10:00:01",
	}}))
	req.NoError(terminal.Consume(event.PeerRemoved{Identity: "bob"}))

	// Then
	req.Equal("online: bob\n"+
		"====== bob ======\n"+
		"[09:59:00] bob: hello\n"+
		"[10:00:00] alice: hi\n"+
		"new message from carol\n"+
		"bob left\n", out.String())
}

func TestTerminal_IgnoresHistoryOutOfFocus(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	terminal := NewTerminal(&out, "alice", false)

	req.NoError(terminal.Consume(event.PresenceReplaced{Peers: []domain.Peer{{Identity: "alice"}}}))
	req.NoError(terminal.Consume(event.HistoryReplaced{ConversationID: "alice-bob", Messages: []domain.Message{
		{ConversationID: "alice-bob", Sender: "bob", Text: "hello", SentAt: "09:59:00"},
	}}))

	req.Equal("nobody else is online\n", out.String())
}

func TestTerminal_Who(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	terminal := NewTerminal(&out, "alice", false)
	png := domain.Avatar{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

	terminal.Who([]domain.Peer{{Identity: "bob", Avatar: png}, {Identity: "carol"}}, "bob")

	req.Contains(out.String(), "PEER")
	req.Contains(out.String(), "image/png")
	req.Regexp(`bob\s+image/png\s+\*`, out.String())
	req.Regexp(`carol\s+-`, out.String())
}
