package event

import (
	"chat-session/domain"
	"chat-session/errors"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistorySnapshot_BareList(t *testing.T) {
	req := require.New(t)
	raw := `[{"sender":"alice","text":"hi","conversationId":"alice-bob","sentAt":"10:00:00"}]`

	var snapshot HistorySnapshot
	req.NoError(json.Unmarshal([]byte(raw), &snapshot))

	req.Empty(snapshot.ConversationID)
	req.Len(snapshot.Messages, 1)
	req.Equal(domain.Message{
		ConversationID: "alice-bob",
		Sender:         "alice",
		Text:           "hi",
		SentAt:         "10:00:00",
	}, snapshot.ToDomain()[0])
}

func TestHistorySnapshot_ObjectForm(t *testing.T) {
	req := require.New(t)
	raw := `{"conversationId":"alice-bob","messages":[]}`

	var snapshot HistorySnapshot
	req.NoError(json.Unmarshal([]byte(raw), &snapshot))

	req.Equal("alice-bob", snapshot.ConversationID)
	req.Empty(snapshot.Messages)
}

func TestDecode_ValidatesStructs(t *testing.T) {
	req := require.New(t)

	// Given a message without conversation id
	frame := Frame{Event: MessageReceivedName, Data: json.RawMessage(`{"sender":"bob","text":"yo"}`)}

	// When decoded
	_, err := Decode[MessageReceived](frame)

	// Then the payload is rejected at the boundary
	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func TestDecode_String(t *testing.T) {
	req := require.New(t)
	frame, err := NewFrame(PeerDepartedName, "bob")
	req.NoError(err)

	identity, err := Decode[string](frame)
	req.NoError(err)
	req.Equal("bob", identity)

	_, err = Decode[string](Frame{Event: PeerDepartedName})
	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func TestFrame_RoundTripAvatar(t *testing.T) {
	req := require.New(t)
	frame, err := NewFrame(AnnouncePresenceName, AnnouncePresence{Identity: "alice", Avatar: []byte{1, 2, 3}})
	req.NoError(err)

	encoded, err := json.Marshal(frame)
	req.NoError(err)
	req.JSONEq(`{"event":"announce-presence","data":{"identity":"alice","avatar":"AQID"}}`, string(encoded))
}

func TestValidPeers(t *testing.T) {
	req := require.New(t)
	peers, dropped := ValidPeers([]Peer{{Identity: "alice"}, {Identity: ""}, {Identity: "bob"}})
	req.Equal(1, dropped)
	req.Equal([]Peer{{Identity: "alice"}, {Identity: "bob"}}, peers)
}

func TestDecode_RejectsSeparatorsInIdentity(t *testing.T) {
	req := require.New(t)
	// "a" with "b-c" and "a-b" with "c" would share the conversation a-b-c
	for _, identity := range []string{"b-c", "a-b", "bob:1"} {
		frame, err := NewFrame(AnnouncePresenceName, AnnouncePresence{Identity: identity})
		req.NoError(err)

		_, err = Decode[AnnouncePresence](frame)
		req.ErrorIs(err, errors.ErrInvalidPayload, identity)
	}
}

func TestValidPeers_DropsSeparatorIdentities(t *testing.T) {
	req := require.New(t)
	peers, dropped := ValidPeers([]Peer{{Identity: "alice"}, {Identity: "b-c"}, {Identity: "bob:1"}})
	req.Equal(2, dropped)
	req.Equal([]Peer{{Identity: "alice"}}, peers)
}

func TestDecode_ValidatesHistoryMessages(t *testing.T) {
	req := require.New(t)

	// Given a bare list whose message lacks a conversation id
	frame := Frame{Event: HistorySnapshotName, Data: json.RawMessage(`[{"sender":"alice","text":"hi"}]`)}

	// When decoded
	_, err := Decode[HistorySnapshot](frame)

	// Then no history lands under an empty conversation
	req.ErrorIs(err, errors.ErrInvalidPayload)
}
