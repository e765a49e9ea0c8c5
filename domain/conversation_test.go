package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentify_Commutative(t *testing.T) {
	req := require.New(t)
	pairs := [][2]string{
		{"alice", "bob"},
		{"bob", "alice"},
		{"Zed", "amy"},
		{"", "carol"},
		{"same", "same"},
	}
	for _, p := range pairs {
		req.Equal(Identify(p[0], p[1]), Identify(p[1], p[0]), "pair=%v", p)
		// Repeated calls are stable
		req.Equal(Identify(p[0], p[1]), Identify(p[0], p[1]))
	}
}

func TestIdentify_SortsAndJoins(t *testing.T) {
	req := require.New(t)
	req.Equal(ConversationID("alice-bob"), Identify("bob", "alice"))
	req.Equal(ConversationID("alice-bob"), Identify("alice", "bob"))
}

func TestIdentify_DistinctPartners(t *testing.T) {
	req := require.New(t)
	// Given the same initiator
	// When the partner differs
	// Then the ids differ
	req.NotEqual(Identify("alice", "bob"), Identify("alice", "carol"))
	req.NotEqual(Identify("alice", "bob"), Identify("bob", "carol"))
}

func TestConversationID_Counterpart(t *testing.T) {
	req := require.New(t)
	id := Identify("alice", "bob")

	other, ok := id.Counterpart("alice")
	req.True(ok)
	req.Equal("bob", other)

	other, ok = id.Counterpart("bob")
	req.True(ok)
	req.Equal("alice", other)

	_, ok = id.Counterpart("carol")
	req.False(ok)

	// Identities holding the separator cannot be split back
	_, _, ok = Identify("jean-paul", "bob").Participants()
	req.False(ok)
}
