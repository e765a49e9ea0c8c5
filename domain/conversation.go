package domain

import (
	"slices"
	"strings"
)

// ConversationSeparator joins the two sorted identities of a conversation id.
const ConversationSeparator = "-"

type ConversationID string

// Identify returns the canonical id of the conversation between two peers.
// The identities are sorted lexicographically before joining, so
// Identify(a, b) == Identify(b, a) for every pair.
func Identify(peerA, peerB string) ConversationID {
	pair := []string{peerA, peerB}
	slices.Sort(pair)
	return ConversationID(strings.Join(pair, ConversationSeparator))
}

// Participants splits the id back into its two identities.
// It reports false when the separator does not occur exactly once, which
// happens when an identity itself contains the separator.
func (c ConversationID) Participants() (string, string, bool) {
	if strings.Count(string(c), ConversationSeparator) != 1 {
		return "", "", false
	}
	first, second, _ := strings.Cut(string(c), ConversationSeparator)
	return first, second, true
}

// Counterpart returns the identity facing self in the conversation.
func (c ConversationID) Counterpart(self string) (string, bool) {
	first, second, ok := c.Participants()
	switch {
	case !ok:
		return "", false
	case first == self:
		return second, true
	case second == self:
		return first, true
	default:
		return "", false
	}
}

func (c ConversationID) String() string {
	return string(c)
}
