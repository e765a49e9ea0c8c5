package runtime

import (
	"chat-session/domain"
)

// View is the derived state a renderer reads after each change.
// It is a copy; holding it does not pin session state.
type View struct {
	Self           domain.Peer
	Peers          []domain.Peer
	Focus          string
	Focused        bool
	FocusedPeer    domain.Peer
	FocusOnline    bool
	ConversationID domain.ConversationID
	Messages       []domain.Message
	Loaded         bool
}

func (s *Session) View() View {
	view := View{
		Self:  s.self,
		Peers: s.presence.ListOthers(s.self.Identity),
	}
	if !s.focused {
		return view
	}
	view.Focus = s.focus
	view.Focused = true
	view.ConversationID = domain.Identify(s.self.Identity, s.focus)
	view.FocusedPeer, view.FocusOnline = s.presence.Get(s.focus)
	if !view.FocusOnline {
		view.FocusedPeer = domain.Peer{Identity: s.focus}
	}
	view.Messages, view.Loaded = s.conversations.Log(view.ConversationID)
	return view
}

// AvatarOf returns the displayable avatar of a message sender, "" when the
// sender is unknown or has no avatar.
func (v View) AvatarOf(identity string) string {
	if identity == v.Self.Identity {
		return v.Self.Avatar.DataURL()
	}
	for _, p := range v.Peers {
		if p.Identity == identity {
			return p.Avatar.DataURL()
		}
	}
	return ""
}

// Mine reports whether the message was sent by the local peer.
func (v View) Mine(message domain.Message) bool {
	return message.Sender == v.Self.Identity
}
