package runtime

import (
	"chat-session/contract"
	"chat-session/domain"
	"chat-session/domain/event"
	"chat-session/errors"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Option func(*Session)

// WithClock replaces the clock used to stamp outgoing messages.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTimeLayout sets the layout of Message.SentAt, time.TimeOnly by default.
func WithTimeLayout(layout string) Option {
	return func(s *Session) { s.timeLayout = layout }
}

// WithEchoSuppression drops an inbound message that repeats one of our own
// optimistic sends, matched on conversation, sender, sentAt and text.
// Each send suppresses at most one echo.
func WithEchoSuppression() Option {
	return func(s *Session) { s.suppressEcho = true }
}

// Session is the only component talking to the transport.
// It turns inbound events into registry/store mutations and user actions
// into outbound events. One Session per client session, one transport shared
// by every conversation.
//
// Session is not safe for concurrent use: every call, including the inbound
// handlers, must run on the same event loop.
type Session struct {
	log           *slog.Logger
	transport     contract.ITransport
	presence      contract.IPresenceRegistry
	conversations contract.IConversationStore
	publisher     contract.IPublisher
	self          domain.Peer

	focus   string
	focused bool

	started   bool
	announced bool
	closed    bool

	subscriptions []uuid.UUID
	now           func() time.Time
	timeLayout    string
	suppressEcho  bool
	pendingEchoes map[domain.Message]int
}

func NewSession(log *slog.Logger, transport contract.ITransport,
	presence contract.IPresenceRegistry, conversations contract.IConversationStore,
	publisher contract.IPublisher, self domain.Peer, opts ...Option) *Session {
	s := &Session{
		log:           log,
		transport:     transport,
		presence:      presence,
		conversations: conversations,
		publisher:     publisher,
		self:          self,
		now:           time.Now,
		timeLayout:    time.TimeOnly,
		pendingEchoes: make(map[domain.Message]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes the inbound handlers, then announces presence when both
// identity and avatar are known.
func (s *Session) Start(ctx context.Context) error {
	switch {
	case s.closed:
		return errors.ErrSessionClosed
	case s.started:
		return errors.ErrSessionAlreadyStarted
	}
	s.subscribe(event.PresenceSnapshotName, s.onPresenceSnapshot)
	s.subscribe(event.PeerDepartedName, s.onPeerDeparted)
	s.subscribe(event.MessageReceivedName, s.onMessageReceived)
	s.subscribe(event.HistorySnapshotName, s.onHistorySnapshot)
	s.started = true
	s.log.Info("Session started", "identity", s.self.Identity, "subscriptions", len(s.subscriptions))
	return s.announce(ctx)
}

// SetAvatar supplies the local avatar. A started session that never
// announced itself does it now.
func (s *Session) SetAvatar(ctx context.Context, avatar domain.Avatar) error {
	if s.closed {
		return errors.ErrSessionClosed
	}
	s.self.Avatar = avatar
	if !s.started {
		return nil
	}
	return s.announce(ctx)
}

// Announced reports whether announce-presence was emitted.
func (s *Session) Announced() bool {
	return s.announced
}

// announce emits announce-presence at most once per session.
func (s *Session) announce(ctx context.Context) error {
	if s.announced || s.self.Identity == "" || !s.self.Avatar.Present() {
		return nil
	}
	payload := event.AnnouncePresence{Identity: s.self.Identity, Avatar: s.self.Avatar}
	if err := s.transport.Emit(ctx, event.AnnouncePresenceName, payload); err != nil {
		return fmt.Errorf("announce presence: %w", err)
	}
	s.announced = true
	s.log.Info("Presence announced", "identity", s.self.Identity)
	return nil
}

// SelectPeer focuses the conversation with identity and requests its history
// when the conversation was never loaded nor requested.
func (s *Session) SelectPeer(ctx context.Context, identity string) error {
	if s.closed {
		return errors.ErrSessionClosed
	}
	id := domain.Identify(s.self.Identity, identity)
	s.focus = identity
	s.focused = true
	s.publish(event.FocusChanged{Peer: identity, ConversationID: id})

	return s.conversations.EnsureLoaded(id, func() error {
		if err := s.transport.Emit(ctx, event.FetchHistoryName, id.String()); err != nil {
			return fmt.Errorf("fetch history %s: %w", id, err)
		}
		return nil
	})
}

// Focus returns the focused peer, false while unfocused.
func (s *Session) Focus() (string, bool) {
	return s.focus, s.focused
}

// SendMessage appends the message to the focused conversation, then emits it.
// The local append is never rolled back, even when the emit fails.
func (s *Session) SendMessage(ctx context.Context, text string) (domain.Message, error) {
	switch {
	case s.closed:
		return domain.Message{}, errors.ErrSessionClosed
	case !s.focused:
		return domain.Message{}, errors.ErrNoFocusedPeer
	case text == "":
		return domain.Message{}, errors.ErrEmptyMessage
	}

	id := domain.Identify(s.self.Identity, s.focus)
	message := domain.Message{
		ConversationID: id,
		Sender:         s.self.Identity,
		Text:           text,
		SentAt:         s.now().Format(s.timeLayout),
	}
	s.conversations.Append(id, message)
	if s.suppressEcho {
		s.pendingEchoes[message]++
	}

	payload := event.SendMessage{
		Recipient:      s.focus,
		Text:           message.Text,
		Sender:         message.Sender,
		SentAt:         message.SentAt,
		ConversationID: id.String(),
	}
	if err := s.transport.Emit(ctx, event.SendMessageName, payload); err != nil {
		return message, fmt.Errorf("send message to %s: %w", s.focus, err)
	}
	return message, nil
}

// Close removes every handler this session subscribed. Safe to call twice.
func (s *Session) Close() {
	if s.closed {
		return
	}
	for _, id := range s.subscriptions {
		s.transport.Unsubscribe(id)
	}
	s.log.Info("Session closed", "identity", s.self.Identity, "unsubscribed", len(s.subscriptions))
	s.subscriptions = nil
	s.closed = true
}

func (s *Session) subscribe(name event.Name, handler contract.Handler) {
	s.subscriptions = append(s.subscriptions, s.transport.Subscribe(name, handler))
}

func (s *Session) onPresenceSnapshot(frame event.Frame) error {
	peers, err := event.Decode[[]event.Peer](frame)
	if err != nil {
		return err
	}
	valid, dropped := event.ValidPeers(peers)
	if dropped > 0 {
		s.log.Warn("Peers without identity dropped from snapshot", "dropped", dropped)
	}
	s.presence.ReplaceAll(event.ToDomainPeers(valid))
	return nil
}

func (s *Session) onPeerDeparted(frame event.Frame) error {
	identity, err := event.Decode[string](frame)
	if err != nil {
		return err
	}
	s.presence.Remove(identity)
	return nil
}

// onMessageReceived trusts the conversation id carried by the server.
func (s *Session) onMessageReceived(frame event.Frame) error {
	payload, err := event.Decode[event.MessageReceived](frame)
	if err != nil {
		return err
	}
	message := payload.ToDomain()
	if s.consumeEcho(message) {
		s.log.Debug("Echo of an optimistic send suppressed", "conversation_id", message.ConversationID)
		return nil
	}
	s.conversations.Append(message.ConversationID, message)
	return nil
}

func (s *Session) onHistorySnapshot(frame event.Frame) error {
	snapshot, err := event.Decode[event.HistorySnapshot](frame)
	if err != nil {
		return err
	}
	id, ok := s.conversations.ReplaceLog(snapshot.ToDomainSnapshot())
	if !ok {
		s.log.Warn("History snapshot without conversation id ignored")
		return nil
	}
	s.log.Debug("History loaded", "conversation_id", id, "messages", len(snapshot.Messages))
	return nil
}

func (s *Session) consumeEcho(message domain.Message) bool {
	if !s.suppressEcho || message.Sender != s.self.Identity {
		return false
	}
	count := s.pendingEchoes[message]
	if count == 0 {
		return false
	}
	if count == 1 {
		delete(s.pendingEchoes, message)
	} else {
		s.pendingEchoes[message] = count - 1
	}
	return true
}

func (s *Session) publish(e event.DomainEvent) {
	if s.publisher != nil {
		s.publisher.Publish(e)
	}
}
