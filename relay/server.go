package relay

import (
	"chat-session/contract"
	"chat-session/domain"
	"chat-session/domain/event"
	"chat-session/errors"
	"chat-session/repositories"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	OutboxSize   int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		OutboxSize:   64,
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingInterval: 20 * time.Second,
	}
}

type Server struct {
	log        *slog.Logger
	hub        *Hub
	repository repositories.IMessageRepository
	publisher  contract.IPublisher
	options    Options
	upgrader   websocket.Upgrader
}

// NewServer builds the relay. Accepted messages are published to publisher
// (persistence) before being relayed; history is read from repository.
func NewServer(log *slog.Logger, hub *Hub, repository repositories.IMessageRepository,
	publisher contract.IPublisher, options Options) *Server {
	return &Server{
		log:        log,
		hub:        hub,
		repository: repository,
		publisher:  publisher,
		options:    options,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router wires the relay HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ok %d online\n", len(s.hub.Peers()))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "error", err)
		return
	}
	conn := newConnection(s.log, ws, s.options.OutboxSize, s.options.WriteTimeout)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go conn.writeLoop(ctx, s.options.PingInterval)

	var identity string
	defer func() {
		if identity != "" {
			s.hub.Leave(identity, conn)
		}
		conn.close()
	}()

	s.extendReadDeadline(ws)
	ws.SetPongHandler(func(string) error {
		s.extendReadDeadline(ws)
		return nil
	})

	for {
		var frame event.Frame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Read failed", "identity", identity, "error", err)
			}
			return
		}
		s.extendReadDeadline(ws)

		if err := s.handleFrame(conn, &identity, frame); err != nil {
			s.log.Warn("Frame dropped", "identity", identity, "event", frame.Event, "error", err)
		}
	}
}

func (s *Server) handleFrame(conn *connection, identity *string, frame event.Frame) error {
	switch frame.Event {
	case event.AnnouncePresenceName:
		return s.onAnnounce(conn, identity, frame)
	case event.FetchHistoryName:
		return s.onFetchHistory(conn, frame)
	case event.SendMessageName:
		return s.onSendMessage(*identity, frame)
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownEvent, frame.Event)
	}
}

// onAnnounce joins the connection under its identity. Only the first
// announce of a connection counts.
func (s *Server) onAnnounce(conn *connection, identity *string, frame event.Frame) error {
	announce, err := event.Decode[event.AnnouncePresence](frame)
	if err != nil {
		return err
	}
	if *identity != "" {
		s.log.Debug("Connection already announced", "identity", *identity)
		return nil
	}
	*identity = announce.Identity
	s.hub.Join(domain.Peer{Identity: announce.Identity, Avatar: announce.Avatar}, conn)
	return nil
}

// onFetchHistory answers with the stored history, the conversation id
// travelling next to the messages so an empty history is still addressable.
func (s *Server) onFetchHistory(conn *connection, frame event.Frame) error {
	id, err := event.Decode[string](frame)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: empty conversation id", errors.ErrInvalidPayload)
	}
	messages, err := s.repository.GetMessages(domain.ConversationID(id))
	if err != nil {
		return fmt.Errorf("history %s: %w", id, err)
	}
	snapshot := event.HistorySnapshot{
		ConversationID: id,
		Messages: lo.Map(messages, func(m repositories.DiskMessage, _ int) event.MessageReceived {
			return event.FromDomainMessage(m.ToDomain())
		}),
	}
	reply, err := event.NewFrame(event.HistorySnapshotName, snapshot)
	if err != nil {
		return err
	}
	s.log.Debug("History served", "conversation", id, "messages", len(messages))
	return conn.Send(reply)
}

// onSendMessage persists the message and relays it to the recipient only;
// the sender already shows its own copy.
func (s *Server) onSendMessage(identity string, frame event.Frame) error {
	if identity == "" {
		return errors.ErrNotAnnounced
	}
	send, err := event.Decode[event.SendMessage](frame)
	if err != nil {
		return err
	}
	if send.Sender != identity {
		return fmt.Errorf("%w: %s", errors.ErrSenderMismatch, send.Sender)
	}
	if domain.ConversationID(send.ConversationID) != domain.Identify(send.Sender, send.Recipient) {
		return fmt.Errorf("%w: %s", errors.ErrConversationMismatch, send.ConversationID)
	}

	message := send.ToDomain()
	s.publisher.Publish(event.MessageAppended{ConversationID: message.ConversationID, Message: message})

	relayed, err := event.NewFrame(event.MessageReceivedName, event.FromDomainMessage(message))
	if err != nil {
		return err
	}
	if !s.hub.Deliver(send.Recipient, relayed) {
		s.log.Debug("Recipient offline, message stored only", "recipient", send.Recipient)
	}
	return nil
}

func (s *Server) extendReadDeadline(ws *websocket.Conn) {
	if s.options.ReadTimeout > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(s.options.ReadTimeout))
	}
}
