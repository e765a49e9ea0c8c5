package socket

import (
	"chat-session/domain/event"
	"chat-session/errors"
	"chat-session/runtime/workers"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// relayStub upgrades one connection and hands it to serve.
func relayStub(t *testing.T, serve func(conn *websocket.Conn)) string {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testOptions() Options {
	options := DefaultOptions()
	options.HandshakeTimeout = time.Second
	options.PingInterval = 0
	return options
}

func TestClient_Subscriptions(t *testing.T) {
	req := require.New(t)
	client := NewClient(slog.Default(), nil, testOptions())

	first := client.Subscribe(event.PeerDepartedName, func(event.Frame) error { return nil })
	second := client.Subscribe(event.PeerDepartedName, func(event.Frame) error { return nil })
	client.Subscribe(event.MessageReceivedName, func(event.Frame) error { return nil })
	req.Equal(2, client.Handlers(event.PeerDepartedName))
	req.Equal(1, client.Handlers(event.MessageReceivedName))

	client.Unsubscribe(first)
	client.Unsubscribe(first)
	req.Equal(1, client.Handlers(event.PeerDepartedName))

	client.Unsubscribe(second)
	req.Zero(client.Handlers(event.PeerDepartedName))
}

func TestClient_EmitAndDispatch(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a relay replying to an announce with a presence snapshot
	received := make(chan event.Frame, 1)
	url := relayStub(t, func(conn *websocket.Conn) {
		var frame event.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		received <- frame
		reply, _ := event.NewFrame(event.PresenceSnapshotName, []event.Peer{{Identity: "alice"}, {Identity: "bob"}})
		_ = conn.WriteJSON(reply)
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, log, url, testOptions())
	req.NoError(err)

	var order []string
	snapshots := make(chan []event.Peer, 1)
	client.Subscribe(event.PresenceSnapshotName, func(frame event.Frame) error {
		order = append(order, "first")
		return nil
	})
	client.Subscribe(event.PresenceSnapshotName, func(frame event.Frame) error {
		order = append(order, "second")
		peers, err := event.Decode[[]event.Peer](frame)
		snapshots <- peers
		return err
	})

	stopped := make(chan error, 1)
	go func() { stopped <- client.Run(ctx) }()

	// When the client announces itself
	req.NoError(client.Emit(ctx, event.AnnouncePresenceName, event.AnnouncePresence{Identity: "alice", Avatar: []byte{1}}))

	// Then the relay got the named frame and the reply reached both handlers in order
	frame := <-received
	req.Equal(event.AnnouncePresenceName, frame.Event)
	announce, err := event.Decode[event.AnnouncePresence](frame)
	req.NoError(err)
	req.Equal("alice", announce.Identity)

	peers := <-snapshots
	req.Len(peers, 2)
	req.Equal([]string{"first", "second"}, order)

	client.Close()
	req.NoError(<-stopped)
	req.ErrorIs(client.Emit(ctx, event.FetchHistoryName, "alice-bob"), errors.ErrTransportClosed)
}

func TestClient_DispatchThroughExecutor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	url := relayStub(t, func(conn *websocket.Conn) {
		for _, id := range []string{"alice", "bob", "carol"} {
			frame, _ := event.NewFrame(event.PeerDepartedName, id)
			_ = conn.WriteJSON(frame)
		}
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	loop := workers.NewEventLoop(log, 8)
	go func() { _ = loop.Run(ctx) }()

	options := testOptions()
	options.Executor = loop
	client, err := Dial(ctx, log, url, options)
	req.NoError(err)
	defer client.Close()

	departed := make(chan string, 3)
	client.Subscribe(event.PeerDepartedName, func(frame event.Frame) error {
		identity, err := event.Decode[string](frame)
		departed <- identity
		return err
	})
	go func() { _ = client.Run(ctx) }()

	req.Equal("alice", <-departed)
	req.Equal("bob", <-departed)
	req.Equal("carol", <-departed)
}

func TestClient_RunStopsWhenRelayCloses(t *testing.T) {
	req := require.New(t)
	url := relayStub(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, slog.Default(), url, testOptions())
	req.NoError(err)

	req.NoError(client.Run(ctx))
	select {
	case <-client.Done():
	default:
		req.Fail("connection should be marked done")
	}
}

func TestClient_RunStopsWithContext(t *testing.T) {
	req := require.New(t)
	url := relayStub(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	client, err := Dial(ctx, slog.Default(), url, testOptions())
	req.NoError(err)

	stopped := make(chan error, 1)
	go func() { stopped <- client.Run(ctx) }()
	cancel()

	select {
	case err := <-stopped:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("read loop did not stop")
	}
}
