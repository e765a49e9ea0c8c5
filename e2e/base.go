package e2e

import (
	"chat-session/client"
	"chat-session/infrastructure/socket"
	"chat-session/relay"
	"chat-session/repositories"
	"chat-session/runtime"
	"chat-session/sink"
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseChatSuite struct {
	suite.Suite
	Config  Config
	log     *slog.Logger
	timeout time.Duration
	db      *badger.DB
	server  *httptest.Server
}

// SetupSuite loads the environment configuration and starts an in-process
// relay unless one is configured.
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.timeout, err = time.ParseDuration(s.Config.Timeout)
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)

	if s.Config.RelayURL != "" {
		return
	}
	s.db, err = badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)

	repository := repositories.NewMessageRepository(s.db, s.log, nil)
	publisher := runtime.NewFanout(s.log).Add(sink.NewDiskSink(repository, s.log))
	server := relay.NewServer(s.log, relay.NewHub(s.log), repository, publisher, relay.DefaultOptions())
	s.server = httptest.NewServer(server.Router())
	s.Config.RelayURL = "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
}

func (s *BaseChatSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Step prints a colorized header for a scenario step.
func (s *BaseChatSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Connect starts a client for identity and closes it with the test.
func (s *BaseChatSuite) Connect(identity string, avatar []byte, echoSuppression bool) *client.Client {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	options := socket.DefaultOptions()
	options.PingInterval = 0
	c, err := client.Connect(ctx, s.log.With("client", identity), client.Config{
		ServerURL:       s.Config.RelayURL,
		Identity:        identity,
		Avatar:          avatar,
		BufferSize:      64,
		RestartInterval: 50 * time.Millisecond,
		EchoSuppression: echoSuppression,
		Socket:          options,
	})
	s.Require().NoError(err, "Failed to connect to relay at "+s.Config.RelayURL)
	s.T().Cleanup(c.Close)

	// The supervisor outlives this setup context
	s.Require().NoError(c.Start(context.Background()))
	return c
}

// WaitView waits until the view of c satisfies condition.
func (s *BaseChatSuite) WaitView(c *client.Client, condition func(view runtime.View) bool, msg string) {
	s.Require().Eventually(func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		view, err := c.View(ctx)
		return err == nil && condition(view)
	}, s.timeout, 10*time.Millisecond, msg)
}

// Do runs fn on the event loop of c.
func (s *BaseChatSuite) Do(c *client.Client, fn func(ctx context.Context, session *runtime.Session) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.Require().NoError(c.Do(ctx, func(session *runtime.Session) error { return fn(ctx, session) }))
}
