package main

import (
	"bufio"
	"chat-session/domain"
	"chat-session/errors"
	"chat-session/runtime"
	"chat-session/sink"
	"context"
	stdErrors "errors"
	"io"
	"strings"
)

// session is what the prompt needs from client.Client.
type session interface {
	Do(ctx context.Context, fn func(s *runtime.Session) error) error
	View(ctx context.Context) (runtime.View, error)
}

type prompt struct {
	chat     session
	terminal *sink.Terminal
}

func newPrompt(chat session, terminal *sink.Terminal) prompt {
	return prompt{chat: chat, terminal: terminal}
}

// Handle runs one input line and reports whether the user asked to quit.
//
//	/who             list online peers
//	/chat <peer>     focus a conversation
//	/avatar <path>   set the avatar, announcing presence if needed
//	/quit            leave
//	anything else    send to the focused peer, unless it starts with /
func (p prompt) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	command, argument, _ := strings.Cut(line, " ")
	argument = strings.TrimSpace(argument)

	var err error
	switch command {
	case "":
		return false
	case "/quit":
		return true
	case "/who":
		var view runtime.View
		if view, err = p.chat.View(ctx); err == nil {
			p.terminal.Who(view.Peers, view.Focus)
		}
	case "/chat":
		if argument == "" {
			err = p.terminal.Printf("usage: /chat <peer>\n")
			break
		}
		err = p.chat.Do(ctx, func(s *runtime.Session) error { return s.SelectPeer(ctx, argument) })
	case "/avatar":
		var avatar domain.Avatar
		if avatar, err = domain.AvatarFromFile(argument); err == nil {
			err = p.chat.Do(ctx, func(s *runtime.Session) error { return s.SetAvatar(ctx, avatar) })
		}
	default:
		if strings.HasPrefix(command, "/") {
			err = p.terminal.Printf("unknown command %s, try /who /chat /avatar /quit\n", command)
			break
		}
		err = p.chat.Do(ctx, func(s *runtime.Session) error {
			_, err := s.SendMessage(ctx, line)
			return err
		})
	}

	switch {
	case err == nil:
	case stdErrors.Is(err, errors.ErrNoFocusedPeer):
		_ = p.terminal.Printf("pick someone first: /chat <peer>\n")
	default:
		_ = p.terminal.Printf("error: %v\n", err)
	}
	return false
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
