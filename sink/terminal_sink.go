package sink

import (
	"chat-session/domain"
	"chat-session/domain/event"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Terminal renders session changes as lines of text.
// It follows the focus from the events it consumes, so it needs no access
// to the session itself.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	self    string
	colours bool
	focus   domain.ConversationID
}

func NewTerminal(out io.Writer, self string, colours bool) *Terminal {
	return &Terminal{out: out, self: self, colours: colours}
}

func (t *Terminal) Consume(e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.PresenceReplaced:
		others := lo.FilterMap(evt.Peers, func(p domain.Peer, _ int) (string, bool) {
			return p.Identity, p.Identity != t.self
		})
		if len(others) == 0 {
			return t.Printf("%s\n", t.paint(color.FgGray, "nobody else is online"))
		}
		return t.Printf("%s %s\n", t.paint(color.FgGray, "online:"), strings.Join(others, ", "))
	case event.PeerRemoved:
		return t.Printf("%s\n", t.paint(color.FgGray, evt.Identity+" left"))
	case event.FocusChanged:
		t.focus = evt.ConversationID
		return t.Printf("%s\n", t.paint(color.FgYellow, fmt.Sprintf("====== %s ======", evt.Peer)))
	case event.HistoryReplaced:
		if evt.ConversationID != t.focus {
			return nil
		}
		for _, m := range evt.Messages {
			if err := t.Printf("%s\n", t.line(m)); err != nil {
				return err
			}
		}
		return nil
	case event.MessageAppended:
		if evt.ConversationID != t.focus {
			return t.Printf("%s\n", t.paint(color.FgMagenta, "new message from "+evt.Message.Sender))
		}
		return t.Printf("%s\n", t.line(evt.Message))
	}
	return nil
}

// Who prints the online peers as a table, marking the focused one.
func (t *Terminal) Who(peers []domain.Peer, focus string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"Peer", "Avatar", "Focus"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, p := range peers {
		avatar := "-"
		if p.Avatar.Present() {
			avatar = p.Avatar.MimeType()
		}
		table.Append([]string{p.Identity, avatar, lo.Ternary(p.Identity == focus, "*", "")})
	}
	table.Render()
}

// Printf writes to the terminal output, serialised with the renderer.
func (t *Terminal) Printf(format string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.out, format, args...)
	return err
}

func (t *Terminal) line(m domain.Message) string {
	sender := t.paint(color.FgCyan, m.Sender)
	if m.Sender == t.self {
		sender = t.paint(color.FgGreen, m.Sender)
	}
	return fmt.Sprintf("[%s] %s: %s", m.SentAt, sender, m.Text)
}

func (t *Terminal) paint(c color.Color, s string) string {
	if !t.colours {
		return s
	}
	return color.New(c).Render(s)
}
