package sink

import (
	"chat-session/domain/event"
	"chat-session/repositories"
	"fmt"
	"log/slog"
	"time"
)

// DiskSink persists every relayed message.
type DiskSink struct {
	repository repositories.IMessageRepository
	log        *slog.Logger
	now        func() time.Time
}

func NewDiskSink(repository repositories.IMessageRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log, now: time.Now}
}

func (d DiskSink) Consume(e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		return d.repository.StoreMessage(repositories.NewDiskMessage(evt.Message, d.now()))
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %v", evt.Kind()))
		return nil
	}
}
