//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-session/domain"
	"chat-session/domain/event"
	"context"
	"reflect"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Handler receives one inbound frame for the event it subscribed to.
type Handler func(frame event.Frame) error

// ITransport is the single bidirectional event pipe of a client session.
type ITransport interface {
	Emit(ctx context.Context, name event.Name, payload any) error
	Subscribe(name event.Name, handler Handler) uuid.UUID
	Unsubscribe(id uuid.UUID)
}

// IExecutor runs tasks in the event-loop turn.
type IExecutor interface {
	Submit(ctx context.Context, task func()) error
}

type EventSink interface {
	Consume(e event.DomainEvent) error
}

type IPublisher interface {
	Publish(e event.DomainEvent)
}

type IPresenceRegistry interface {
	ReplaceAll(peers []domain.Peer)
	Remove(identity string)
	ListOthers(self string) []domain.Peer
	Get(identity string) (domain.Peer, bool)
}

type IConversationStore interface {
	EnsureLoaded(id domain.ConversationID, fetch func() error) error
	Append(id domain.ConversationID, message domain.Message)
	ReplaceLog(snapshot domain.HistorySnapshot) (domain.ConversationID, bool)
	Log(id domain.ConversationID) ([]domain.Message, bool)
}
