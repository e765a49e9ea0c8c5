package repositories

import (
	"chat-session/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(id domain.ConversationID) ([]DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is a relayed message as stored by the relay.
// At is the relay reception time, SentAt the sender's own display stamp.
type DiskMessage struct {
	ID             uuid.UUID             `json:"id"`
	ConversationID domain.ConversationID `json:"conversationId"`
	Sender         string                `json:"sender"`
	Text           string                `json:"text"`
	SentAt         string                `json:"sentAt"`
	At             time.Time             `json:"at"`
}

func NewDiskMessage(message domain.Message, at time.Time) DiskMessage {
	return DiskMessage{
		ID:             uuid.New(),
		ConversationID: message.ConversationID,
		Sender:         message.Sender,
		Text:           message.Text,
		SentAt:         message.SentAt,
		At:             at.UTC(),
	}
}

func (m DiskMessage) ToDomain() domain.Message {
	return domain.Message{
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Text:           m.Text,
		SentAt:         m.SentAt,
	}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{conversation_id}:{timestamp_padded}:{uuid}" so that
// the 19-digit zero padding keeps keys in chronological order and the UUID
// separates two messages received at the same nanosecond.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := messageKey(message)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages returns the history of a conversation, oldest first.
// With a limit, only the most recent messages are kept.
func (m MessageRepository) GetMessages(id domain.ConversationID) ([]DiskMessage, error) {
	var diskMessages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", id))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Start after the newest possible key and walk back in time
		for it.Seek(append(prefix, []byte("9999999999999999999")...)); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(diskMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var message DiskMessage
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				// The prefix also matches ids extending this one (alice-bob:1)
				if message.ConversationID != id {
					return nil
				}
				diskMessages = append(diskMessages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(diskMessages)
	return diskMessages, nil
}

func messageKey(message DiskMessage) string {
	return fmt.Sprintf("msg:%s:%019d:%s",
		message.ConversationID,
		message.At.UnixNano(),
		message.ID,
	)
}
