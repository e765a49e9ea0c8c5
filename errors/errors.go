package errors

import "fmt"

var (
	ErrWorkerPanic           = fmt.Errorf("worker panic")
	ErrNoFocusedPeer         = fmt.Errorf("no peer is focused")
	ErrEmptyMessage          = fmt.Errorf("message text is empty")
	ErrSessionAlreadyStarted = fmt.Errorf("session already started")
	ErrSessionClosed         = fmt.Errorf("session is closed")
	ErrInvalidPayload        = fmt.Errorf("invalid payload")
	ErrUnknownEvent          = fmt.Errorf("unknown event")
	ErrTransportClosed       = fmt.Errorf("transport is closed")
	ErrLoopStopped           = fmt.Errorf("event loop stopped")
	ErrNotAnnounced          = fmt.Errorf("presence not announced")
	ErrOutboxFull            = fmt.Errorf("connection outbox is full")
	ErrSenderMismatch        = fmt.Errorf("sender does not match the announced identity")
	ErrConversationMismatch  = fmt.Errorf("conversation id does not match sender and recipient")
)
