// Package sse streams library and session changes to connected clients as
// Server-Sent Events.
package sse

import (
	"time"

	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/library"
	"github.com/readingnook/readingnook-server/internal/session"
)

// EventType is the SSE event name.
type EventType string

const (
	EventLibraryLoaded  EventType = EventType(library.ChangeLoaded)
	EventLibraryCleared EventType = EventType(library.ChangeCleared)
	EventBookAdded      EventType = EventType(library.ChangeAdded)
	EventBookUpdated    EventType = EventType(library.ChangeUpdated)
	EventBookDeleted    EventType = EventType(library.ChangeDeleted)

	EventSignedIn  EventType = EventType(session.SignedIn)
	EventSignedOut EventType = EventType(session.SignedOut)

	EventConnected EventType = "connected"
	EventHeartbeat EventType = "heartbeat"
)

// Event is one message on the stream.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// BookEventData carries a library change.
type BookEventData struct {
	UserID string       `json:"userId"`
	BookID string       `json:"bookId,omitempty"`
	Book   *domain.Book `json:"book,omitempty"`
}

// SessionEventData carries a session change.
type SessionEventData struct {
	User domain.User `json:"user"`
}

// HeartbeatEventData is empty; the timestamp is enough.
type HeartbeatEventData struct{}

// NewLibraryEvent converts a library change. book is attached when known.
func NewLibraryEvent(c library.Change, book *domain.Book) Event {
	return Event{
		Type:      EventType(c.Kind),
		Timestamp: time.Now(),
		Data: BookEventData{
			UserID: c.UserID,
			BookID: c.BookID,
			Book:   book,
		},
	}
}

// NewSessionEvent converts a session change.
func NewSessionEvent(e session.Event) Event {
	return Event{
		Type:      EventType(e.Kind),
		Timestamp: time.Now(),
		Data:      SessionEventData{User: e.User},
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      HeartbeatEventData{},
	}
}
