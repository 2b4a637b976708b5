package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/library"
	"github.com/readingnook/readingnook-server/internal/session"
)

func startManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m := NewManager(nil, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e, ok := <-c.EventChan:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_Broadcast(t *testing.T) {
	m := startManager(t)

	a, err := m.Connect()
	require.NoError(t, err)
	b, err := m.Connect()
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewLibraryEvent(library.Change{Kind: library.ChangeAdded, UserID: "u1", BookID: "42"}, nil))

	for _, c := range []*Client{a, b} {
		e := receive(t, c)
		assert.Equal(t, EventBookAdded, e.Type)
		data, ok := e.Data.(BookEventData)
		require.True(t, ok)
		assert.Equal(t, "42", data.BookID)
	}

	m.Disconnect(a.ID)
	m.Disconnect(a.ID)
	assert.Equal(t, 1, m.ClientCount())
	_, open := <-a.Done
	assert.False(t, open)
}

func TestManager_DropsForSlowClient(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect()
	require.NoError(t, err)

	for range clientBufferSize + 10 {
		m.Emit(NewSessionEvent(session.Event{Kind: session.SignedOut}))
	}

	require.Eventually(t, func() bool { return len(c.EventChan) == clientBufferSize },
		2*time.Second, 10*time.Millisecond)
}

func TestManager_Heartbeat(t *testing.T) {
	m := startManager(t, WithHeartbeat(20*time.Millisecond))
	c, err := m.Connect()
	require.NoError(t, err)

	assert.Equal(t, EventHeartbeat, receive(t, c).Type)
}

func TestManager_ShutdownDrains(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect()
	require.NoError(t, err)

	m.Emit(NewSessionEvent(session.Event{Kind: session.SignedIn, User: domain.User{ID: "u1"}}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx), "second shutdown is a no-op")

	e, ok := <-c.EventChan
	require.True(t, ok)
	assert.Equal(t, EventSignedIn, e.Type)
	_, ok = <-c.EventChan
	assert.False(t, ok, "client closed after drain")
	assert.Equal(t, 0, m.ClientCount())

	m.Emit(NewHeartbeatEvent())
}

func TestHandler_Streams(t *testing.T) {
	m := startManager(t)
	srv := httptest.NewServer(NewHandler(m, nil))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := make(chan [2]string, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		var name string
		for sc.Scan() {
			line := sc.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				frames <- [2]string{name, strings.TrimPrefix(line, "data: ")}
			}
		}
		close(frames)
	}()

	first := <-frames
	assert.Equal(t, string(EventConnected), first[0])

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	book := &domain.Book{ID: "7", Title: "Dune"}
	m.Emit(NewLibraryEvent(library.Change{Kind: library.ChangeUpdated, UserID: "u1", BookID: "7"}, book))

	select {
	case f := <-frames:
		assert.Equal(t, string(EventBookUpdated), f[0])
		var payload struct {
			Type string `json:"type"`
			Data struct {
				BookID string      `json:"bookId"`
				Book   domain.Book `json:"book"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(f[1]), &payload))
		assert.Equal(t, "book.updated", payload.Type)
		assert.Equal(t, "7", payload.Data.BookID)
		assert.Equal(t, "Dune", payload.Data.Book.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no event streamed")
	}

	cancel()
	require.Eventually(t, func() bool { return m.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsNonGET(t *testing.T) {
	h := NewHandler(NewManager(nil), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
