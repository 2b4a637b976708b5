// Package app wires the session, the library, and their collaborators into
// one explicit application state handed to the presentation layer.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/readingnook/readingnook-server/internal/catalog"
	"github.com/readingnook/readingnook-server/internal/cover"
	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
	"github.com/readingnook/readingnook-server/internal/library"
	"github.com/readingnook/readingnook-server/internal/search"
	"github.com/readingnook/readingnook-server/internal/session"
	"github.com/readingnook/readingnook-server/internal/sse"
)

// State is the application state. Fields are shared references; State owns
// none of their lifecycles except the subscriptions made by Start.
type State struct {
	Session *session.Manager
	Library *library.Store
	Catalog *catalog.Client
	Covers  *cover.Extractor
	Search  *search.Index
	Events  *sse.Manager

	logger *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	started bool
	unsub   func()
}

// Deps are the collaborators of a State. Covers, Search and Events are optional.
type Deps struct {
	Session *session.Manager
	Library *library.Store
	Catalog *catalog.Client
	Covers  *cover.Extractor
	Search  *search.Index
	Events  *sse.Manager
}

// New assembles a State. Nothing happens until Start.
func New(d Deps, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &State{
		Session: d.Session,
		Library: d.Library,
		Catalog: d.Catalog,
		Covers:  d.Covers,
		Search:  d.Search,
		Events:  d.Events,
		logger:  logger,
	}
}

// Start links the library to the session and restores the persisted session,
// which loads that user's library. ctx scopes the library loads triggered
// later by sign-ins; its cancellation is ignored.
func (s *State) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.ctx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	s.Session.Subscribe(s.onSession)
	unsub := s.Library.Subscribe(s.onLibrary)

	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()

	u, err := s.Session.Restore(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		s.logger.Info("no saved session")
	}
	return nil
}

// Stop detaches the library observer. Session subscriptions live as long as the manager.
func (s *State) Stop() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (s *State) onSession(e session.Event) {
	switch e.Kind {
	case session.SignedIn:
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if err := s.Library.Load(ctx, e.User.ID); err != nil {
			s.logger.Error("library unavailable after sign-in",
				"user_id", e.User.ID, "code", errors.CodeOf(err), "error", err)
		}
	case session.SignedOut:
		s.Library.Clear()
	}

	if s.Events != nil {
		s.Events.Emit(sse.NewSessionEvent(e))
	}
}

func (s *State) onLibrary(c library.Change) {
	// Cover palettes belong to the shelf that was just closed.
	if c.Kind == library.ChangeCleared && s.Covers != nil {
		s.Covers.Forget()
	}
	if s.Events == nil {
		return
	}
	var book *domain.Book
	if c.BookID != "" && c.Kind != library.ChangeDeleted {
		if b, ok := s.Library.Get(c.BookID); ok {
			book = &b
		}
	}
	s.Events.Emit(sse.NewLibraryEvent(c, book))
}

// RequireUser returns the signed-in user, loading their library again if an
// earlier load failed. It fails with UNAUTHORIZED when nobody is signed in
// and UNAVAILABLE when the library still can't be read.
func (s *State) RequireUser(ctx context.Context) (*domain.User, error) {
	u := s.Session.Current()
	if u == nil {
		return nil, errors.Unauthorized("sign in to use your library")
	}
	if s.Library.UserID() != u.ID {
		if err := s.Library.Load(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return u, nil
}
