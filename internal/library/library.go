// Package library holds the signed-in user's shelf in memory and writes the
// whole shelf through to the key-value store on every mutation.
package library

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
	"github.com/readingnook/readingnook-server/internal/id"
	"github.com/readingnook/readingnook-server/internal/store"
)

// KeyPrefix namespaces library blobs per user.
const KeyPrefix = "reading-nook-books-"

// Key returns the storage key holding userID's library.
func Key(userID string) string {
	return KeyPrefix + userID
}

// Indexer keeps a search index in step with the library.
type Indexer interface {
	Rebuild(books []domain.Book) error
	Index(book domain.Book) error
	Remove(bookID string) error
	Reset() error
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Store is the personal library of whoever is signed in. It is safe for concurrent use.
type Store struct {
	kv      store.KV
	logger  *slog.Logger
	indexer Indexer
	now     func() time.Time

	mu     sync.RWMutex
	userID string
	books  []domain.Book

	// indexMu orders indexer calls by commit. It is taken while mu is still
	// held and mu is released before the indexer runs, so lock order is mu
	// then indexMu.
	indexMu sync.Mutex

	subs subscribers
}

// Option configures a Store.
type Option func(*Store)

// WithIndexer attaches a search index.
func WithIndexer(ix Indexer) Option {
	return func(s *Store) { s.indexer = ix }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty, signed-out library over kv.
func New(kv store.KV, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{kv: kv, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces working memory with userID's persisted library. A missing
// blob is an empty library. An unreadable blob is logged and treated as empty.
// Any other storage failure leaves the store signed out and is returned.
func (s *Store) Load(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.Validation("user id is required")
	}

	var books []domain.Book
	err := store.GetJSON(ctx, s.kv, Key(userID), &books)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		books = nil
	case errors.Is(err, store.ErrCorrupt):
		s.logger.Warn("library blob unreadable, starting empty", "user_id", userID, "error", err)
		books = nil
	default:
		s.logger.Error("failed to load library", "user_id", userID, "error", err)
		s.Clear()
		return errors.Wrap(err, errors.CodeUnavailable, "load library")
	}

	for i := range books {
		books[i].ApplyDefaults()
		if books[i].Normalize() {
			s.logger.Warn("stored book had invalid fields, reset to defaults",
				"user_id", userID, "book_id", books[i].ID)
		}
	}

	s.mu.Lock()
	s.userID = userID
	s.books = books
	s.indexMu.Lock()
	s.mu.Unlock()

	if s.indexer != nil {
		if err := s.indexer.Rebuild(cloneAll(books)); err != nil {
			s.logger.Warn("failed to rebuild search index", "error", err)
		}
	}
	s.indexMu.Unlock()

	s.logger.Info("library loaded", "user_id", userID, "books", len(books))
	s.subs.notify(Change{Kind: ChangeLoaded, UserID: userID})
	return nil
}

// Clear drops working memory and the user scope. Storage is untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	userID := s.userID
	s.userID = ""
	s.books = nil
	s.indexMu.Lock()
	s.mu.Unlock()

	if s.indexer != nil {
		if err := s.indexer.Reset(); err != nil {
			s.logger.Warn("failed to reset search index", "error", err)
		}
	}
	s.indexMu.Unlock()

	if userID != "" {
		s.subs.notify(Change{Kind: ChangeCleared, UserID: userID})
	}
}

// UserID returns the user whose library is loaded, or "".
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Add puts candidate on the shelf. The candidate's own id is kept when set,
// otherwise a timestamp token is generated. addedAt is stamped now and empty
// personal fields take their defaults. With nobody signed in Add does nothing
// and returns (nil, nil).
func (s *Store) Add(ctx context.Context, candidate domain.Book) (*domain.Book, error) {
	s.mu.Lock()

	if s.userID == "" {
		s.mu.Unlock()
		s.logger.Debug("add ignored, no user signed in")
		return nil, nil
	}

	b := candidate.Clone()
	b.ID = strings.TrimSpace(b.ID)
	if b.ID == "" {
		b.ID = id.Timestamp(s.now(), func(t string) bool { return s.indexOf(t) >= 0 })
	} else if s.indexOf(b.ID) >= 0 {
		s.mu.Unlock()
		return nil, errors.AlreadyExistsf("book %s is already in the library", b.ID)
	}

	b.AddedAt = s.now().UTC()
	b.ApplyDefaults()
	if err := b.Validate(); err != nil {
		s.mu.Unlock()
		return nil, errors.Validation(err.Error())
	}

	next := make([]domain.Book, len(s.books), len(s.books)+1)
	copy(next, s.books)
	next = append(next, b)

	userID := s.userID
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.indexMu.Lock()
	s.mu.Unlock()

	s.index(b)
	s.indexMu.Unlock()
	s.logger.Info("book added", "user_id", userID, "book_id", b.ID, "title", b.Title)
	s.subs.notify(Change{Kind: ChangeAdded, UserID: userID, BookID: b.ID})

	out := b.Clone()
	return &out, nil
}

// Update merges patch onto the book with the given id. An unknown id, or no
// signed-in user, returns (nil, nil) and writes nothing.
func (s *Store) Update(ctx context.Context, bookID string, patch domain.BookPatch) (*domain.Book, error) {
	s.mu.Lock()

	idx := s.indexOf(bookID)
	if s.userID == "" || idx < 0 {
		s.mu.Unlock()
		return nil, nil
	}

	updated := patch.Apply(s.books[idx].Clone())
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return nil, errors.Validation(err.Error())
	}

	next := slices.Clone(s.books)
	next[idx] = updated

	userID := s.userID
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.indexMu.Lock()
	s.mu.Unlock()

	s.index(updated)
	s.indexMu.Unlock()
	s.logger.Debug("book updated", "user_id", userID, "book_id", bookID)
	s.subs.notify(Change{Kind: ChangeUpdated, UserID: userID, BookID: bookID})

	out := updated.Clone()
	return &out, nil
}

// Delete removes the book with the given id. It reports whether anything was
// removed; an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, bookID string) (bool, error) {
	s.mu.Lock()

	idx := s.indexOf(bookID)
	if s.userID == "" || idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	next := slices.Delete(slices.Clone(s.books), idx, idx+1)

	userID := s.userID
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.indexMu.Lock()
	s.mu.Unlock()

	if s.indexer != nil {
		if err := s.indexer.Remove(bookID); err != nil {
			s.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
		}
	}
	s.indexMu.Unlock()
	s.logger.Info("book deleted", "user_id", userID, "book_id", bookID)
	s.subs.notify(Change{Kind: ChangeDeleted, UserID: userID, BookID: bookID})
	return true, nil
}

// commit persists next as the whole library and swaps it in. Caller holds mu.
// On failure working memory is left as it was.
func (s *Store) commit(ctx context.Context, next []domain.Book) error {
	if err := store.SetJSON(ctx, s.kv, Key(s.userID), next); err != nil {
		s.logger.Error("failed to persist library", "user_id", s.userID, "error", err)
		return errors.Wrapf(err, errors.CodeInternal, "persist library for %s", s.userID)
	}
	s.books = next
	return nil
}

// indexOf returns the position of bookID or -1. Caller holds mu.
func (s *Store) indexOf(bookID string) int {
	return slices.IndexFunc(s.books, func(b domain.Book) bool { return b.ID == bookID })
}

// index adds or replaces b in the search index. Caller holds indexMu.
func (s *Store) index(b domain.Book) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(b.Clone()); err != nil {
		s.logger.Warn("failed to index book", "book_id", b.ID, "error", err)
	}
}

func cloneAll(books []domain.Book) []domain.Book {
	out := make([]domain.Book, len(books))
	for i := range books {
		out[i] = books[i].Clone()
	}
	return out
}
