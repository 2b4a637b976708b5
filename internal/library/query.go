package library

import (
	"context"
	"strings"

	"github.com/readingnook/readingnook-server/internal/domain"
)

// Books returns a copy of the library in shelf order.
func (s *Store) Books() []domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.books)
}

// Get returns the book with the given id.
func (s *Store) Get(bookID string) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(bookID); i >= 0 {
		return s.books[i].Clone(), true
	}
	return domain.Book{}, false
}

// ListByStatus returns the books with the given status, in shelf order.
func (s *Store) ListByStatus(status domain.Status) []domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Book, 0)
	for i := range s.books {
		if s.books[i].Status == status {
			out = append(out, s.books[i].Clone())
		}
	}
	return out
}

// ListCurrentlyReading is ListByStatus(StatusReading).
func (s *Store) ListCurrentlyReading() []domain.Book {
	return s.ListByStatus(domain.StatusReading)
}

// Stats summarizes the loaded library.
func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ComputeStats(s.books)
}

// Search returns books matching query in shelf order. With a search index the
// query uses its full-text matching; without one it falls back to a
// case-insensitive substring match on title, authors, and notes.
func (s *Store) Search(ctx context.Context, query string) ([]domain.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Books(), nil
	}

	if s.indexer == nil {
		return s.substringSearch(query), nil
	}

	ids, err := s.indexer.Search(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	hit := make(map[string]bool, len(ids))
	for _, id := range ids {
		hit[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Book, 0, len(ids))
	for i := range s.books {
		if hit[s.books[i].ID] {
			out = append(out, s.books[i].Clone())
		}
	}
	return out, nil
}

func (s *Store) substringSearch(query string) []domain.Book {
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Book, 0)
	for i := range s.books {
		b := &s.books[i]
		fields := append([]string{b.Title, b.Notes}, b.Authors...)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, b.Clone())
				break
			}
		}
	}
	return out
}
