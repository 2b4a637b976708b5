// Package search keeps an in-memory full-text index over the signed-in
// user's books.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/readingnook/readingnook-server/internal/domain"
)

// Index wraps an in-memory Bleve index. All methods are safe for concurrent use;
// the mutex guards the index swap done by Reset and Rebuild.
type Index struct {
	logger *slog.Logger

	mu    sync.RWMutex
	index bleve.Index
}

// New creates an empty index.
func New(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ix, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: ix, logger: logger}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Index adds or replaces one book.
func (s *Index) Index(book domain.Book) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(book.ID, newDocument(book).toMap())
}

// Remove drops a book. Removing an unknown id is not an error.
func (s *Index) Remove(bookID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(bookID)
}

// Reset empties the index.
func (s *Index) Reset() error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	return old.Close()
}

// Rebuild replaces the index contents with books in a single batch.
func (s *Index) Rebuild(books []domain.Book) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	batch := fresh.NewBatch()
	for _, b := range books {
		if err := batch.Index(b.ID, newDocument(b).toMap()); err != nil {
			_ = fresh.Close()
			return fmt.Errorf("batch index %s: %w", b.ID, err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		_ = fresh.Close()
		return fmt.Errorf("commit batch: %w", err)
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	s.logger.Debug("rebuilt search index", "books", len(books))
	return old.Close()
}

// Count returns the number of indexed books.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Search returns matching book ids by descending relevance. A limit of 0
// returns every match.
func (s *Index) Search(ctx context.Context, q string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		n, err := s.index.DocCount()
		if err != nil {
			return nil, fmt.Errorf("count documents: %w", err)
		}
		limit = int(n)
		if limit == 0 {
			return []string{}, nil
		}
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
