package cover

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/readingnook/readingnook-server/internal/color"
	"github.com/readingnook/readingnook-server/internal/domain"
)

// Where a palette's color came from.
const (
	SourceCover  = "cover"
	SourceStatus = "status"
)

// maxConcurrentFetches bounds cover downloads during a batch.
const maxConcurrentFetches = 4

// Palette is the spine rendering for one book.
type Palette struct {
	BookID   string `json:"bookId"`
	Color    string `json:"color"`
	Source   string `json:"source"`
	BlurHash string `json:"blurHash,omitempty"`
}

// Palette returns the cover color for book, or its status color when the
// cover is missing or unusable.
func (e *Extractor) Palette(ctx context.Context, book domain.Book) Palette {
	s := e.sample(ctx, book.Thumbnail)
	if !s.ok {
		return Palette{
			BookID: book.ID,
			Color:  SpineColor(book.Status),
			Source: SourceStatus,
		}
	}
	return Palette{
		BookID:   book.ID,
		Color:    s.color,
		Source:   SourceCover,
		BlurHash: s.blurHash,
	}
}

// Palettes computes a palette for each book, in order.
func (e *Extractor) Palettes(ctx context.Context, books []domain.Book) []Palette {
	out := make([]Palette, len(books))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, b := range books {
		g.Go(func() error {
			out[i] = e.Palette(gctx, b)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// SpineColor is the fallback color for a book with the given status.
func SpineColor(status domain.Status) string {
	return color.ForStatus(status)
}
