package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingnook/readingnook-server/internal/cover"
	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
)

func (s *Server) registerPaletteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBookPalette",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/palette",
		Summary:     "Book spine palette",
		Description: "Returns the dominant cover color, or the status color when the cover can't be sampled",
		Tags:        []string{"Palette"},
	}, s.handleGetBookPalette)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPalettes",
		Method:      http.MethodGet,
		Path:        "/api/v1/palettes",
		Summary:     "Library palettes",
		Description: "Returns a palette for every book in shelf order",
		Tags:        []string{"Palette"},
	}, s.handleListPalettes)
}

// PaletteOutput wraps one palette for Huma.
type PaletteOutput struct {
	Body cover.Palette
}

// PaletteListResponse contains palettes in shelf order.
type PaletteListResponse struct {
	Palettes []cover.Palette `json:"palettes" doc:"One palette per book"`
}

// PaletteListOutput wraps the palette list for Huma.
type PaletteListOutput struct {
	Body PaletteListResponse
}

func (s *Server) handleGetBookPalette(ctx context.Context, input *BookIDInput) (*PaletteOutput, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}
	b, ok := s.state.Library.Get(input.ID)
	if !ok {
		return nil, errors.NotFoundf("book %s not found", input.ID)
	}
	return &PaletteOutput{Body: s.palette(ctx, b)}, nil
}

func (s *Server) handleListPalettes(ctx context.Context, _ *struct{}) (*PaletteListOutput, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}

	books := s.state.Library.Books()
	var palettes []cover.Palette
	if s.state.Covers != nil {
		palettes = s.state.Covers.Palettes(ctx, books)
	} else {
		palettes = make([]cover.Palette, len(books))
		for i, b := range books {
			palettes[i] = s.palette(ctx, b)
		}
	}
	return &PaletteListOutput{Body: PaletteListResponse{Palettes: palettes}}, nil
}

// palette falls back to status colors when cover sampling is disabled.
func (s *Server) palette(ctx context.Context, b domain.Book) cover.Palette {
	if s.state.Covers != nil {
		return s.state.Covers.Palette(ctx, b)
	}
	return cover.Palette{
		BookID: b.ID,
		Color:  cover.SpineColor(b.Status),
		Source: cover.SourceStatus,
	}
}
