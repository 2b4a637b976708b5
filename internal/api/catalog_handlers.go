package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingnook/readingnook-server/internal/catalog"
	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/search",
		Summary:     "Search the catalog",
		Description: "Searches the public book catalog. ISBN-10/13 terms become exact ISBN lookups. Catalog failures yield an empty list.",
		Tags:        []string{"Catalog"},
	}, s.handleSearchCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCatalogVolume",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/volumes/{id}",
		Summary:     "Get a catalog volume",
		Description: "Fetches one volume by catalog id",
		Tags:        []string{"Catalog"},
	}, s.handleGetCatalogVolume)
}

// === DTOs ===

// SearchCatalogInput contains parameters for a catalog search.
type SearchCatalogInput struct {
	Q          string `query:"q" doc:"Free text or ISBN"`
	MaxResults int    `query:"maxResults" doc:"Result cap; 0 uses the server default, values above 40 are clamped"`
}

// CatalogSearchResponse contains catalog results.
type CatalogSearchResponse struct {
	Query string        `json:"query" doc:"Query sent to the catalog"`
	ISBN  bool          `json:"isbn" doc:"Whether the term was treated as an ISBN"`
	Books []domain.Book `json:"books" doc:"Candidate books"`
}

// CatalogSearchOutput wraps the search response for Huma.
type CatalogSearchOutput struct {
	Body CatalogSearchResponse
}

// GetCatalogVolumeInput identifies a volume.
type GetCatalogVolumeInput struct {
	ID string `path:"id" doc:"Catalog volume id"`
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body domain.Book
}

// === Handlers ===

func (s *Server) handleSearchCatalog(ctx context.Context, input *SearchCatalogInput) (*CatalogSearchOutput, error) {
	term := strings.TrimSpace(input.Q)
	books := s.state.Catalog.Search(ctx, term, input.MaxResults)

	return &CatalogSearchOutput{
		Body: CatalogSearchResponse{
			Query: catalog.BuildQuery(term),
			ISBN:  catalog.IsISBN(term),
			Books: books,
		},
	}, nil
}

func (s *Server) handleGetCatalogVolume(ctx context.Context, input *GetCatalogVolumeInput) (*BookOutput, error) {
	b := s.state.Catalog.GetByID(ctx, input.ID)
	if b == nil {
		return nil, errors.NotFoundf("volume %s not found", input.ID)
	}
	return &BookOutput{Body: *b}, nil
}
