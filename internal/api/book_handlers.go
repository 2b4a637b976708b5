package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the signed-in user's library in shelf order, optionally filtered by status and a search query",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCurrentlyReading",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/reading",
		Summary:     "Currently reading",
		Description: "Returns the books with status reading",
		Tags:        []string{"Books"},
	}, s.handleListCurrentlyReading)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Adds a book to the library. A catalog result can be posted as is.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book from the library by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates status, format, rating or notes",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Delete book",
		Description:   "Removes a book. Deleting an unknown id succeeds.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Library statistics",
		Description: "Returns counts per status and format, and the average rating",
		Tags:        []string{"Books"},
	}, s.handleGetStats)
}

// === DTOs ===

// ListBooksInput contains list filters.
type ListBooksInput struct {
	Status string `query:"status" doc:"want-to-read, reading or read"`
	Q      string `query:"q" doc:"Full-text query over title, authors, notes and categories"`
}

// BookListResponse contains a list of books.
type BookListResponse struct {
	Books []domain.Book `json:"books" doc:"Books in shelf order"`
	Total int           `json:"total" doc:"Number of books returned"`
}

// BookListOutput wraps the list response for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// AddBookRequest is the body for adding a book. Every field is optional.
type AddBookRequest struct {
	_             struct{}   `additionalProperties:"true"`
	ID            string     `json:"id,omitempty" validate:"omitempty,max=256" doc:"Catalog id; generated when empty"`
	Title         string     `json:"title,omitempty" validate:"omitempty,max=1024" doc:"Title"`
	Authors       []string   `json:"authors,omitempty" doc:"Authors"`
	Thumbnail     string     `json:"thumbnail,omitempty" doc:"Cover URL"`
	Description   string     `json:"description,omitempty" doc:"Description"`
	PublishedDate string     `json:"publishedDate,omitempty" doc:"Publication date as given by the catalog"`
	PageCount     int        `json:"pageCount,omitempty" validate:"gte=0" doc:"Page count"`
	Categories    []string   `json:"categories,omitempty" doc:"Categories"`
	AverageRating float64    `json:"averageRating,omitempty" validate:"gte=0,lte=5" doc:"Catalog average rating"`
	ISBN          string     `json:"isbn,omitempty" doc:"ISBN"`
	Status        string     `json:"status,omitempty" validate:"omitempty,reading_status" doc:"Reading status, default want-to-read"`
	Format        string     `json:"format,omitempty" validate:"omitempty,book_format" doc:"Format, default physical"`
	Rating        int        `json:"rating,omitempty" validate:"gte=0,lte=5" doc:"Personal rating, 0 for none"`
	Notes         string     `json:"notes,omitempty" doc:"Personal notes"`
	AddedAt       *time.Time `json:"addedAt,omitempty" doc:"Ignored; set by the server"`
}

func (r AddBookRequest) toBook() domain.Book {
	return domain.Book{
		ID:            r.ID,
		Title:         r.Title,
		Authors:       r.Authors,
		Thumbnail:     r.Thumbnail,
		Description:   r.Description,
		PublishedDate: r.PublishedDate,
		PageCount:     r.PageCount,
		Categories:    r.Categories,
		AverageRating: r.AverageRating,
		ISBN:          r.ISBN,
		Status:        domain.Status(r.Status),
		Format:        domain.Format(r.Format),
		Rating:        r.Rating,
		Notes:         r.Notes,
	}
}

// AddBookInput wraps the add request for Huma.
type AddBookInput struct {
	Body AddBookRequest
}

// BookIDInput identifies a book in the library.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookRequest is a partial update. Omitted fields are left alone.
type UpdateBookRequest struct {
	Status *string `json:"status,omitempty" validate:"omitempty,reading_status" doc:"Reading status"`
	Format *string `json:"format,omitempty" validate:"omitempty,book_format" doc:"Format"`
	Rating *int    `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5" doc:"Personal rating, 0 clears it"`
	Notes  *string `json:"notes,omitempty" doc:"Personal notes"`
}

func (r UpdateBookRequest) toPatch() domain.BookPatch {
	var p domain.BookPatch
	if r.Status != nil {
		st := domain.Status(*r.Status)
		p.Status = &st
	}
	if r.Format != nil {
		f := domain.Format(*r.Format)
		p.Format = &f
	}
	p.Rating = r.Rating
	p.Notes = r.Notes
	return p
}

// UpdateBookInput wraps the update request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

// StatsOutput wraps library statistics for Huma.
type StatsOutput struct {
	Body domain.Stats
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}

	status := domain.Status(input.Status)
	if status != "" && !status.Valid() {
		return nil, errors.Validationf("unknown status %q", input.Status)
	}

	var books []domain.Book
	switch {
	case input.Q != "":
		found, err := s.state.Library.Search(ctx, input.Q)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "search library")
		}
		books = found
		if status != "" {
			books = filterStatus(books, status)
		}
	case status != "":
		books = s.state.Library.ListByStatus(status)
	default:
		books = s.state.Library.Books()
	}

	return &BookListOutput{Body: BookListResponse{Books: books, Total: len(books)}}, nil
}

func (s *Server) handleListCurrentlyReading(ctx context.Context, _ *struct{}) (*BookListOutput, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}
	books := s.state.Library.ListCurrentlyReading()
	return &BookListOutput{Body: BookListResponse{Books: books, Total: len(books)}}, nil
}

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookOutput, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	b, err := s.state.Library.Add(ctx, input.Body.toBook())
	if err != nil {
		return nil, err
	}
	if b == nil {
		// Signed out between the check and the write.
		return nil, errors.Unauthorized("not signed in")
	}
	return &BookOutput{Body: *b}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}
	b, ok := s.state.Library.Get(input.ID)
	if !ok {
		return nil, errors.NotFoundf("book %s not found", input.ID)
	}
	return &BookOutput{Body: b}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	b, err := s.state.Library.Update(ctx, input.ID, input.Body.toPatch())
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.NotFoundf("book %s not found", input.ID)
	}
	return &BookOutput{Body: *b}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}
	if _, err := s.state.Library.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	if _, err := s.state.RequireUser(ctx); err != nil {
		return nil, err
	}
	return &StatsOutput{Body: s.state.Library.Stats()}, nil
}

func filterStatus(books []domain.Book, status domain.Status) []domain.Book {
	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}
