package search

import (
	"strings"

	"github.com/readingnook/readingnook-server/internal/domain"
)

// document is the indexed projection of a book.
type document struct {
	Title       string
	Authors     string
	Notes       string
	Description string
	Categories  string
	Status      string
	Format      string
	ISBN        string
}

func newDocument(b domain.Book) document {
	desc := b.Description
	if desc == domain.NoDescription {
		desc = ""
	}
	return document{
		Title:       b.Title,
		Authors:     strings.Join(b.Authors, " "),
		Notes:       b.Notes,
		Description: desc,
		Categories:  strings.Join(b.Categories, " "),
		Status:      string(b.Status),
		Format:      string(b.Format),
		ISBN:        b.ISBN,
	}
}

// toMap keys fields by the lowercase names the mapping uses.
func (d document) toMap() map[string]any {
	return map[string]any{
		"title":       d.Title,
		"authors":     d.Authors,
		"notes":       d.Notes,
		"description": d.Description,
		"categories":  d.Categories,
		"status":      d.Status,
		"format":      d.Format,
		"isbn":        d.ISBN,
	}
}
