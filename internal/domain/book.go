// Package domain contains the core entities of the reading tracker: books on a personal shelf, the signed-in user, and shelf statistics.
package domain

import (
	"fmt"
	"time"
)

// Placeholders used when the catalog omits a field.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
	NoDescription = "No description available"
)

// MaxRating is the highest personal rating; 0 means unrated.
const MaxRating = 5

// Status is the reading state of a book on the shelf.
type Status string

const (
	StatusWantToRead Status = "want-to-read"
	StatusReading    Status = "reading"
	StatusRead       Status = "read"
)

// Statuses lists every status in shelf order.
var Statuses = []Status{StatusWantToRead, StatusReading, StatusRead}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusRead:
		return true
	}
	return false
}

// Format is the physical medium of a book.
type Format string

const (
	FormatPhysical  Format = "physical"
	FormatEbook     Format = "ebook"
	FormatAudiobook Format = "audiobook"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatPhysical, FormatEbook, FormatAudiobook:
		return true
	}
	return false
}

// Book is a single entry in a user's library. Catalog results use the same
// shape with the personal fields left empty.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Authors       []string  `json:"authors"`
	Thumbnail     string    `json:"thumbnail"`
	Description   string    `json:"description"`
	PublishedDate string    `json:"publishedDate"`
	PageCount     int       `json:"pageCount"`
	Categories    []string  `json:"categories"`
	AverageRating float64   `json:"averageRating"`
	ISBN          string    `json:"isbn"`
	Status        Status    `json:"status,omitempty"`
	Format        Format    `json:"format,omitempty"`
	Rating        int       `json:"rating"`
	Notes         string    `json:"notes"`
	AddedAt       time.Time `json:"addedAt,omitzero"`
}

// Clone returns a deep copy so callers can't reach into library state through slices.
func (b Book) Clone() Book {
	b.Authors = append([]string(nil), b.Authors...)
	b.Categories = append([]string(nil), b.Categories...)
	return b
}

// ApplyDefaults fills fields that were left empty.
func (b *Book) ApplyDefaults() {
	if b.Title == "" {
		b.Title = UnknownTitle
	}
	if b.Status == "" {
		b.Status = StatusWantToRead
	}
	if b.Format == "" {
		b.Format = FormatPhysical
	}
	if b.Authors == nil {
		b.Authors = []string{UnknownAuthor}
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
}

// Validate checks the enumerated and bounded fields.
func (b *Book) Validate() error {
	if !b.Status.Valid() {
		return fmt.Errorf("invalid status %q", b.Status)
	}
	if !b.Format.Valid() {
		return fmt.Errorf("invalid format %q", b.Format)
	}
	if b.Rating < 0 || b.Rating > MaxRating {
		return fmt.Errorf("rating %d out of range 0-%d", b.Rating, MaxRating)
	}
	return nil
}

// Normalize repairs the fields Validate would reject: an unknown status or
// format falls back to its default and the rating is clamped to 0-MaxRating.
// It reports whether anything changed.
func (b *Book) Normalize() bool {
	changed := false
	if !b.Status.Valid() {
		b.Status = StatusWantToRead
		changed = true
	}
	if !b.Format.Valid() {
		b.Format = FormatPhysical
		changed = true
	}
	if clamped := max(0, min(b.Rating, MaxRating)); clamped != b.Rating {
		b.Rating = clamped
		changed = true
	}
	return changed
}

// BookPatch is a partial update of the personal fields. Nil fields are left alone.
type BookPatch struct {
	Status *Status `json:"status,omitempty"`
	Format *Format `json:"format,omitempty"`
	Rating *int    `json:"rating,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BookPatch) IsEmpty() bool {
	return p.Status == nil && p.Format == nil && p.Rating == nil && p.Notes == nil
}

// Apply returns a copy of b with the patch merged in.
func (p BookPatch) Apply(b Book) Book {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Format != nil {
		b.Format = *p.Format
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	return b
}
