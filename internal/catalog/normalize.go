package catalog

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/readingnook/readingnook-server/internal/domain"
)

// toBook maps a catalog volume onto a candidate record. Personal fields
// (status, format, rating, notes, addedAt) are left empty.
func toBook(v *volume) domain.Book {
	info := &v.VolumeInfo

	b := domain.Book{
		ID:            v.ID,
		Title:         cleanText(info.Title),
		Authors:       cleanList(info.Authors),
		Thumbnail:     PickThumbnail(info.ImageLinks),
		Description:   describe(info.Description),
		PublishedDate: info.PublishedDate,
		PageCount:     info.PageCount,
		Categories:    cleanList(info.Categories),
		AverageRating: info.AverageRating,
	}

	if b.Title == "" {
		b.Title = domain.UnknownTitle
	}
	if len(b.Authors) == 0 {
		b.Authors = []string{domain.UnknownAuthor}
	}
	if b.Description == "" {
		b.Description = domain.NoDescription
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	if len(info.IndustryIdentifiers) > 0 {
		b.ISBN = info.IndustryIdentifiers[0].Identifier
	}

	return b
}

// cleanText trims and NFC-normalizes s so composed and decomposed accents compare equal.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func cleanList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = cleanText(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// describe converts HTML descriptions to Markdown and leaves plain text alone.
func describe(s string) string {
	s = cleanText(s)
	if s == "" || !containsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// containsHTML reports whether s contains at least one HTML element tag.
// A bare "<" in prose (e.g. "x < y") is not markup.
func containsHTML(s string) bool {
	if !strings.Contains(s, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			return true
		}
	}
}
