package catalog

import (
	"regexp"
	"strings"
)

var (
	isbnSeparators = regexp.MustCompile(`[-\s]`)
	isbn13Pattern  = regexp.MustCompile(`^\d{13}$`)
	isbn10Pattern  = regexp.MustCompile(`^\d{9}[\dXx]$`)
)

// NormalizeISBN strips hyphens and whitespace from term.
func NormalizeISBN(term string) string {
	return isbnSeparators.ReplaceAllString(term, "")
}

// IsISBN reports whether term, once separators are removed, looks like an ISBN-10 or ISBN-13.
// No checksum is verified.
func IsISBN(term string) bool {
	n := NormalizeISBN(term)
	return isbn13Pattern.MatchString(n) || isbn10Pattern.MatchString(n)
}

// BuildQuery turns a user search term into the catalog q parameter.
// ISBN-shaped terms become an isbn: directive; everything else is sent trimmed and otherwise verbatim.
func BuildQuery(term string) string {
	if IsISBN(term) {
		return "isbn:" + NormalizeISBN(term)
	}
	return strings.TrimSpace(term)
}
