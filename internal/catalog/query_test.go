package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name string
		term string
		want string
	}{
		{"isbn13", "9781547603909", "isbn:9781547603909"},
		{"isbn13 with hyphens", "978-1-5476-0390-9", "isbn:9781547603909"},
		{"isbn13 with spaces", " 978 1547 603909 ", "isbn:9781547603909"},
		{"isbn10", "055380457X", "isbn:055380457X"},
		{"isbn10 lowercase x", "0-553-80457-x", "isbn:055380457x"},
		{"isbn10 digits", "0123456789", "isbn:0123456789"},
		{"twelve digits", "978154760390", "978154760390"},
		{"x in wrong place", "X553804570", "X553804570"},
		{"free text trimmed", "  the hobbit  ", "the hobbit"},
		{"free text keeps hyphens", "spider-man", "spider-man"},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.term))
		})
	}
}

func TestIsISBN(t *testing.T) {
	assert.True(t, IsISBN("978-0-553-80457-7"))
	assert.True(t, IsISBN("055380457X"))
	assert.False(t, IsISBN("isbn:9780553804577"))
	assert.False(t, IsISBN("12345"))
}
