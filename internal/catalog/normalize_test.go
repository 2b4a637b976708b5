package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsHTML(t *testing.T) {
	assert.True(t, containsHTML("<p>Hello</p>"))
	assert.True(t, containsHTML("Line one<br/>line two"))
	assert.False(t, containsHTML("Plain text"))
	assert.False(t, containsHTML("x < y and y > z"))
	assert.False(t, containsHTML(""))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Plain text.", describe("  Plain text.  "))
	assert.Equal(t, "**Bold** move", describe("<b>Bold</b> move"))
	assert.Equal(t, "", describe("   "))
}

func TestCleanText_NFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00e9", cleanText(decomposed))
}

func TestToBook_DropsBlankAuthors(t *testing.T) {
	b := toBook(&volume{ID: "v", VolumeInfo: volumeInfo{Title: "T", Authors: []string{" ", ""}}})
	assert.Equal(t, []string{"Unknown Author"}, b.Authors)
}
