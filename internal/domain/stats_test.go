package domain

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)

	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, "0.0", stats.AvgRating)
	assert.Equal(t, FormatCounts{}, stats.FormatCounts)
}

func TestComputeStats(t *testing.T) {
	books := []Book{
		{ID: "1", Status: StatusRead, Format: FormatPhysical, Rating: 4},
		{ID: "2", Status: StatusRead, Format: FormatEbook, Rating: 5},
		{ID: "3", Status: StatusReading, Format: FormatAudiobook},
		{ID: "4", Status: StatusWantToRead, Format: FormatPhysical},
	}

	stats := ComputeStats(books)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Read)
	assert.Equal(t, 1, stats.Reading)
	assert.Equal(t, 1, stats.WantToRead)
	assert.Equal(t, "4.5", stats.AvgRating, "unrated books are excluded")
	assert.Equal(t, FormatCounts{Physical: 2, Ebook: 1, Audiobook: 1}, stats.FormatCounts)
}

func TestComputeStats_AvgRounding(t *testing.T) {
	tests := []struct {
		ratings []int
		want    string
	}{
		{[]int{4, 4, 5, 4}, "4.3"},
		{[]int{1, 2}, "1.5"},
		{[]int{5, 4, 4}, "4.3"},
		{slices.Concat(slices.Repeat([]int{5}, 7), slices.Repeat([]int{4}, 13)), "4.3"},
		{slices.Concat(slices.Repeat([]int{5}, 9), slices.Repeat([]int{4}, 11)), "4.5"},
		{[]int{3}, "3.0"},
		{[]int{0, 0}, "0.0"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.ratings), func(t *testing.T) {
			books := make([]Book, len(tt.ratings))
			for i, r := range tt.ratings {
				books[i] = Book{Status: StatusRead, Format: FormatPhysical, Rating: r}
			}
			assert.Equal(t, tt.want, ComputeStats(books).AvgRating)
		})
	}
}
