package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickThumbnail(t *testing.T) {
	tests := []struct {
		name  string
		links *ImageLinks
		want  string
	}{
		{
			name:  "nil links",
			links: nil,
			want:  "",
		},
		{
			name:  "no variants",
			links: &ImageLinks{},
			want:  "",
		},
		{
			name: "zoom dominates size rank",
			links: &ImageLinks{
				Thumbnail: "https://books.google.com/c?id=1&zoom=1",
				Small:     "https://books.google.com/c?id=1&zoom=5",
			},
			want: "https://books.google.com/c?id=1&zoom=5",
		},
		{
			name: "tie broken by size rank",
			links: &ImageLinks{
				SmallThumbnail: "https://x.test/a?zoom=3",
				Large:          "https://x.test/b?zoom=3",
				Medium:         "https://x.test/c?zoom=3",
			},
			want: "https://x.test/b?zoom=3",
		},
		{
			name: "low zoom bumped to 2",
			links: &ImageLinks{
				Thumbnail: "https://x.test/c?id=1&zoom=1&source=gbs_api",
			},
			want: "https://x.test/c?id=1&zoom=2&source=gbs_api",
		},
		{
			name: "zoom 2 stays 2",
			links: &ImageLinks{
				Thumbnail: "https://x.test/c?zoom=2",
			},
			want: "https://x.test/c?zoom=2",
		},
		{
			name: "no zoom left alone",
			links: &ImageLinks{
				ExtraLarge: "https://x.test/xl.jpg",
				Thumbnail:  "https://x.test/t.jpg",
			},
			want: "https://x.test/xl.jpg",
		},
		{
			name: "zoom beats no zoom",
			links: &ImageLinks{
				ExtraLarge: "https://x.test/xl.jpg",
				Thumbnail:  "https://x.test/t.jpg?zoom=1",
			},
			want: "https://x.test/t.jpg?zoom=2",
		},
		{
			name: "http upgraded",
			links: &ImageLinks{
				Thumbnail: "http://books.google.com/c?id=1&zoom=5",
			},
			want: "https://books.google.com/c?id=1&zoom=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickThumbnail(tt.links))
		})
	}
}

func TestPickThumbnail_Deterministic(t *testing.T) {
	links := &ImageLinks{
		SmallThumbnail: "http://x.test/a?zoom=1",
		Thumbnail:      "http://x.test/b?zoom=1",
		Small:          "http://x.test/c?zoom=1",
	}

	first := PickThumbnail(links)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, PickThumbnail(links))
	}
	assert.Equal(t, "https://x.test/b?zoom=2", first)
}

func TestExtractZoom(t *testing.T) {
	assert.Equal(t, 0, extractZoom("https://x.test/a"))
	assert.Equal(t, 1, extractZoom("https://x.test/a?zoom=1"))
	assert.Equal(t, 5, extractZoom("https://x.test/a?id=2&zoom=5&edge=curl"))
	assert.Equal(t, 0, extractZoom("https://x.test/a?maxzoom=4"))
}

func TestSetZoom(t *testing.T) {
	assert.Equal(t, "https://x.test/a?zoom=2", setZoom("https://x.test/a?zoom=1", 2))
	assert.Equal(t, "https://x.test/a?id=1&zoom=2", setZoom("https://x.test/a?id=1", 2))
	assert.Equal(t, "https://x.test/a?zoom=2", setZoom("https://x.test/a", 2))
	assert.Equal(t, "https://x.test/a?zoom=2&zoom=1", setZoom("https://x.test/a?zoom=1&zoom=1", 2), "only the first occurrence is rewritten")
}

func TestEnsureHTTPS(t *testing.T) {
	assert.Equal(t, "https://a.test", ensureHTTPS("http://a.test"))
	assert.Equal(t, "https://a.test", ensureHTTPS("https://a.test"))
	assert.Equal(t, "", ensureHTTPS(""))
}
