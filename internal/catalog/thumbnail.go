package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	zoomPattern      = regexp.MustCompile(`[?&]zoom=(\d+)`)
	zoomValuePattern = regexp.MustCompile(`([?&]zoom=)\d+`)
)

// sharpZoom is requested when the best link only offers a low zoom.
const sharpZoom = 2

// ImageLinks are the cover variants the catalog may return for a volume.
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	Small          string `json:"small,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Large          string `json:"large,omitempty"`
	ExtraLarge     string `json:"extraLarge,omitempty"`
}

type thumbCandidate struct {
	url  string
	zoom int
	rank int
}

// PickThumbnail chooses the sharpest cover URL. Links are ordered by their zoom
// query value, highest first, with ties going to the nominally larger variant.
// A winning zoom of 1 or 2 is rewritten to 2, and http is upgraded to https.
// No links yields "".
func PickThumbnail(links *ImageLinks) string {
	if links == nil {
		return ""
	}

	// Nominal size preference, largest first.
	ordered := []string{
		links.ExtraLarge,
		links.Large,
		links.Medium,
		links.Thumbnail,
		links.Small,
		links.SmallThumbnail,
	}

	candidates := make([]thumbCandidate, 0, len(ordered))
	for i, u := range ordered {
		if u == "" {
			continue
		}
		candidates = append(candidates, thumbCandidate{url: u, zoom: extractZoom(u), rank: len(ordered) - i})
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].zoom != candidates[j].zoom {
			return candidates[i].zoom > candidates[j].zoom
		}
		return candidates[i].rank > candidates[j].rank
	})

	best := candidates[0]
	u := best.url
	if best.zoom > 0 && best.zoom < 3 {
		u = setZoom(u, sharpZoom)
	}
	return ensureHTTPS(u)
}

// extractZoom returns the integer zoom query value, or 0 when absent.
func extractZoom(u string) int {
	m := zoomPattern.FindStringSubmatch(u)
	if m == nil {
		return 0
	}
	z, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return z
}

// setZoom rewrites the zoom query value, appending it when missing.
func setZoom(u string, zoom int) string {
	z := strconv.Itoa(zoom)
	if loc := zoomValuePattern.FindStringSubmatchIndex(u); loc != nil {
		// loc[3] is the end of the "?zoom=" / "&zoom=" group.
		return u[:loc[3]] + z + u[loc[1]:]
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "zoom=" + z
}

func ensureHTTPS(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}
