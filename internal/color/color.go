// Package color holds the shelf's color rules: the spine palette used when a
// cover can't be sampled, and deterministic avatar colors for users.
package color

import (
	"fmt"

	"github.com/readingnook/readingnook-server/internal/domain"
)

// Spine colors keyed by reading status.
const (
	SpineReading    = "#7CB342"
	SpineRead       = "#8B5A3C"
	SpineWantToRead = "#D4A574"
)

// ForStatus returns the spine color for a book with the given status.
// Unknown statuses get the want-to-read color.
func ForStatus(status domain.Status) string {
	switch status {
	case domain.StatusReading:
		return SpineReading
	case domain.StatusRead:
		return SpineRead
	default:
		return SpineWantToRead
	}
}

// Hex formats an RGB triple as #RRGGBB.
func Hex(r, g, b uint8) string {
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}
