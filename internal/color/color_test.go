package color

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/readingnook/readingnook-server/internal/domain"
)

var hexPattern = regexp.MustCompile(`^#[0-9A-F]{6}$`)

func TestForStatus(t *testing.T) {
	assert.Equal(t, "#7CB342", ForStatus(domain.StatusReading))
	assert.Equal(t, "#8B5A3C", ForStatus(domain.StatusRead))
	assert.Equal(t, "#D4A574", ForStatus(domain.StatusWantToRead))
	assert.Equal(t, "#D4A574", ForStatus(""))
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#000000", Hex(0, 0, 0))
	assert.Equal(t, "#FF0A7C", Hex(255, 10, 124))
}

func TestForUser(t *testing.T) {
	a := ForUser("0190f5d2-7c1e-7b3a-9f00-000000000001")
	assert.Regexp(t, hexPattern, a)
	assert.Equal(t, a, ForUser("0190f5d2-7c1e-7b3a-9f00-000000000001"), "deterministic")
	assert.NotEqual(t, a, ForUser("someone-else"))
}

func TestHSLToRGB(t *testing.T) {
	r, g, b := hslToRGB(0, 0, 0.5)
	assert.Equal(t, [3]uint8{127, 127, 127}, [3]uint8{r, g, b})

	r, g, b = hslToRGB(0, 1, 0.5)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})
}
