package sketch

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/chazu/facet/pkg/expr"
)

// Settings controls how a Document regenerates.
type Settings struct {
	// ChordSegments is the number of chords used for a full circle.
	ChordSegments int `json:"chord_segments"`
	// CheckWatertight runs naked-edge and self-intersection checks on the
	// running mesh of every solid group.
	CheckWatertight bool `json:"check_watertight"`
	// FaceEdges collects the edges between different faces of each
	// solid group's running mesh.
	FaceEdges bool `json:"face_edges"`
	// SolidColor is the hex color of the first solid; later groups rotate
	// its hue.
	SolidColor  string        `json:"solid_color"`
	ExprTimeout time.Duration `json:"expr_timeout"`
}

// DefaultSettings returns the settings used by NewDocument.
func DefaultSettings() Settings {
	return Settings{
		ChordSegments:   32,
		CheckWatertight: true,
		FaceEdges:       true,
		SolidColor:      "#4a90d9",
		ExprTimeout:     expr.DefaultTimeout,
	}
}

// LoadSettings decodes JSON settings on top of DefaultSettings.
func LoadSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("sketch: decoding settings: %w", err)
	}
	if s.ChordSegments < 3 {
		return Settings{}, fmt.Errorf("sketch: chord_segments must be at least 3, got %d", s.ChordSegments)
	}
	if _, err := colorful.Hex(s.SolidColor); err != nil {
		return Settings{}, fmt.Errorf("sketch: solid_color: %w", err)
	}
	return s, nil
}

// chords returns the chord count for an arc spanning angle radians.
func (s Settings) chords(angle float64) int {
	n := s.ChordSegments
	if n < 3 {
		n = 3
	}
	k := int(math.Ceil(float64(n) * math.Abs(angle) / (2 * math.Pi)))
	if k < 1 {
		k = 1
	}
	return k
}

// palette returns the color of the i-th solid.
func (s Settings) palette(i int) colorful.Color {
	base, err := colorful.Hex(s.SolidColor)
	if err != nil {
		base = colorful.Color{R: 0.6, G: 0.6, B: 0.6}
	}
	h, sat, v := base.Hsv()
	return colorful.Hsv(math.Mod(h+40*float64(i), 360), sat, v)
}
