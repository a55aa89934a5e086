// Package layers manages the composition: which inputs exist, what they
// show and how they are placed. Specs persist in a TOML file; the service
// keeps the running mixer in sync with them.
package layers

import (
	"fmt"
	"time"

	"github.com/smazurov/mixnode/internal/sources"
	"github.com/smazurov/mixnode/internal/video"
)

// LayerSpec is the persistent definition of one composition layer.
type LayerSpec struct {
	// ID is the unique identifier for this layer.
	ID string `toml:"id" json:"id"`

	// Name is a human-readable name, defaults to the ID.
	Name string `toml:"name" json:"name"`

	// Pattern selects the generated content: bars, solid, snow,
	// moving-box or checker.
	Pattern string `toml:"pattern" json:"pattern"`

	// Format is the produced pixel format name, e.g. "I420" or "BGRA".
	Format string `toml:"format" json:"format"`

	// Geometry and rate of the produced stream.
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`
	FPS    int `toml:"fps" json:"fps"`

	// Placement on the output canvas.
	XPos   int     `toml:"xpos" json:"xpos"`
	YPos   int     `toml:"ypos" json:"ypos"`
	ZOrder int     `toml:"zorder" json:"zorder"`
	Alpha  float64 `toml:"alpha" json:"alpha"`

	// Solid fill color as Y, U, V for the solid pattern.
	SolidY int `toml:"solid_y,omitempty" json:"solid_y,omitempty"`
	SolidU int `toml:"solid_u,omitempty" json:"solid_u,omitempty"`
	SolidV int `toml:"solid_v,omitempty" json:"solid_v,omitempty"`

	// Enabled layers feed the mixer; disabled ones are kept but inert.
	Enabled bool `toml:"enabled" json:"enabled"`

	CreatedAt time.Time `toml:"created_at" json:"created_at"`
	UpdatedAt time.Time `toml:"updated_at" json:"updated_at"`
}

// Validate checks the spec and returns the derived source configuration.
func (l LayerSpec) Validate() (sources.Config, error) {
	if l.ID == "" {
		return sources.Config{}, fmt.Errorf("layer ID cannot be empty")
	}
	pattern, err := sources.ParsePattern(l.Pattern)
	if err != nil {
		return sources.Config{}, fmt.Errorf("layer %s: %w", l.ID, err)
	}
	format, ok := video.ParseFormat(l.Format)
	if !ok {
		return sources.Config{}, fmt.Errorf("layer %s: unknown format %q", l.ID, l.Format)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return sources.Config{}, fmt.Errorf("layer %s: invalid geometry %dx%d", l.ID, l.Width, l.Height)
	}
	fps := l.FPS
	if fps <= 0 {
		fps = 30
	}
	if l.Alpha < 0 || l.Alpha > 1 {
		return sources.Config{}, fmt.Errorf("layer %s: alpha %.2f out of range", l.ID, l.Alpha)
	}

	return sources.Config{
		Pattern: pattern,
		Info:    video.NewInfo(format, l.Width, l.Height, video.Fraction{Num: fps, Den: 1}),
		Solid:   [3]byte{byte(l.SolidY), byte(l.SolidU), byte(l.SolidV)},
	}, nil
}

// sourceEquals reports whether two specs produce the same stream, meaning a
// running source can be kept across the update.
func (l LayerSpec) sourceEquals(o LayerSpec) bool {
	return l.Pattern == o.Pattern && l.Format == o.Format &&
		l.Width == o.Width && l.Height == o.Height && l.FPS == o.FPS &&
		l.SolidY == o.SolidY && l.SolidU == o.SolidU && l.SolidV == o.SolidV &&
		l.Enabled == o.Enabled
}
