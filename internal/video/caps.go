package video

import (
	"math"
	"strings"
)

// Caps is a capability set: the formats a peer accepts plus the ranges of
// geometry and framerate it supports. It is the negotiation currency between
// the mixer and its downstream consumer.
type Caps struct {
	Formats   []Format
	MinWidth  int
	MaxWidth  int
	MinHeight int
	MaxHeight int
	MinFPS    Fraction
	MaxFPS    Fraction
}

// AnyCaps accepts every known format at any geometry and framerate.
func AnyCaps() Caps {
	return Caps{
		Formats:   append([]Format(nil), AllFormats...),
		MinWidth:  1,
		MaxWidth:  math.MaxInt32,
		MinHeight: 1,
		MaxHeight: math.MaxInt32,
		MinFPS:    Fraction{0, 1},
		MaxFPS:    Fraction{math.MaxInt32, 1},
	}
}

// FormatCaps accepts only the given formats, at any geometry and framerate.
func FormatCaps(formats ...Format) Caps {
	c := AnyCaps()
	c.Formats = formats
	return c
}

// Empty reports whether no stream can satisfy the capability set.
func (c Caps) Empty() bool {
	return len(c.Formats) == 0 ||
		c.MinWidth > c.MaxWidth || c.MinHeight > c.MaxHeight ||
		c.MinFPS.Float() > c.MaxFPS.Float()
}

// AcceptsFormat reports whether f is in the capability set.
func (c Caps) AcceptsFormat(f Format) bool {
	for _, cf := range c.Formats {
		if cf == f {
			return true
		}
	}
	return false
}

// Intersect returns the capability set acceptable to both peers. Format
// preference order of the receiver is preserved.
func (c Caps) Intersect(o Caps) Caps {
	out := Caps{
		MinWidth:  max(c.MinWidth, o.MinWidth),
		MaxWidth:  min(c.MaxWidth, o.MaxWidth),
		MinHeight: max(c.MinHeight, o.MinHeight),
		MaxHeight: min(c.MaxHeight, o.MaxHeight),
		MinFPS:    c.MinFPS,
		MaxFPS:    c.MaxFPS,
	}
	if o.MinFPS.Float() > out.MinFPS.Float() {
		out.MinFPS = o.MinFPS
	}
	if o.MaxFPS.Float() < out.MaxFPS.Float() {
		out.MaxFPS = o.MaxFPS
	}
	for _, f := range c.Formats {
		if o.AcceptsFormat(f) {
			out.Formats = append(out.Formats, f)
		}
	}
	return out
}

// FixateNearest clamps the preferred width/height/framerate into the
// capability ranges, letting the peer nudge the final values.
func (c Caps) FixateNearest(width, height int, fps Fraction) (int, int, Fraction) {
	width = min(max(width, c.MinWidth), c.MaxWidth)
	height = min(max(height, c.MinHeight), c.MaxHeight)
	if fps.Float() < c.MinFPS.Float() {
		fps = c.MinFPS
	} else if fps.Float() > c.MaxFPS.Float() {
		fps = c.MaxFPS
	}
	return width, height, fps
}

// FixateFormat picks the set's preferred format: the first entry.
func (c Caps) FixateFormat() Format {
	if len(c.Formats) == 0 {
		return FormatUnknown
	}
	return c.Formats[0]
}

func (c Caps) String() string {
	names := make([]string, len(c.Formats))
	for i, f := range c.Formats {
		names[i] = f.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}
