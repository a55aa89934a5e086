package mixer

import (
	"fmt"
	"sync"

	"github.com/smazurov/mixnode/internal/blend"
	"github.com/smazurov/mixnode/internal/video"
)

// Strategy decides how input frames become one output frame. The mixer
// handles timing, negotiation and conversion; the strategy handles geometry
// and pixels.
type Strategy interface {
	// OutputGeometry returns the canvas size the current inputs require.
	// Zero means no input has declared a format yet.
	OutputGeometry(pads []*Pad) (width, height int)
	// Prepare binds format-specific resources after negotiation settles on
	// an output descriptor.
	Prepare(info video.Info) error
	// Composite paints one output frame. Pads arrive in ascending z-order
	// with their converted frames in place; pads without a frame for this
	// window are skipped by the strategy.
	Composite(pads []*Pad, out *video.Frame)
}

// Background selects what the compositor paints under the lowest layer.
type Background int

const (
	BackgroundChecker Background = iota
	BackgroundBlack
	BackgroundWhite
	BackgroundTransparent
)

var backgroundNames = map[Background]string{
	BackgroundChecker:     "checker",
	BackgroundBlack:       "black",
	BackgroundWhite:       "white",
	BackgroundTransparent: "transparent",
}

func (b Background) String() string {
	if n, ok := backgroundNames[b]; ok {
		return n
	}
	return "checker"
}

// ParseBackground maps a config string to a Background.
func ParseBackground(s string) (Background, error) {
	for b, n := range backgroundNames {
		if n == s {
			return b, nil
		}
	}
	return BackgroundChecker, fmt.Errorf("unknown background %q", s)
}

// Compositor is the positioned-layer strategy: each input is placed at its
// x/y offset, painted bottom to top by z-order, mixed by per-layer opacity.
type Compositor struct {
	mu         sync.Mutex
	background Background
	kernels    blend.KernelSet
}

// NewCompositor returns a compositor painting over the given background.
func NewCompositor(bg Background) *Compositor {
	return &Compositor{background: bg}
}

// SetBackground switches the background. Takes effect on the next frame.
func (c *Compositor) SetBackground(bg Background) {
	c.mu.Lock()
	c.background = bg
	c.mu.Unlock()
}

// Background returns the current background policy.
func (c *Compositor) Background() Background {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

// OutputGeometry sizes the canvas so every positioned input fits. Negative
// offsets hang off the canvas edge and do not grow it.
func (c *Compositor) OutputGeometry(pads []*Pad) (int, int) {
	width, height := 0, 0
	for _, p := range pads {
		if !p.info.Known() {
			continue
		}
		props := p.effProps()
		w := p.info.Width + max(0, props.XPos)
		h := p.info.Height + max(0, props.YPos)
		width = max(width, w)
		height = max(height, h)
	}
	return width, height
}

// Prepare resolves the blending kernels for the negotiated output format.
func (c *Compositor) Prepare(info video.Info) error {
	kernels, ok := blend.Kernels(info.Format)
	if !ok {
		return &NegotiationError{
			Reason: ReasonNoKernels,
			Detail: fmt.Sprintf("format %s", info.Format),
		}
	}
	c.mu.Lock()
	c.kernels = kernels
	c.mu.Unlock()
	return nil
}

// Composite fills the background and paints each contributing pad in the
// z-order the caller sorted them into.
func (c *Compositor) Composite(pads []*Pad, out *video.Frame) {
	c.mu.Lock()
	bg := c.background
	kernels := c.kernels
	c.mu.Unlock()

	op := kernels.Blend
	switch bg {
	case BackgroundBlack:
		kernels.FillColor(out, 16, 128, 128)
	case BackgroundWhite:
		kernels.FillColor(out, 240, 128, 128)
	case BackgroundTransparent:
		for _, plane := range out.Data {
			clear(plane)
		}
		op = kernels.Overlay
	default:
		kernels.FillChecker(out)
	}

	for _, p := range pads {
		if p.mixed == nil || p.props.Alpha <= 0 {
			continue
		}
		op(p.mixed, p.props.XPos, p.props.YPos, p.props.Alpha, out)
	}
}
