package mixer

import (
	"github.com/smazurov/mixnode/internal/convert"
	"github.com/smazurov/mixnode/internal/video"
)

// padProps are the compositing properties of one input. Updates are staged
// and applied atomically at the start of each output frame so a frame never
// mixes old and new values.
type padProps struct {
	XPos   int
	YPos   int
	ZOrder int
	Alpha  float64
}

// Pad is the mixer-side state of one input: its queue, declared format, the
// converter bound at negotiation time, and the frame currently covering the
// output window.
type Pad struct {
	ID    string
	index int

	queue *Queue
	info  video.Info

	props   padProps
	pending *padProps

	conv           *convert.Conversion
	convInfo       video.Info
	needsReconvert bool

	// queuedFrame holds a popped frame whose duration is unknown until the
	// next frame's timestamp arrives.
	queuedFrame *video.Frame

	// current covers [startTime, endTime) on the output running-time axis.
	current   *video.Frame
	startTime video.Time
	endTime   video.Time

	// mixed is the converted view of current for the cycle in flight.
	mixed *video.Frame
}

func newPad(id string, index int, q *Queue) *Pad {
	return &Pad{
		ID:        id,
		index:     index,
		queue:     q,
		props:     padProps{ZOrder: index, Alpha: 1.0},
		startTime: video.None,
		endTime:   video.None,
	}
}

// Queue returns the ingest queue producers push into.
func (p *Pad) Queue() *Queue { return p.queue }

// Info returns the declared input format, the zero Info before the producer
// announced one.
func (p *Pad) Info() video.Info { return p.info }

// stage records a property update to be applied at the next frame boundary.
func (p *Pad) stage(mut func(*padProps)) {
	if p.pending == nil {
		staged := p.props
		p.pending = &staged
	}
	mut(p.pending)
}

// effProps returns the properties including staged updates. Painting uses
// props after syncProps; negotiation and sorting look at the target values
// so geometry and stacking react immediately.
func (p *Pad) effProps() padProps {
	if p.pending != nil {
		return *p.pending
	}
	return p.props
}

// effZOrder is the z-order for sorting, staged value included so stacking
// changes order pads immediately.
func (p *Pad) effZOrder() int {
	return p.effProps().ZOrder
}

// syncProps applies staged property updates. Called once per output frame,
// before painting, so the whole frame sees one consistent property set.
func (p *Pad) syncProps() {
	if p.pending != nil {
		p.props = *p.pending
		p.pending = nil
	}
}

// releaseConverter closes the bound converter exactly once.
func (p *Pad) releaseConverter() {
	if p.conv != nil {
		p.conv.Close()
		p.conv = nil
	}
}

// resetTiming discards scheduling state, keeping format and properties.
func (p *Pad) resetTiming() {
	p.queuedFrame = nil
	p.current = nil
	p.mixed = nil
	p.startTime = video.None
	p.endTime = video.None
}
