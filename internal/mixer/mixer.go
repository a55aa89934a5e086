// Package mixer implements the compositing engine: it pulls timestamped
// frames from any number of input queues, schedules them onto a common
// running-time axis, converts them to one negotiated output format and hands
// composited frames to a downstream consumer at the negotiated rate.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/mixnode/internal/logging"
	"github.com/smazurov/mixnode/internal/video"
)

// Result tells the caller what one aggregation cycle produced.
type Result int

const (
	// ResultIdle: no frame this cycle, retry later (waiting for data or
	// for negotiation).
	ResultIdle Result = iota
	// ResultProduced: one frame was composited and pushed downstream.
	ResultProduced
	// ResultDropped: the window was skipped on downstream lateness feedback.
	ResultDropped
	// ResultEOS: all inputs finished; end of stream was signalled.
	ResultEOS
)

// Stats are the lifetime quality-of-service counters.
type Stats struct {
	Processed  uint64  `json:"processed"`
	Dropped    uint64  `json:"dropped"`
	Proportion float64 `json:"proportion"`
}

// Mixer composites any number of inputs into one output stream.
//
// Producers push into per-input Queues from their own goroutines. One
// goroutine drives aggregation, either via Run or by calling Aggregate
// directly. Property setters and attach/detach are safe from any goroutine.
type Mixer struct {
	log        *slog.Logger
	strategy   Strategy
	downstream Downstream

	// negMu serializes negotiation against concurrent format declarations.
	negMu sync.Mutex
	// mu guards pads and output timing state.
	mu sync.Mutex

	pads      []*Pad
	nextIndex int

	info       video.Info
	outSegment video.Segment
	tsOffset   video.Time
	nframes    int64

	pendingTags      map[string]string
	needsReconfigure atomic.Bool

	qos *qosState
}

// New builds a mixer feeding the given downstream with the given strategy.
func New(strategy Strategy, downstream Downstream) *Mixer {
	return &Mixer{
		log:        logging.GetLogger("mixer"),
		strategy:   strategy,
		downstream: downstream,
		outSegment: video.NewSegment(),
		qos:        newQosState(),
	}
}

// AttachInput adds an input. The returned pad starts with no declared
// format; it contributes to output once SetInputFormat is called and frames
// arrive on its queue.
func (m *Mixer) AttachInput(id string) *Pad {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := newPad(id, m.nextIndex, NewQueue())
	m.nextIndex++
	m.pads = append(m.pads, p)
	m.sortPadsLocked()
	m.log.Debug("input attached", "id", id, "zorder", p.props.ZOrder)
	return p
}

// DetachInput removes an input, releases its converter and renegotiates the
// output against the remaining inputs.
func (m *Mixer) DetachInput(pad *Pad) {
	m.mu.Lock()
	for i, p := range m.pads {
		if p == pad {
			m.pads = append(m.pads[:i], m.pads[i+1:]...)
			break
		}
	}
	hadInfo := pad.info.Known()
	pad.releaseConverter()
	pad.resetTiming()
	m.mu.Unlock()

	m.log.Debug("input detached", "id", pad.ID)
	if hadInfo {
		if err := m.negotiate(); err != nil {
			m.log.Error("renegotiation after detach failed", "error", err)
		}
	}
}

// SetInputFormat declares or changes an input's stream format and
// renegotiates the output. Pixel aspect ratio and interlacing must agree
// with the streams already mixed.
func (m *Mixer) SetInputFormat(pad *Pad, info video.Info) error {
	if !info.Known() || info.Width <= 0 || info.Height <= 0 {
		return fmt.Errorf("mixer: invalid input format %s", info)
	}
	if _, ok := video.Describe(info.Format); !ok {
		return fmt.Errorf("mixer: unsupported input format %s", info.Format)
	}

	m.mu.Lock()
	for _, p := range m.pads {
		if p == pad || !p.info.Known() {
			continue
		}
		if p.info.PAR != info.PAR {
			m.mu.Unlock()
			return fmt.Errorf("mixer: pixel aspect ratio %s conflicts with %s on %s",
				info.PAR, p.info.PAR, p.ID)
		}
		if p.info.Interlace != info.Interlace {
			m.mu.Unlock()
			return errors.New("mixer: interlacing mode conflicts with mixed streams")
		}
	}
	pad.info = info
	pad.queue.SetImpliedFPS(info.FPS)
	m.mu.Unlock()

	return m.negotiate()
}

// SetPosition stages a new x/y offset for the input, applied at the next
// output frame boundary.
func (m *Mixer) SetPosition(pad *Pad, x, y int) {
	m.mu.Lock()
	pad.stage(func(p *padProps) { p.XPos, p.YPos = x, y })
	geometryChanged := pad.info.Known()
	m.mu.Unlock()
	if geometryChanged {
		m.needsReconfigure.Store(true)
	}
}

// SetAlpha stages a new opacity in [0, 1] for the input.
func (m *Mixer) SetAlpha(pad *Pad, alpha float64) {
	alpha = min(max(alpha, 0), 1)
	m.mu.Lock()
	pad.stage(func(p *padProps) { p.Alpha = alpha })
	m.mu.Unlock()
}

// SetZOrder stages a new stacking position for the input. Higher z paints
// on top.
func (m *Mixer) SetZOrder(pad *Pad, z int) {
	m.mu.Lock()
	pad.stage(func(p *padProps) { p.ZOrder = z })
	m.sortPadsLocked()
	m.mu.Unlock()
}

func (m *Mixer) sortPadsLocked() {
	sort.SliceStable(m.pads, func(i, j int) bool {
		zi, zj := m.pads[i].effZOrder(), m.pads[j].effZOrder()
		if zi != zj {
			return zi < zj
		}
		return m.pads[i].index < m.pads[j].index
	})
}

// InputState is a point-in-time snapshot of one input, for status surfaces.
type InputState struct {
	ID     string     `json:"id"`
	XPos   int        `json:"xpos"`
	YPos   int        `json:"ypos"`
	ZOrder int        `json:"zorder"`
	Alpha  float64    `json:"alpha"`
	Info   video.Info `json:"-"`
	Queued int        `json:"queued"`
	EOS    bool       `json:"eos"`
}

// Inputs snapshots all attached inputs in ascending z-order.
func (m *Mixer) Inputs() []InputState {
	m.mu.Lock()
	defer m.mu.Unlock()
	states := make([]InputState, 0, len(m.pads))
	for _, p := range m.pads {
		props := p.effProps()
		states = append(states, InputState{
			ID:     p.ID,
			XPos:   props.XPos,
			YPos:   props.YPos,
			ZOrder: props.ZOrder,
			Alpha:  props.Alpha,
			Info:   p.info,
			Queued: p.queue.Len(),
			EOS:    p.queue.AtEOS(),
		})
	}
	return states
}

// RequestReconfigure asks the mixer to renegotiate before its next cycle,
// typically after the downstream capability set changed.
func (m *Mixer) RequestReconfigure() {
	m.needsReconfigure.Store(true)
}

// Negotiated reports whether an output format has been settled.
func (m *Mixer) Negotiated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info.Known()
}

// OutputInfo returns the negotiated output descriptor, the zero Info before
// negotiation.
func (m *Mixer) OutputInfo() video.Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// MergeTags folds stream metadata into the pending set flushed downstream
// with the next cycle.
func (m *Mixer) MergeTags(tags map[string]string) {
	m.mu.Lock()
	if m.pendingTags == nil {
		m.pendingTags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		m.pendingTags[k] = v
	}
	m.mu.Unlock()
}

// UpdateQoS feeds downstream lateness feedback into frame scheduling.
// Jitter is how late (positive) or early (negative) the reported frame ran,
// timestamp is that frame's output timestamp.
func (m *Mixer) UpdateQoS(proportion float64, jitter, timestamp video.Time) {
	m.mu.Lock()
	frameDur := m.info.FPS.FrameDuration()
	rt := m.outSegment.ToRunningTime(timestamp)
	m.mu.Unlock()
	m.qos.update(proportion, jitter, rt, frameDur)
}

// Stats returns the lifetime frame counters and the last reported
// downstream proportion.
func (m *Mixer) Stats() Stats {
	proportion, processed, dropped := m.qos.snapshot()
	return Stats{Processed: processed, Dropped: dropped, Proportion: proportion}
}

// Position returns the stream time of the output, None before the first
// frame.
func (m *Mixer) Position() video.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.outSegment.Position.Valid() {
		return video.None
	}
	return m.outSegment.ToStreamTime(m.outSegment.Position)
}

// Duration returns the longest declared input duration, None when any input
// cannot say.
func (m *Mixer) Duration() video.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	var d video.Time
	for _, p := range m.pads {
		pd := p.queue.Duration()
		if !pd.Valid() {
			return video.None
		}
		d = max(d, pd)
	}
	if len(m.pads) == 0 {
		return video.None
	}
	return d
}

// Flush discards all buffered and held frames and rewinds output timing,
// keeping the negotiated format and input properties.
func (m *Mixer) Flush() {
	m.mu.Lock()
	for _, p := range m.pads {
		p.queue.Flush()
		p.resetTiming()
	}
	m.outSegment.Position = video.None
	m.tsOffset = 0
	m.nframes = 0
	m.pendingTags = nil
	m.mu.Unlock()
	m.qos.reset()
	m.log.Debug("flushed")
}

// Seek reconfigures the playback range and rate. With flush set, buffered
// frames are discarded; otherwise held frames are rescaled onto the new
// rate so scheduling comparisons stay valid. Only positive rates are
// supported.
func (m *Mixer) Seek(rate float64, start, stop video.Time, flush bool) error {
	if rate <= 0 {
		return ErrNegativeRate
	}
	m.mu.Lock()
	oldRate := m.outSegment.Rate
	for _, p := range m.pads {
		if flush {
			p.queue.Flush()
			p.resetTiming()
			continue
		}
		if p.startTime.Valid() {
			p.startTime = video.Time(float64(p.startTime) * oldRate / rate)
		}
		if p.endTime.Valid() {
			p.endTime = video.Time(float64(p.endTime) * oldRate / rate)
		}
	}
	if !start.Valid() {
		start = 0
	}
	m.outSegment.Rate = rate
	m.outSegment.Start = start
	m.outSegment.Stop = stop
	m.outSegment.Position = video.None
	m.outSegment.Base = 0
	m.tsOffset = 0
	m.nframes = 0
	m.mu.Unlock()
	m.qos.reset()
	m.log.Debug("seek", "rate", rate, "start", int64(start), "stop", int64(stop), "flush", flush)
	return nil
}

// Aggregate runs one cycle: it computes the next output window, lets every
// input settle its frame for it, then composites or drops the frame. It
// never blocks waiting for data.
func (m *Mixer) Aggregate() (Result, error) {
	if m.needsReconfigure.CompareAndSwap(true, false) {
		if err := m.negotiate(); err != nil {
			m.needsReconfigure.Store(true)
			return ResultIdle, err
		}
	}

	m.mu.Lock()
	if !m.info.Known() {
		m.mu.Unlock()
		return ResultIdle, ErrNotNegotiated
	}

	outStart := m.outSegment.Position
	if !outStart.Valid() || outStart < m.outSegment.Start {
		outStart = m.outSegment.Start
	}
	outEnd := m.tsOffset + scaleFrames(m.nframes+1, m.info.FPS) + m.outSegment.Start
	if m.outSegment.Stop.Valid() && outEnd > m.outSegment.Stop {
		outEnd = m.outSegment.Stop
	}

	var events []Event
	if m.pendingTags != nil {
		events = append(events, TagsEvent{Tags: m.pendingTags})
		m.pendingTags = nil
	}

	result := ResultIdle
	var out *video.Frame

	fill, err := m.fillQueues(outStart, outEnd)
	switch {
	case err != nil:
	case fill == fillEOS:
		events = append(events, EOSEvent{})
		result = ResultEOS
	case fill == fillNeedData:
	default:
		rt := m.outSegment.ToRunningTime(outStart)
		jitter, late := m.qos.evaluate(rt)
		if late {
			m.qos.markDropped()
			proportion, processed, dropped := m.qos.snapshot()
			events = append(events, QoSDropEvent{
				RunningTime: rt,
				StreamTime:  m.outSegment.ToStreamTime(outStart),
				Timestamp:   outStart,
				Duration:    outEnd - outStart,
				Jitter:      jitter,
				Proportion:  proportion,
				Processed:   processed,
				Dropped:     dropped,
			})
			result = ResultDropped
		} else {
			out = m.blendFrames(outStart, outEnd)
			m.qos.markProcessed()
			result = ResultProduced
		}
		m.outSegment.Position = outEnd
		m.nframes++
	}
	m.mu.Unlock()

	// Events and frames go out without holding the state lock so a slow or
	// reentrant downstream cannot deadlock aggregation.
	for _, ev := range events {
		m.downstream.PushEvent(ev)
	}
	if err != nil {
		return ResultIdle, err
	}
	if out != nil {
		if err := m.downstream.PushFrame(out); err != nil {
			return result, err
		}
	}
	return result, nil
}

// blendFrames converts each contributing input and paints the output frame.
// Called with the state lock held.
func (m *Mixer) blendFrames(start, end video.Time) *video.Frame {
	out := video.NewFrame(m.info)
	out.PTS = start
	out.Duration = end - start

	defer func() {
		for _, p := range m.pads {
			p.mixed = nil
		}
	}()

	for _, p := range m.pads {
		p.syncProps()
		if p.current == nil {
			continue
		}
		if p.conv == nil {
			p.mixed = p.current
			continue
		}
		// Kernels clip the source rectangle to the output bounds, so the
		// scratch frame only needs the converted input's geometry.
		scratch := video.NewFrame(p.convInfo)
		if err := p.conv.Convert(scratch, p.current); err != nil {
			m.log.Warn("conversion failed, skipping input for this frame",
				"id", p.ID, "error", err)
			continue
		}
		p.needsReconvert = false
		p.mixed = scratch
	}

	m.sortPadsLocked()
	m.strategy.Composite(m.pads, out)
	return out
}

// scaleFrames converts a frame count to a duration at the given rate with
// round-to-nearest, matching how the output window is derived.
func scaleFrames(n int64, fps video.Fraction) video.Time {
	if !fps.Valid() {
		return video.None
	}
	num := n * int64(fps.Den) * int64(time.Second)
	return video.Time((num + int64(fps.Num)/2) / int64(fps.Num))
}

// Run drives aggregation at the negotiated output rate until the context is
// cancelled, all inputs reach end of stream, or a fatal error occurs.
func (m *Mixer) Run(ctx context.Context) error {
	const idleWait = 5 * time.Millisecond

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		res, err := m.Aggregate()
		var wait time.Duration
		switch {
		case errors.Is(err, ErrNotNegotiated):
			wait = 4 * idleWait
		case err != nil:
			return err
		case res == ResultEOS:
			return nil
		case res == ResultIdle:
			wait = idleWait
		default:
			if d := m.OutputInfo().FPS.FrameDuration(); d.Valid() {
				wait = time.Duration(d)
			} else {
				wait = 40 * time.Millisecond
			}
		}
		timer.Reset(wait)
	}
}
