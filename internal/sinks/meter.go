package sinks

import (
	"sync"
	"time"

	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

// Reporter receives lateness feedback. *mixer.Mixer satisfies it.
type Reporter interface {
	UpdateQoS(proportion float64, jitter, timestamp video.Time)
}

// Meter wraps a downstream and measures each frame's arrival against a wall
// clock anchored at the first frame, feeding the observed lateness back
// upstream. When the mixer cannot keep up, the feedback makes it skip
// compositing of frames that would arrive late anyway.
type Meter struct {
	next     mixer.Downstream
	reporter Reporter

	mu         sync.Mutex
	epoch      time.Time
	anchored   bool
	proportion float64
}

// NewMeter wraps next, reporting lateness to r. The reporter may be nil and
// set later with SetReporter, since the mixer is built on top of its sink.
func NewMeter(next mixer.Downstream, r Reporter) *Meter {
	return &Meter{next: next, reporter: r, proportion: 1.0}
}

// SetReporter sets the lateness feedback target.
func (m *Meter) SetReporter(r Reporter) {
	m.mu.Lock()
	m.reporter = r
	m.mu.Unlock()
}

func (m *Meter) AllowedCaps() video.Caps { return m.next.AllowedCaps() }

func (m *Meter) PushFrame(f *video.Frame) error {
	now := time.Now()

	m.mu.Lock()
	if !m.anchored {
		m.epoch = now.Add(-time.Duration(f.PTS))
		m.anchored = true
	}
	deadline := m.epoch.Add(time.Duration(f.PTS))
	jitter := video.Time(now.Sub(deadline))

	if f.Duration.Valid() && f.Duration > 0 {
		observed := 1.0 + float64(jitter)/float64(f.Duration)
		observed = min(max(observed, 0.1), 10.0)
		m.proportion = 0.9*m.proportion + 0.1*observed
	}
	proportion := m.proportion
	reporter := m.reporter
	m.mu.Unlock()

	if reporter != nil {
		reporter.UpdateQoS(proportion, jitter, f.PTS)
	}
	return m.next.PushFrame(f)
}

func (m *Meter) PushEvent(ev mixer.Event) {
	if _, ok := ev.(mixer.FormatEvent); ok {
		// Timing restarts with the new format.
		m.Reset()
	}
	m.next.PushEvent(ev)
}

// Reset drops the wall-clock anchor, re-anchoring on the next frame. Called
// after flushes and seeks.
func (m *Meter) Reset() {
	m.mu.Lock()
	m.anchored = false
	m.proportion = 1.0
	m.mu.Unlock()
}
