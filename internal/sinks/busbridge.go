package sinks

import (
	"time"

	"github.com/smazurov/mixnode/internal/events"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

// BusBridge forwards the composited stream unchanged while republishing the
// mixer's out-of-band events on the service event bus, where SSE clients
// and the metrics recorder pick them up.
type BusBridge struct {
	next mixer.Downstream
	bus  *events.Bus
}

// NewBusBridge wraps next, publishing stream events to bus.
func NewBusBridge(next mixer.Downstream, bus *events.Bus) *BusBridge {
	return &BusBridge{next: next, bus: bus}
}

func (b *BusBridge) AllowedCaps() video.Caps { return b.next.AllowedCaps() }

func (b *BusBridge) PushFrame(f *video.Frame) error { return b.next.PushFrame(f) }

func (b *BusBridge) PushEvent(ev mixer.Event) {
	switch e := ev.(type) {
	case mixer.FormatEvent:
		b.bus.Publish(events.OutputNegotiatedEvent{
			Format:    e.Info.Format.String(),
			Width:     e.Info.Width,
			Height:    e.Info.Height,
			FPSNum:    e.Info.FPS.Num,
			FPSDen:    e.Info.FPS.Den,
			Timestamp: timestamp(),
		})
	case mixer.QoSDropEvent:
		b.bus.Publish(events.FrameDroppedEvent{
			TimestampNs: int64(e.Timestamp),
			JitterNs:    int64(e.Jitter),
			Proportion:  e.Proportion,
			Processed:   e.Processed,
			Dropped:     e.Dropped,
			Timestamp:   timestamp(),
		})
	case mixer.EOSEvent:
		b.bus.Publish(events.EndOfStreamEvent{Timestamp: timestamp()})
	}
	b.next.PushEvent(ev)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
