package metrics

import (
	"context"
	"time"

	"github.com/smazurov/mixnode/internal/events"
	"github.com/smazurov/mixnode/internal/mixer"
)

// Recorder feeds mixer state into Prometheus: event-driven for format
// changes and layer lifecycle, polled for the counters.
type Recorder struct {
	mix    *mixer.Mixer
	bus    *events.Bus
	unsubs []func()
}

// NewRecorder subscribes to the event bus and prepares polling.
func NewRecorder(mix *mixer.Mixer, bus *events.Bus) *Recorder {
	r := &Recorder{mix: mix, bus: bus}
	r.unsubs = append(r.unsubs,
		bus.Subscribe(func(e events.OutputNegotiatedEvent) {
			fps := 0.0
			if e.FPSDen > 0 {
				fps = float64(e.FPSNum) / float64(e.FPSDen)
			}
			SetOutputFormat(e.Width, e.Height, fps)
		}),
		bus.Subscribe(func(e events.LayerDeletedEvent) {
			DeleteLayerMetrics(e.LayerID)
		}),
	)
	return r
}

// Run polls the mixer counters and per-layer queue depth until the context
// is cancelled.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	defer r.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats := r.mix.Stats()
			SetMixerStats(float64(stats.Processed), float64(stats.Dropped), stats.Proportion)
			for _, in := range r.mix.Inputs() {
				SetLayerQueueDepth(in.ID, float64(in.Queued))
			}
		}
	}
}

// Close drops the bus subscriptions.
func (r *Recorder) Close() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}
