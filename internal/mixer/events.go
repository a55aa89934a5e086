package mixer

import "github.com/smazurov/mixnode/internal/video"

// Event is out-of-band information pushed downstream in stream order,
// interleaved with frames.
type Event any

// FormatEvent announces a (re)negotiated output format. Downstream sees it
// before the first frame in the new format.
type FormatEvent struct {
	Info video.Info
}

// EOSEvent announces that every input reached end of stream and no further
// frames will be produced.
type EOSEvent struct{}

// TagsEvent carries merged stream metadata collected from the inputs.
type TagsEvent struct {
	Tags map[string]string
}

// QoSDropEvent reports one output frame skipped because downstream feedback
// marked it as already late.
type QoSDropEvent struct {
	RunningTime video.Time
	StreamTime  video.Time
	Timestamp   video.Time
	Duration    video.Time
	Jitter      video.Time
	Proportion  float64
	Processed   uint64
	Dropped     uint64
}

// Downstream is the consumer side of the mixer: it constrains negotiation
// and receives the composited stream.
type Downstream interface {
	// AllowedCaps returns the consumer's current capability set.
	AllowedCaps() video.Caps
	// PushFrame hands over one composited frame. The mixer does not reuse
	// the frame afterwards.
	PushFrame(*video.Frame) error
	// PushEvent delivers out-of-band events in stream order.
	PushEvent(Event)
}
