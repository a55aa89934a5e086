package events

// Event type constants for kelindar/event.
const (
	TypeOutputNegotiated uint32 = iota + 1
	TypeFrameDropped
	TypeLayerCreated
	TypeLayerUpdated
	TypeLayerDeleted
	TypeEndOfStream
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// OutputNegotiatedEvent is published when the mixer settles on a new output
// format.
type OutputNegotiatedEvent struct {
	Format    string `json:"format" example:"BGRA" doc:"Negotiated pixel format"`
	Width     int    `json:"width" example:"1920" doc:"Output width in pixels"`
	Height    int    `json:"height" example:"1080" doc:"Output height in pixels"`
	FPSNum    int    `json:"fps_num" example:"30" doc:"Framerate numerator"`
	FPSDen    int    `json:"fps_den" example:"1" doc:"Framerate denominator"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for OutputNegotiatedEvent.
func (e OutputNegotiatedEvent) Type() uint32 { return TypeOutputNegotiated }

// FrameDroppedEvent is published when the mixer skips an output frame on
// downstream lateness feedback.
type FrameDroppedEvent struct {
	TimestampNs int64   `json:"timestamp_ns" doc:"Output timestamp of the dropped frame"`
	JitterNs    int64   `json:"jitter_ns" doc:"How late the frame would have been"`
	Proportion  float64 `json:"proportion" example:"1.4" doc:"Downstream rate proportion"`
	Processed   uint64  `json:"processed" doc:"Frames produced so far"`
	Dropped     uint64  `json:"dropped" doc:"Frames dropped so far"`
	Timestamp   string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameDroppedEvent.
func (e FrameDroppedEvent) Type() uint32 { return TypeFrameDropped }

// LayerCreatedEvent is published when a layer is added to the composition.
type LayerCreatedEvent struct {
	LayerID   string `json:"layer_id" example:"camera-1" doc:"Layer identifier"`
	Action    string `json:"action" example:"created" doc:"Action type"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LayerCreatedEvent.
func (e LayerCreatedEvent) Type() uint32 { return TypeLayerCreated }

// LayerUpdatedEvent is published when a layer's compositing properties
// change.
type LayerUpdatedEvent struct {
	LayerID   string `json:"layer_id" example:"camera-1" doc:"Layer identifier"`
	Action    string `json:"action" example:"updated" doc:"Action type"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LayerUpdatedEvent.
func (e LayerUpdatedEvent) Type() uint32 { return TypeLayerUpdated }

// LayerDeletedEvent is published when a layer is removed from the
// composition.
type LayerDeletedEvent struct {
	LayerID   string `json:"layer_id" example:"camera-1" doc:"Layer identifier"`
	Action    string `json:"action" example:"deleted" doc:"Action type"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LayerDeletedEvent.
func (e LayerDeletedEvent) Type() uint32 { return TypeLayerDeleted }

// EndOfStreamEvent is published when every input finished and the output
// stream ended.
type EndOfStreamEvent struct {
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EndOfStreamEvent.
func (e EndOfStreamEvent) Type() uint32 { return TypeEndOfStream }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
