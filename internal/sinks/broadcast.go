package sinks

import (
	"log/slog"
	"sync"

	"github.com/smazurov/mixnode/internal/logging"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

// Message is one item of the composited stream: either a frame or an event.
type Message struct {
	Frame *video.Frame
	Event mixer.Event
}

// Broadcast fans the composited stream out to any number of subscribers
// over buffered channels. Slow subscribers lose frames, never block the
// mixer; events are always delivered.
type Broadcast struct {
	log  *slog.Logger
	caps video.Caps

	mu     sync.Mutex
	subs   map[uint64]chan Message
	nextID uint64
	info   video.Info
}

// NewBroadcast returns a broadcaster constrained to the given caps.
func NewBroadcast(caps video.Caps) *Broadcast {
	return &Broadcast{
		log:  logging.GetLogger("sinks"),
		caps: caps,
		subs: make(map[uint64]chan Message),
	}
}

func (b *Broadcast) AllowedCaps() video.Caps { return b.caps }

// Subscribe registers a consumer. The cancel function must be called when
// the consumer goes away. New subscribers immediately see the current
// format, if negotiated.
func (b *Broadcast) Subscribe(buffer int) (<-chan Message, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Message, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.info.Known() {
		ch <- Message{Event: mixer.FormatEvent{Info: b.info}}
	}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broadcast) PushFrame(f *video.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- Message{Frame: f}:
		default:
			// Subscriber is behind; it keeps its backlog, this frame is lost.
		}
	}
	return nil
}

func (b *Broadcast) PushEvent(ev mixer.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fe, ok := ev.(mixer.FormatEvent); ok {
		b.info = fe.Info
	}
	for _, ch := range b.subs {
		deliver(ch, Message{Event: ev})
	}
}

// deliver pushes a message that must not be silently lost. When the
// subscriber's buffer is full, its oldest entry makes room.
func deliver(ch chan Message, msg Message) {
	select {
	case ch <- msg:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- msg:
	default:
	}
}

// Subscribers returns the current consumer count.
func (b *Broadcast) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
