// Package sinks provides downstream consumers for the mixer: a measuring
// null sink, a fan-out broadcaster and a pacing meter that feeds lateness
// back into frame scheduling.
package sinks

import (
	"sync"

	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

// Null accepts frames and discards them, keeping counters and the last
// announced format. Used by the validate command and in tests.
type Null struct {
	mu     sync.Mutex
	caps   video.Caps
	frames uint64
	info   video.Info
	eos    bool
}

// NewNull returns a null sink accepting every format.
func NewNull() *Null {
	return &Null{caps: video.AnyCaps()}
}

// NewNullWithCaps returns a null sink constrained to the given capability
// set, for exercising negotiation against a picky consumer.
func NewNullWithCaps(caps video.Caps) *Null {
	return &Null{caps: caps}
}

func (n *Null) AllowedCaps() video.Caps {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.caps
}

// SetCaps replaces the capability set. The mixer picks it up after a
// reconfigure request.
func (n *Null) SetCaps(caps video.Caps) {
	n.mu.Lock()
	n.caps = caps
	n.mu.Unlock()
}

func (n *Null) PushFrame(f *video.Frame) error {
	n.mu.Lock()
	n.frames++
	n.mu.Unlock()
	return nil
}

func (n *Null) PushEvent(ev mixer.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch e := ev.(type) {
	case mixer.FormatEvent:
		n.info = e.Info
	case mixer.EOSEvent:
		n.eos = true
	}
}

// Frames returns how many frames were consumed.
func (n *Null) Frames() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.frames
}

// Info returns the last format announced upstream.
func (n *Null) Info() video.Info {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.info
}

// EOS reports whether end of stream was announced.
func (n *Null) EOS() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.eos
}
