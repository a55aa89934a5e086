package mixer

import (
	"sync"

	"github.com/smazurov/mixnode/internal/video"
)

// Queue is the ingest side of one mixer input. The producer pushes
// timestamped frames and segment updates; the scheduler consumes them
// during aggregation. Safe for one producer and one consumer.
type Queue struct {
	mu       sync.Mutex
	frames   []*video.Frame
	segment  video.Segment
	fps      video.Fraction
	duration video.Time
	lastEnd  video.Time
	closed   bool
}

// NewQueue returns an empty queue with an open-ended default segment.
func NewQueue() *Queue {
	return &Queue{
		segment:  video.NewSegment(),
		duration: video.None,
		lastEnd:  video.None,
	}
}

// SetSegment installs the producer's segment. It applies to frames pushed
// afterwards; frames already queued keep their original mapping because the
// scheduler reads the segment at pop time, so producers should push segment
// updates only at frame boundaries.
func (q *Queue) SetSegment(s video.Segment) {
	q.mu.Lock()
	q.segment = s
	q.lastEnd = video.None
	q.mu.Unlock()
}

// Segment returns the segment frames on this queue are timestamped against.
func (q *Queue) Segment() video.Segment {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.segment
}

// SetImpliedFPS declares the nominal frame rate of the producer. It is used
// to imply a duration for clip decisions when frames arrive without one.
func (q *Queue) SetImpliedFPS(fps video.Fraction) {
	q.mu.Lock()
	q.fps = fps
	q.mu.Unlock()
}

// SetDuration declares the total stream duration, None when unknown.
func (q *Queue) SetDuration(d video.Time) {
	q.mu.Lock()
	q.duration = d
	q.mu.Unlock()
}

// Duration returns the declared total stream duration.
func (q *Queue) Duration() video.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.duration
}

// Push appends a frame. Frames without a timestamp are rejected. Frames that
// end before an already accepted frame in running time are dropped here so
// the scheduler only ever sees forward progress from each producer.
func (q *Queue) Push(f *video.Frame) error {
	if !f.PTS.Valid() {
		return ErrMissingTimestamp
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}

	dur := f.Duration
	if !dur.Valid() && q.fps.Valid() {
		dur = q.fps.FrameDuration()
	}
	if dur.Valid() {
		_, end, ok := q.segment.Clip(f.PTS, f.PTS+dur)
		if !ok {
			return nil
		}
		if re := q.segment.ToRunningTime(end); re.Valid() {
			if q.lastEnd.Valid() && re < q.lastEnd {
				return nil
			}
			q.lastEnd = re
		}
	}

	q.frames = append(q.frames, f)
	return nil
}

// Peek returns the oldest queued frame without consuming it.
func (q *Queue) Peek() (*video.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return nil, false
	}
	return q.frames[0], true
}

// TryPop consumes and returns the oldest queued frame, if any.
func (q *Queue) TryPop() (*video.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return nil, false
	}
	f := q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	return f, true
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// CloseEOS marks the producer side finished. Frames already queued still
// drain; further pushes are ignored.
func (q *Queue) CloseEOS() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// AtEOS reports whether the stream is finished and fully drained.
func (q *Queue) AtEOS() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.frames) == 0
}

// Closed reports whether the producer signalled end of stream.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Flush drops all queued frames and resets clip state, reopening the queue
// for new data.
func (q *Queue) Flush() {
	q.mu.Lock()
	q.frames = nil
	q.lastEnd = video.None
	q.closed = false
	q.mu.Unlock()
}
