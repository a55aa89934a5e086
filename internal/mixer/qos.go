package mixer

import (
	"sync"

	"github.com/smazurov/mixnode/internal/video"
)

const defaultProportion = 0.5

// qosState tracks downstream lateness feedback. It has its own lock because
// feedback arrives from the downstream delivery path while aggregation holds
// the mixer state lock.
type qosState struct {
	mu         sync.Mutex
	proportion float64
	earliest   video.Time
	processed  uint64
	dropped    uint64
}

func newQosState() *qosState {
	return &qosState{proportion: defaultProportion, earliest: video.None}
}

// update folds one feedback report into the state. frameDuration is the
// negotiated output frame duration; a positive jitter pushes the earliest
// acceptable timestamp past the reported frame so the mixer catches up
// instead of producing a run of equally late frames.
func (q *qosState) update(proportion float64, jitter video.Time, timestamp video.Time, frameDuration video.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.proportion = proportion
	if !timestamp.Valid() {
		return
	}
	if jitter > 0 {
		q.earliest = timestamp + 2*jitter
		if frameDuration.Valid() {
			q.earliest += frameDuration
		}
	} else {
		q.earliest = timestamp + jitter
	}
}

// evaluate returns the jitter of a frame scheduled at the given running
// time. late is true when the frame falls before the earliest acceptable
// time and should be skipped so the pipeline can catch up.
func (q *qosState) evaluate(runningTime video.Time) (jitter video.Time, late bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !runningTime.Valid() || !q.earliest.Valid() {
		return -1, false
	}
	jitter = q.earliest - runningTime
	return jitter, jitter > 0
}

func (q *qosState) markProcessed() {
	q.mu.Lock()
	q.processed++
	q.mu.Unlock()
}

func (q *qosState) markDropped() {
	q.mu.Lock()
	q.dropped++
	q.mu.Unlock()
}

// snapshot returns proportion and the lifetime frame counters.
func (q *qosState) snapshot() (proportion float64, processed, dropped uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.proportion, q.processed, q.dropped
}

// reset clears lateness state after a discontinuity. Counters survive, they
// are lifetime statistics.
func (q *qosState) reset() {
	q.mu.Lock()
	q.proportion = defaultProportion
	q.earliest = video.None
	q.mu.Unlock()
}
