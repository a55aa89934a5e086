package video

// Segment maps raw buffer timestamps onto the running-time axis shared by
// all inputs of the mixer. Start/Stop bound the playable range, Position
// tracks the current output position, Base accumulates running time across
// segment changes, Rate is the (positive) playback rate.
type Segment struct {
	Start    Time
	Stop     Time
	Position Time
	Base     Time
	Rate     float64
}

// NewSegment returns an open-ended segment at rate 1.0 with no position.
func NewSegment() Segment {
	return Segment{Start: 0, Stop: None, Position: None, Base: 0, Rate: 1.0}
}

// ToRunningTime converts a segment-relative timestamp to running time.
// Returns None for timestamps outside the segment.
func (s Segment) ToRunningTime(t Time) Time {
	if !t.Valid() || t < s.Start {
		return None
	}
	if s.Stop.Valid() && t > s.Stop {
		return None
	}
	d := t - s.Start
	if s.Rate != 0 && s.Rate != 1.0 {
		d = Time(float64(d) / s.Rate)
	}
	return s.Base + d
}

// ToStreamTime converts a segment-relative timestamp to stream time, the
// axis used to synchronize time-varying properties with frame content.
func (s Segment) ToStreamTime(t Time) Time {
	if !t.Valid() || t < s.Start {
		return None
	}
	return t - s.Start
}

// Clip narrows [start, end) to the segment bounds. ok is false when the
// interval lies entirely outside the segment.
func (s Segment) Clip(start, end Time) (Time, Time, bool) {
	if s.Stop.Valid() && start >= s.Stop {
		return None, None, false
	}
	if end < s.Start {
		return None, None, false
	}
	if start < s.Start {
		start = s.Start
	}
	if s.Stop.Valid() && end > s.Stop {
		end = s.Stop
	}
	return start, end, true
}
