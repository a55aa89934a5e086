package mixer

import "github.com/smazurov/mixnode/internal/video"

type fillResult int

const (
	// fillReady: every live input has settled its frame for the window.
	fillReady fillResult = iota
	// fillNeedData: at least one live input cannot decide yet; retry after
	// more data arrives. Output position does not advance.
	fillNeedData
	// fillEOS: all inputs are finished and drained.
	fillEOS
)

// fillQueues walks every input and decides which frame, if any, covers the
// output window [outStart, outEnd) in running time. One new frame is
// examined per input per call. Called with the state lock held.
func (m *Mixer) fillQueues(outStart, outEnd video.Time) (fillResult, error) {
	eos := true
	needData := false
	rate := m.outSegment.Rate
	if rate < 0 {
		rate = -rate
	}

	for _, p := range m.pads {
		seg := p.queue.Segment()
		isEOS := p.queue.AtEOS()

		buf, ok := p.queue.Peek()
		if !ok {
			// Nothing new. A held frame that has fully played out is
			// released; a live stream with nothing to show blocks progress.
			switch {
			case p.endTime.Valid() && p.endTime <= outStart:
				p.current = nil
				p.startTime, p.endTime = video.None, video.None
				if !isEOS {
					needData = true
				}
			case p.endTime.Valid() && !isEOS:
				eos = false
			case !isEOS:
				needData = true
			}
			continue
		}

		if !buf.PTS.Valid() {
			p.queue.TryPop()
			return fillNeedData, ErrMissingTimestamp
		}

		var candidate *video.Frame
		var start, dur video.Time
		fromHeld := false
		if p.queuedFrame != nil {
			if buf.PTS < p.queuedFrame.PTS {
				// Timestamps went backwards; discard the newcomer.
				p.queue.TryPop()
				needData = true
				continue
			}
			candidate = p.queuedFrame
			start = candidate.PTS
			dur = buf.PTS - candidate.PTS
			fromHeld = true
		} else {
			if !buf.Duration.Valid() {
				// Duration is implied by the next frame's timestamp, so
				// hold this one back until a successor shows up.
				p.queue.TryPop()
				p.queuedFrame = buf
				needData = true
				continue
			}
			candidate = buf
			start = buf.PTS
			dur = buf.Duration
		}

		cs, ce, inSegment := seg.Clip(start, start+dur)
		if !inSegment {
			p.consume(fromHeld)
			needData = true
			continue
		}
		rs := seg.ToRunningTime(cs)
		re := seg.ToRunningTime(ce)
		if rate != 1.0 {
			rs = video.Time(float64(rs) * rate)
			re = video.Time(float64(re) * rate)
		}

		// Each input's running time must move forward.
		if p.endTime.Valid() && p.endTime > re {
			p.consume(fromHeld)
			needData = true
			continue
		}

		switch {
		case re >= outStart && rs < outEnd:
			p.current = candidate
			p.startTime, p.endTime = rs, re
			p.consume(fromHeld)
			eos = false
		case rs >= outEnd:
			// Belongs to a future window; leave it where it is.
			eos = false
		default:
			// Ended before the window opened: too late to show.
			p.consume(fromHeld)
			needData = true
		}
	}

	if needData {
		return fillNeedData, nil
	}
	if eos {
		return fillEOS, nil
	}
	return fillReady, nil
}

// consume removes the scheduling candidate from wherever it came from: the
// held-back slot or the head of the queue.
func (p *Pad) consume(fromHeld bool) {
	if fromHeld {
		p.queuedFrame = nil
	} else {
		p.queue.TryPop()
	}
}
