package mixer

import (
	"testing"

	"github.com/smazurov/mixnode/internal/video"
)

const msec = video.Time(1e6)

func makeFrame(info video.Info, pts, dur video.Time) *video.Frame {
	f := video.NewFrame(info)
	f.PTS = pts
	f.Duration = dur
	return f
}

func testInfo() video.Info {
	return video.NewInfo(video.FormatI420, 64, 48, video.Fraction{Num: 25, Den: 1})
}

func TestQueue_PushRequiresTimestamp(t *testing.T) {
	q := NewQueue()
	f := video.NewFrame(testInfo())

	if err := q.Push(f); err != ErrMissingTimestamp {
		t.Fatalf("expected ErrMissingTimestamp, got %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("rejected frame should not be queued")
	}
}

func TestQueue_PushPop(t *testing.T) {
	q := NewQueue()
	info := testInfo()

	if err := q.Push(makeFrame(info, 0, 40*msec)); err != nil {
		t.Fatal(err)
	}
	if err := q.Push(makeFrame(info, 40*msec, 40*msec)); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2", q.Len())
	}

	peeked, ok := q.Peek()
	if !ok || peeked.PTS != 0 {
		t.Fatal("Peek should return the oldest frame")
	}
	if q.Len() != 2 {
		t.Error("Peek must not consume")
	}

	popped, ok := q.TryPop()
	if !ok || popped.PTS != 0 {
		t.Fatal("TryPop should return the oldest frame")
	}
	if q.Len() != 1 {
		t.Errorf("Len after pop = %d, want 1", q.Len())
	}
}

func TestQueue_DropsBackwardsFrames(t *testing.T) {
	q := NewQueue()
	info := testInfo()

	if err := q.Push(makeFrame(info, 0, 40*msec)); err != nil {
		t.Fatal(err)
	}
	// Ends at 20ms, before the 40ms already accepted: dropped silently.
	if err := q.Push(makeFrame(info, 10*msec, 10*msec)); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1 (backwards frame dropped)", q.Len())
	}
}

func TestQueue_ImpliedDuration(t *testing.T) {
	q := NewQueue()
	q.SetImpliedFPS(video.Fraction{Num: 25, Den: 1})
	info := testInfo()

	if err := q.Push(makeFrame(info, 100*msec, video.None)); err != nil {
		t.Fatal(err)
	}
	// Implied 40ms duration makes this end at 120ms < 140ms: dropped.
	if err := q.Push(makeFrame(info, 80*msec, video.None)); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

func TestQueue_SegmentClipAtPush(t *testing.T) {
	q := NewQueue()
	seg := video.NewSegment()
	seg.Start = 100 * msec
	q.SetSegment(seg)
	info := testInfo()

	// Entirely before the segment: never queued.
	if err := q.Push(makeFrame(info, 0, 40*msec)); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 0 {
		t.Errorf("out-of-segment frame should be dropped, Len = %d", q.Len())
	}

	if err := q.Push(makeFrame(info, 100*msec, 40*msec)); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 1 {
		t.Errorf("in-segment frame should be queued, Len = %d", q.Len())
	}
}

func TestQueue_EOS(t *testing.T) {
	q := NewQueue()
	info := testInfo()

	if err := q.Push(makeFrame(info, 0, 40*msec)); err != nil {
		t.Fatal(err)
	}
	q.CloseEOS()

	if q.AtEOS() {
		t.Error("queue with frames left is not fully at EOS")
	}
	if !q.Closed() {
		t.Error("Closed should report true after CloseEOS")
	}

	// Pushes after close are ignored.
	if err := q.Push(makeFrame(info, 40*msec, 40*msec)); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}

	q.TryPop()
	if !q.AtEOS() {
		t.Error("drained closed queue should be at EOS")
	}
}

func TestQueue_FlushReopens(t *testing.T) {
	q := NewQueue()
	info := testInfo()

	if err := q.Push(makeFrame(info, 0, 40*msec)); err != nil {
		t.Fatal(err)
	}
	q.CloseEOS()
	q.Flush()

	if q.Len() != 0 {
		t.Errorf("Len after flush = %d, want 0", q.Len())
	}
	if q.Closed() {
		t.Error("flush should reopen the queue")
	}
	// Clip state is gone too: an early frame is accepted again.
	if err := q.Push(makeFrame(info, 0, 40*msec)); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}
