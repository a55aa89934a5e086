package sinks

import (
	"testing"
	"time"

	"github.com/smazurov/mixnode/internal/events"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

func testFrame(pts, dur video.Time) *video.Frame {
	f := video.NewFrame(video.NewInfo(video.FormatI420, 16, 8, video.Fraction{Num: 25, Den: 1}))
	f.PTS = pts
	f.Duration = dur
	return f
}

func TestNull_Counts(t *testing.T) {
	n := NewNull()

	if err := n.PushFrame(testFrame(0, 40*1e6)); err != nil {
		t.Fatal(err)
	}
	if err := n.PushFrame(testFrame(40*1e6, 40*1e6)); err != nil {
		t.Fatal(err)
	}
	info := video.NewInfo(video.FormatI420, 64, 48, video.Fraction{Num: 25, Den: 1})
	n.PushEvent(mixer.FormatEvent{Info: info})
	n.PushEvent(mixer.EOSEvent{})

	if n.Frames() != 2 {
		t.Errorf("frames = %d, want 2", n.Frames())
	}
	if n.Info() != info {
		t.Errorf("info = %s, want announced format", n.Info())
	}
	if !n.EOS() {
		t.Error("end of stream not recorded")
	}
}

func TestNullWithCaps(t *testing.T) {
	caps := video.FormatCaps(video.FormatI420)
	n := NewNullWithCaps(caps)
	if got := n.AllowedCaps(); len(got.Formats) != 1 || got.Formats[0] != video.FormatI420 {
		t.Errorf("caps = %+v, want I420 only", got)
	}
}

func TestBroadcast_DeliversFrames(t *testing.T) {
	b := NewBroadcast(video.AnyCaps())
	ch, cancel := b.Subscribe(4)
	defer cancel()

	f := testFrame(0, 40*1e6)
	if err := b.PushFrame(f); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-ch:
		if msg.Frame != f {
			t.Error("wrong frame delivered")
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestBroadcast_SlowSubscriberLosesFrames(t *testing.T) {
	b := NewBroadcast(video.AnyCaps())
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.PushFrame(testFrame(0, 40*1e6))
	b.PushFrame(testFrame(40*1e6, 40*1e6)) // buffer full, dropped

	msg := <-ch
	if msg.Frame == nil || msg.Frame.PTS != 0 {
		t.Error("first frame should survive")
	}
	select {
	case <-ch:
		t.Error("second frame should have been dropped")
	default:
	}
}

func TestBroadcast_EventsEvictFrames(t *testing.T) {
	b := NewBroadcast(video.AnyCaps())
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.PushFrame(testFrame(0, 40*1e6))
	b.PushEvent(mixer.EOSEvent{}) // evicts the buffered frame

	msg := <-ch
	if _, ok := msg.Event.(mixer.EOSEvent); !ok {
		t.Errorf("got %+v, want the end of stream event", msg)
	}
}

func TestBroadcast_LateSubscriberSeesFormat(t *testing.T) {
	b := NewBroadcast(video.AnyCaps())
	info := video.NewInfo(video.FormatI420, 64, 48, video.Fraction{Num: 25, Den: 1})
	b.PushEvent(mixer.FormatEvent{Info: info})

	ch, cancel := b.Subscribe(4)
	defer cancel()

	msg := <-ch
	fe, ok := msg.Event.(mixer.FormatEvent)
	if !ok || fe.Info != info {
		t.Errorf("got %+v, want replayed format event", msg)
	}
}

func TestBroadcast_CancelUnsubscribes(t *testing.T) {
	b := NewBroadcast(video.AnyCaps())
	ch, cancel := b.Subscribe(1)
	cancel()
	cancel() // idempotent

	if b.Subscribers() != 0 {
		t.Errorf("subscribers = %d, want 0", b.Subscribers())
	}
	if _, open := <-ch; open {
		t.Error("channel should be closed after cancel")
	}
}

type recordingReporter struct {
	calls      int
	proportion float64
	jitter     video.Time
	timestamp  video.Time
}

func (r *recordingReporter) UpdateQoS(proportion float64, jitter, timestamp video.Time) {
	r.calls++
	r.proportion = proportion
	r.jitter = jitter
	r.timestamp = timestamp
}

func TestMeter_ReportsPerFrame(t *testing.T) {
	rep := &recordingReporter{}
	m := NewMeter(NewNull(), rep)

	m.PushFrame(testFrame(0, 40*1e6))
	if rep.calls != 1 {
		t.Fatalf("reporter calls = %d, want 1", rep.calls)
	}
	if rep.timestamp != 0 {
		t.Errorf("timestamp = %d, want frame pts", rep.timestamp)
	}
	// The anchor frame defines on-time, so its jitter is near zero.
	if rep.jitter < 0 || rep.jitter > video.Time(5*time.Millisecond) {
		t.Errorf("anchor jitter = %d, want near zero", rep.jitter)
	}
}

func TestMeter_LateFrameRaisesProportion(t *testing.T) {
	rep := &recordingReporter{}
	m := NewMeter(NewNull(), rep)

	m.PushFrame(testFrame(0, 40*1e6))
	// The second frame is due 10ms after the first but arrives 30ms late.
	time.Sleep(40 * time.Millisecond)
	m.PushFrame(testFrame(10*1e6, 10*1e6))

	if rep.jitter < video.Time(20*time.Millisecond) {
		t.Errorf("jitter = %d, want the observed lateness", rep.jitter)
	}
	if rep.proportion <= 1.0 {
		t.Errorf("proportion = %f, want above 1 for a late stream", rep.proportion)
	}
}

func TestMeter_NilReporter(t *testing.T) {
	m := NewMeter(NewNull(), nil)
	if err := m.PushFrame(testFrame(0, 40*1e6)); err != nil {
		t.Fatal(err)
	}

	rep := &recordingReporter{}
	m.SetReporter(rep)
	m.PushFrame(testFrame(40*1e6, 40*1e6))
	if rep.calls != 1 {
		t.Errorf("reporter calls = %d, want 1 after SetReporter", rep.calls)
	}
}

func TestMeter_FormatEventReanchors(t *testing.T) {
	rep := &recordingReporter{}
	next := NewNull()
	m := NewMeter(next, rep)

	m.PushFrame(testFrame(0, 40*1e6))
	time.Sleep(20 * time.Millisecond)
	m.PushEvent(mixer.FormatEvent{Info: video.NewInfo(video.FormatI420, 64, 48, video.Fraction{Num: 25, Den: 1})})

	// Re-anchored: a frame with a fresh timebase is on time again.
	m.PushFrame(testFrame(0, 40*1e6))
	if rep.jitter > video.Time(5*time.Millisecond) {
		t.Errorf("jitter after re-anchor = %d, want near zero", rep.jitter)
	}
	if next.Frames() != 2 {
		t.Errorf("frames forwarded = %d, want 2", next.Frames())
	}
}

func TestBusBridge_RepublishesEvents(t *testing.T) {
	bus := events.New()
	next := NewNull()
	b := NewBusBridge(next, bus)

	negotiated := make(chan events.OutputNegotiatedEvent, 1)
	dropped := make(chan events.FrameDroppedEvent, 1)
	eos := make(chan events.EndOfStreamEvent, 1)
	defer bus.Subscribe(func(e events.OutputNegotiatedEvent) { negotiated <- e })()
	defer bus.Subscribe(func(e events.FrameDroppedEvent) { dropped <- e })()
	defer bus.Subscribe(func(e events.EndOfStreamEvent) { eos <- e })()

	info := video.NewInfo(video.FormatI420, 640, 480, video.Fraction{Num: 30, Den: 1})
	b.PushEvent(mixer.FormatEvent{Info: info})
	b.PushEvent(mixer.QoSDropEvent{
		Timestamp:  80 * 1e6,
		Jitter:     15 * 1e6,
		Proportion: 1.4,
		Processed:  10,
		Dropped:    2,
	})
	b.PushEvent(mixer.EOSEvent{})

	// The bus dispatches asynchronously.
	select {
	case e := <-negotiated:
		if e.Format != "I420" || e.Width != 640 {
			t.Errorf("negotiated = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("negotiation event not republished")
	}
	select {
	case e := <-dropped:
		if e.JitterNs != 15*1e6 || e.Dropped != 2 {
			t.Errorf("dropped = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("drop event not republished")
	}
	select {
	case <-eos:
	case <-time.After(2 * time.Second):
		t.Fatal("end of stream event not republished")
	}
	if !next.EOS() {
		t.Error("events must still reach the wrapped sink")
	}
}

func TestBusBridge_ForwardsFrames(t *testing.T) {
	next := NewNull()
	b := NewBusBridge(next, events.New())

	if err := b.PushFrame(testFrame(0, 40*1e6)); err != nil {
		t.Fatal(err)
	}
	if next.Frames() != 1 {
		t.Errorf("frames forwarded = %d, want 1", next.Frames())
	}
}
