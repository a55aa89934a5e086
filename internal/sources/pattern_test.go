package sources

import (
	"context"
	"testing"
	"time"

	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

func patternConfig(p Pattern) Config {
	return Config{
		Pattern: p,
		Info:    video.NewInfo(video.FormatI420, 64, 48, video.Fraction{Num: 25, Den: 1}),
	}
}

func TestParsePattern(t *testing.T) {
	for _, name := range []string{"bars", "solid", "snow", "moving-box", "checker"} {
		p, err := ParsePattern(name)
		if err != nil {
			t.Errorf("ParsePattern(%q): %v", name, err)
		}
		if p.String() != name {
			t.Errorf("round trip %q -> %q", name, p.String())
		}
	}
	if _, err := ParsePattern("plasma"); err == nil {
		t.Error("unknown pattern should be rejected")
	}
}

func TestNewPattern_Validation(t *testing.T) {
	bad := patternConfig(PatternBars)
	bad.Info.Width = 0
	if _, err := NewPattern(bad); err == nil {
		t.Error("zero width should be rejected")
	}

	bad = patternConfig(PatternBars)
	bad.Info.FPS = video.Fraction{}
	if _, err := NewPattern(bad); err == nil {
		t.Error("missing frame rate should be rejected")
	}
}

func TestPattern_RenderTiming(t *testing.T) {
	s, err := NewPattern(patternConfig(PatternBars))
	if err != nil {
		t.Fatal(err)
	}

	f0, err := s.Render(0)
	if err != nil {
		t.Fatal(err)
	}
	f3, err := s.Render(3)
	if err != nil {
		t.Fatal(err)
	}

	if f0.PTS != 0 || f0.Duration != 40*1e6 {
		t.Errorf("frame 0: pts/dur = %d/%d, want 0/40ms", f0.PTS, f0.Duration)
	}
	if f3.PTS != 120*1e6 {
		t.Errorf("frame 3: pts = %d, want 120ms", f3.PTS)
	}
}

func TestPattern_SolidFill(t *testing.T) {
	cfg := patternConfig(PatternSolid)
	cfg.Solid = [3]byte{16, 100, 200}
	s, err := NewPattern(cfg)
	if err != nil {
		t.Fatal(err)
	}

	f, err := s.Render(0)
	if err != nil {
		t.Fatal(err)
	}
	if f.Data[0][0] != 16 || f.Data[1][0] != 100 || f.Data[2][0] != 200 {
		t.Errorf("solid fill Y/U/V = %d/%d/%d, want 16/100/200",
			f.Data[0][0], f.Data[1][0], f.Data[2][0])
	}
}

func TestPattern_BarsSpanLevels(t *testing.T) {
	s, err := NewPattern(patternConfig(PatternBars))
	if err != nil {
		t.Fatal(err)
	}

	f, err := s.Render(0)
	if err != nil {
		t.Fatal(err)
	}
	row := f.Data[0][:f.Info.Width]
	if row[0] != 180 {
		t.Errorf("leftmost bar luma = %d, want 180 (75%% white)", row[0])
	}
	if row[f.Info.Width-1] != 16 {
		t.Errorf("rightmost bar luma = %d, want 16 (black)", row[f.Info.Width-1])
	}
}

func TestPattern_ConvertsToRequestedFormat(t *testing.T) {
	cfg := patternConfig(PatternBars)
	cfg.Info.Format = video.FormatBGRA
	s, err := NewPattern(cfg)
	if err != nil {
		t.Fatal(err)
	}

	f, err := s.Render(0)
	if err != nil {
		t.Fatal(err)
	}
	if f.Info.Format != video.FormatBGRA {
		t.Fatalf("rendered format = %s, want BGRA", f.Info.Format)
	}
	if f.Data[0][3] != 0xff {
		t.Errorf("alpha = %d, want opaque", f.Data[0][3])
	}
}

func TestPattern_MovingBoxMoves(t *testing.T) {
	s, err := NewPattern(patternConfig(PatternMovingBox))
	if err != nil {
		t.Fatal(err)
	}

	f0, _ := s.Render(0)
	f40, _ := s.Render(40)

	diff := 0
	for i := range f0.Data[0] {
		if f0.Data[0][i] != f40.Data[0][i] {
			diff++
		}
	}
	if diff == 0 {
		t.Error("box did not move between distant frames")
	}
}

func TestPattern_RunBoundedStream(t *testing.T) {
	cfg := patternConfig(PatternBars)
	cfg.Info.FPS = video.Fraction{Num: 100, Den: 1} // keep the ticker fast
	cfg.Frames = 3
	s, err := NewPattern(cfg)
	if err != nil {
		t.Fatal(err)
	}

	q := mixer.NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.Run(ctx, q); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i := 0; i < 3; i++ {
		f, ok := q.TryPop()
		if !ok {
			t.Fatalf("frame %d missing from queue", i)
		}
		if want := video.Time(i) * 10 * 1e6; f.PTS != want {
			t.Errorf("frame %d pts = %d, want %d", i, f.PTS, want)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("queue should be drained")
	}
	if !q.AtEOS() {
		t.Error("queue should be at end of stream after Run returns")
	}
}

func TestPattern_RunCancelled(t *testing.T) {
	cfg := patternConfig(PatternBars)
	s, err := NewPattern(cfg)
	if err != nil {
		t.Fatal(err)
	}

	q := mixer.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx, q); err != context.Canceled {
		t.Errorf("Run after cancel = %v, want context.Canceled", err)
	}
	if !q.AtEOS() {
		t.Error("cancelled source still closes its queue")
	}
}
