package mixer

import (
	"testing"

	"github.com/smazurov/mixnode/internal/video"
)

func prepareCompositor(t *testing.T, bg Background, info video.Info) *Compositor {
	t.Helper()
	c := NewCompositor(bg)
	if err := c.Prepare(info); err != nil {
		t.Fatalf("Prepare(%s): %v", info.Format, err)
	}
	return c
}

func TestParseBackground(t *testing.T) {
	for _, name := range []string{"checker", "black", "white", "transparent"} {
		bg, err := ParseBackground(name)
		if err != nil {
			t.Errorf("ParseBackground(%q): %v", name, err)
		}
		if bg.String() != name {
			t.Errorf("round trip %q -> %q", name, bg.String())
		}
	}
	if _, err := ParseBackground("plaid"); err == nil {
		t.Error("unknown background should be rejected")
	}
}

func TestCompositor_BlackBackground(t *testing.T) {
	info := video.NewInfo(video.FormatI420, 16, 16, video.Fraction{Num: 25, Den: 1})
	c := prepareCompositor(t, BackgroundBlack, info)

	out := video.NewFrame(info)
	c.Composite(nil, out)

	if out.Data[0][0] != 16 {
		t.Errorf("luma = %d, want 16", out.Data[0][0])
	}
	if out.Data[1][0] != 128 || out.Data[2][0] != 128 {
		t.Errorf("chroma = %d/%d, want neutral 128", out.Data[1][0], out.Data[2][0])
	}
}

func TestCompositor_WhiteBackground(t *testing.T) {
	info := video.NewInfo(video.FormatI420, 16, 16, video.Fraction{Num: 25, Den: 1})
	c := prepareCompositor(t, BackgroundWhite, info)

	out := video.NewFrame(info)
	c.Composite(nil, out)

	if out.Data[0][0] != 240 {
		t.Errorf("luma = %d, want 240", out.Data[0][0])
	}
}

func TestCompositor_TransparentBackground(t *testing.T) {
	info := video.NewInfo(video.FormatBGRA, 8, 8, video.Fraction{Num: 25, Den: 1})
	c := prepareCompositor(t, BackgroundTransparent, info)

	out := video.NewFrame(info)
	// Dirty the canvas to prove it gets cleared.
	for i := range out.Data[0] {
		out.Data[0][i] = 0xFF
	}
	c.Composite(nil, out)

	for i, b := range out.Data[0] {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want zeroed canvas", i, b)
		}
	}
}

func TestCompositor_CheckerBackground(t *testing.T) {
	info := video.NewInfo(video.FormatI420, 32, 32, video.Fraction{Num: 25, Den: 1})
	c := prepareCompositor(t, BackgroundChecker, info)

	out := video.NewFrame(info)
	c.Composite(nil, out)

	// 8x8 cells: (0,0) and (8,8) share a shade, (8,0) has the other.
	if out.Data[0][0] == out.Data[0][8] {
		t.Error("adjacent checker cells should differ")
	}
	if out.Data[0][0] != out.Data[0][8*out.Stride[0]+8] {
		t.Error("diagonal checker cells should match")
	}
}

func TestCompositor_SkipsInvisiblePads(t *testing.T) {
	info := video.NewInfo(video.FormatI420, 16, 16, video.Fraction{Num: 25, Den: 1})
	c := prepareCompositor(t, BackgroundBlack, info)

	frame := video.NewFrame(info)
	for i := range frame.Data[0] {
		frame.Data[0][i] = 0xFF
	}

	pad := newPad("hidden", 0, NewQueue())
	pad.info = info
	pad.mixed = frame
	pad.props.Alpha = 0

	out := video.NewFrame(info)
	c.Composite([]*Pad{pad}, out)

	if out.Data[0][0] != 16 {
		t.Errorf("luma = %d, want untouched background 16", out.Data[0][0])
	}
}

func TestCompositor_PositionedPaint(t *testing.T) {
	info := video.NewInfo(video.FormatI420, 16, 16, video.Fraction{Num: 25, Den: 1})
	c := prepareCompositor(t, BackgroundBlack, info)

	small := video.NewInfo(video.FormatI420, 8, 8, video.Fraction{Num: 25, Den: 1})
	frame := video.NewFrame(small)
	for i := range frame.Data[0] {
		frame.Data[0][i] = 0xC8
	}

	pad := newPad("box", 0, NewQueue())
	pad.info = small
	pad.mixed = frame
	pad.props.XPos = 8
	pad.props.YPos = 8

	out := video.NewFrame(info)
	c.Composite([]*Pad{pad}, out)

	if out.Data[0][0] != 16 {
		t.Errorf("outside the box: luma = %d, want 16", out.Data[0][0])
	}
	if got := out.Data[0][8*out.Stride[0]+8]; got != 0xC8 {
		t.Errorf("inside the box: luma = %#x, want 0xC8", got)
	}
}
