package blend

import (
	"testing"

	"github.com/smazurov/mixnode/internal/video"
)

func newFilled(f video.Format, w, h int, val byte) *video.Frame {
	frame := video.NewFrame(video.NewInfo(f, w, h, video.Fraction{Num: 25, Den: 1}))
	for p := range frame.Data {
		for i := range frame.Data[p] {
			frame.Data[p][i] = val
		}
	}
	return frame
}

func TestKernels_AllNegotiableFormats(t *testing.T) {
	for _, f := range video.AllFormats {
		if _, ok := Kernels(f); !ok {
			t.Errorf("no kernel set for %s", f)
		}
	}
	if _, ok := Kernels(video.FormatUnknown); ok {
		t.Error("unknown format should have no kernels")
	}
}

func TestBlendPlanar_FullOpacityCopies(t *testing.T) {
	k, _ := Kernels(video.FormatI420)
	src := newFilled(video.FormatI420, 16, 8, 0xC8)
	dst := newFilled(video.FormatI420, 16, 8, 0x00)

	k.Blend(src, 0, 0, 1.0, dst)

	if dst.Data[0][0] != 0xC8 {
		t.Errorf("luma = %#x, want source value 0xC8", dst.Data[0][0])
	}
	if dst.Data[1][0] != 0xC8 {
		t.Errorf("chroma not blended: %#x", dst.Data[1][0])
	}
}

func TestBlendPlanar_HalfOpacityMixes(t *testing.T) {
	k, _ := Kernels(video.FormatI420)
	src := newFilled(video.FormatI420, 16, 8, 200)
	dst := newFilled(video.FormatI420, 16, 8, 0)

	k.Blend(src, 0, 0, 0.5, dst)

	if got := dst.Data[0][0]; got != 100 {
		t.Errorf("luma = %d, want 100 (half of 200)", got)
	}
}

func TestBlendPlanar_NegativeOffsetClipped(t *testing.T) {
	k, _ := Kernels(video.FormatI420)
	src := newFilled(video.FormatI420, 8, 8, 0xFF)
	dst := newFilled(video.FormatI420, 16, 16, 0x00)

	k.Blend(src, -4, -4, 1.0, dst)

	// Only the surviving 4x4 of the source lands at the dst origin.
	if dst.Data[0][0] != 0xFF {
		t.Error("overlap region not painted")
	}
	if dst.Data[0][4] != 0x00 {
		t.Error("pixels past the clipped source were painted")
	}
	if dst.Data[0][4*dst.Stride[0]] != 0x00 {
		t.Error("rows past the clipped source were painted")
	}
}

func TestBlendPlanar_NoOverlapIsNoop(t *testing.T) {
	k, _ := Kernels(video.FormatI420)
	src := newFilled(video.FormatI420, 8, 8, 0xFF)
	dst := newFilled(video.FormatI420, 16, 16, 0x00)

	k.Blend(src, 16, 0, 1.0, dst)
	k.Blend(src, 0, -8, 1.0, dst)

	for i, b := range dst.Data[0] {
		if b != 0 {
			t.Fatalf("byte %d painted with no overlap", i)
		}
	}
}

func TestBlendPackedAlpha_PerPixelAlpha(t *testing.T) {
	k, _ := Kernels(video.FormatBGRA)
	src := newFilled(video.FormatBGRA, 4, 2, 0)
	dst := newFilled(video.FormatBGRA, 4, 2, 0)

	px := src.Data[0]
	px[0], px[1], px[2], px[3] = 255, 255, 255, 128 // half-transparent white

	k.Blend(src, 0, 0, 1.0, dst)

	out := dst.Data[0]
	if out[0] != 128 {
		t.Errorf("blue = %d, want 128 (scaled by source alpha)", out[0])
	}
	if out[3] != 0xff {
		t.Errorf("blend forces opaque destination, alpha = %d", out[3])
	}
}

func TestOverlayPackedAlpha_KeepsDestinationAlpha(t *testing.T) {
	k, _ := Kernels(video.FormatBGRA)
	src := newFilled(video.FormatBGRA, 4, 2, 0)
	dst := newFilled(video.FormatBGRA, 4, 2, 0) // fully transparent canvas

	// First pixel opaque red, second fully transparent.
	src.Data[0][0], src.Data[0][1], src.Data[0][2], src.Data[0][3] = 0, 0, 255, 255

	k.Overlay(src, 0, 0, 1.0, dst)

	out := dst.Data[0]
	if out[2] != 255 || out[3] != 255 {
		t.Errorf("opaque source pixel -> R/A %d/%d, want 255/255", out[2], out[3])
	}
	if out[7] != 0 {
		t.Errorf("transparent over transparent -> alpha %d, want 0", out[7])
	}
}

func TestFillColor_PlanarTargetsRightPlanes(t *testing.T) {
	k, _ := Kernels(video.FormatYV12)
	dst := newFilled(video.FormatYV12, 16, 8, 0)

	k.FillColor(dst, 16, 100, 200)

	// YV12 stores V before U.
	if dst.Data[0][0] != 16 {
		t.Errorf("Y plane = %d, want 16", dst.Data[0][0])
	}
	if dst.Data[1][0] != 200 {
		t.Errorf("first chroma plane = %d, want V 200", dst.Data[1][0])
	}
	if dst.Data[2][0] != 100 {
		t.Errorf("second chroma plane = %d, want U 100", dst.Data[2][0])
	}
}

func TestFillColor_NV12Interleaves(t *testing.T) {
	k, _ := Kernels(video.FormatNV12)
	dst := newFilled(video.FormatNV12, 16, 8, 0)

	k.FillColor(dst, 16, 100, 200)

	if dst.Data[1][0] != 100 || dst.Data[1][1] != 200 {
		t.Errorf("chroma pair = %d/%d, want U 100, V 200", dst.Data[1][0], dst.Data[1][1])
	}
}

func TestFillColor_PackedRGBConverts(t *testing.T) {
	k, _ := Kernels(video.FormatBGRA)
	dst := newFilled(video.FormatBGRA, 4, 2, 0x55)

	k.FillColor(dst, 16, 128, 128) // limited-range black

	out := dst.Data[0]
	if out[0] != 0 || out[1] != 0 || out[2] != 0 {
		t.Errorf("B/G/R = %d/%d/%d, want 0/0/0", out[0], out[1], out[2])
	}
	if out[3] != 0xff {
		t.Errorf("alpha = %d, want opaque", out[3])
	}
}

func TestFillChecker_PackedSetsOpaqueAlpha(t *testing.T) {
	k, _ := Kernels(video.FormatBGRA)
	dst := newFilled(video.FormatBGRA, 16, 16, 0)

	k.FillChecker(dst)

	if dst.Data[0][3] != 0xff {
		t.Errorf("checker alpha = %d, want opaque", dst.Data[0][3])
	}
	if dst.Data[0][0] == dst.Data[0][8*4] {
		t.Error("adjacent checker cells should differ")
	}
}
