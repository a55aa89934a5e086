// Package blend provides the per-format compositing kernels the mixer
// dispatches to: alpha blending, alpha-preserving overlay, and canvas fill
// routines. Kernels are resolved once per negotiated output format and
// cached, never re-dispatched per pixel.
package blend

import "github.com/smazurov/mixnode/internal/video"

// BlendFunc composites src onto dst at position (x, y) with the given
// opacity. Source regions falling outside the destination are clipped.
type BlendFunc func(src *video.Frame, x, y int, alpha float64, dst *video.Frame)

// FillCheckerFunc paints the destination with the background checkerboard.
type FillCheckerFunc func(dst *video.Frame)

// FillColorFunc fills the destination with a solid color given as Y, U, V
// components; RGB kernels convert internally.
type FillColorFunc func(dst *video.Frame, y, u, v byte)

// KernelSet bundles the routines for one output pixel format.
//
// Blend composites against an opaque background: destination alpha ends up
// fully opaque. Overlay is Porter-Duff over with destination alpha
// preserved and accumulated, for compositing onto a transparent canvas.
// For formats without alpha the two are the same function.
type KernelSet struct {
	Blend       BlendFunc
	Overlay     BlendFunc
	FillChecker FillCheckerFunc
	FillColor   FillColorFunc
}

// Kernels returns the kernel set for an output format. ok is false when the
// format has no compositing support, which makes it non-negotiable as an
// output format.
func Kernels(f video.Format) (KernelSet, bool) {
	fi, ok := video.Describe(f)
	if !ok {
		return KernelSet{}, false
	}

	switch {
	case fi.Packed && fi.HasAlpha:
		return KernelSet{
			Blend:       blendPackedAlpha(fi),
			Overlay:     overlayPackedAlpha(fi),
			FillChecker: fillCheckerPacked(fi),
			FillColor:   fillColorPacked(fi),
		}, true
	case fi.Packed:
		b := blendPackedOpaque(fi)
		return KernelSet{
			Blend:       b,
			Overlay:     b,
			FillChecker: fillCheckerPacked(fi),
			FillColor:   fillColorPacked(fi),
		}, true
	default:
		b := blendPlanar(f)
		return KernelSet{
			Blend:       b,
			Overlay:     b,
			FillChecker: fillCheckerPlanar(f),
			FillColor:   fillColorPlanar(f),
		}, true
	}
}

// clipRect computes the overlapping region between a src frame placed at
// (x, y) and the dst frame. Returned are the src origin, dst origin and the
// overlap size; ok is false when the frames do not overlap at all.
func clipRect(src *video.Frame, x, y int, dst *video.Frame) (sx, sy, dx, dy, w, h int, ok bool) {
	sx, sy = 0, 0
	dx, dy = x, y
	w, h = src.Info.Width, src.Info.Height

	if dx < 0 {
		sx = -dx
		w += dx
		dx = 0
	}
	if dy < 0 {
		sy = -dy
		h += dy
		dy = 0
	}
	if dx+w > dst.Info.Width {
		w = dst.Info.Width - dx
	}
	if dy+h > dst.Info.Height {
		h = dst.Info.Height - dy
	}
	if w <= 0 || h <= 0 {
		return 0, 0, 0, 0, 0, 0, false
	}
	return sx, sy, dx, dy, w, h, true
}
