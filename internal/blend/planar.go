package blend

import "github.com/smazurov/mixnode/internal/video"

// Planar formats have no per-pixel alpha, so blend and overlay collapse to
// the same scalar-opacity mix applied plane by plane.
func blendPlanar(f video.Format) BlendFunc {
	fi, _ := video.Describe(f)

	return func(src *video.Frame, x, y int, alpha float64, dst *video.Frame) {
		sx, sy, dx, dy, w, h, ok := clipRect(src, x, y, dst)
		if !ok {
			return
		}
		a := int32(alpha * 256)
		ia := 256 - a
		for p := 0; p < fi.Planes; p++ {
			ps := fi.PixelStride[p]
			pw := (w >> fi.HSub[p]) * ps
			ph := h >> fi.VSub[p]
			sxo := (sx >> fi.HSub[p]) * ps
			dxo := (dx >> fi.HSub[p]) * ps
			syo := sy >> fi.VSub[p]
			dyo := dy >> fi.VSub[p]
			for row := 0; row < ph; row++ {
				s := src.Data[p][(syo+row)*src.Stride[p]+sxo:]
				d := dst.Data[p][(dyo+row)*dst.Stride[p]+dxo:]
				for i := 0; i < pw; i++ {
					d[i] = byte((int32(d[i])*ia + int32(s[i])*a) >> 8)
				}
			}
		}
	}
}

func fillCheckerPlanar(f video.Format) FillCheckerFunc {
	fi, _ := video.Describe(f)

	return func(dst *video.Frame) {
		// Checker on luma, neutral chroma.
		for y := 0; y < dst.Info.PlaneHeight(0); y++ {
			row := dst.Data[0][y*dst.Stride[0]:]
			for x := 0; x < dst.Info.PlaneWidth(0); x++ {
				if ((x>>3)^(y>>3))&1 == 1 {
					row[x] = checkerLight
				} else {
					row[x] = checkerDark
				}
			}
		}
		for p := 1; p < fi.Planes; p++ {
			fillPlane(dst, p, 128)
		}
	}
}

func fillColorPlanar(f video.Format) FillColorFunc {
	fi, _ := video.Describe(f)

	return func(dst *video.Frame, y, u, v byte) {
		fillPlane(dst, 0, y)
		switch f {
		case video.FormatNV12:
			fillChromaInterleaved(dst, u, v)
		case video.FormatNV21:
			fillChromaInterleaved(dst, v, u)
		case video.FormatYV12:
			fillPlane(dst, 1, v)
			fillPlane(dst, 2, u)
		default:
			if fi.Planes >= 3 {
				fillPlane(dst, 1, u)
				fillPlane(dst, 2, v)
			}
		}
	}
}

func fillPlane(dst *video.Frame, p int, val byte) {
	h := dst.Info.PlaneHeight(p)
	w := dst.Info.PlaneStride(p)
	for y := 0; y < h; y++ {
		row := dst.Data[p][y*dst.Stride[p]:]
		for x := 0; x < w; x++ {
			row[x] = val
		}
	}
}

func fillChromaInterleaved(dst *video.Frame, first, second byte) {
	h := dst.Info.PlaneHeight(1)
	w := dst.Info.PlaneStride(1)
	for y := 0; y < h; y++ {
		row := dst.Data[1][y*dst.Stride[1]:]
		for x := 0; x+1 < w; x += 2 {
			row[x] = first
			row[x+1] = second
		}
	}
}
