package convert

import "github.com/smazurov/mixnode/internal/video"

// Rows move through the converter as packed 4-byte pixels in component
// order A, C0, C1, C2 where the C components are Y/U/V for YUV formats and
// R/G/B for RGB formats. Unpack and pack are per-row so the working set
// stays two rows regardless of frame size.

// unpackRow expands row y of src into dst (4 bytes per pixel) in the
// source's native color space.
func unpackRow(dst []byte, src *video.Frame, y int) {
	fi, _ := video.Describe(src.Info.Format)
	w := src.Info.Width

	if fi.Packed {
		row := src.Data[0][y*src.Stride[0]:]
		ps := fi.PixelStride[0]
		for x := 0; x < w; x++ {
			px := row[x*ps:]
			o := x * 4
			if fi.AOff >= 0 {
				dst[o] = px[fi.AOff]
			} else {
				dst[o] = 0xff
			}
			dst[o+1] = px[fi.C0Off]
			dst[o+2] = px[fi.C1Off]
			dst[o+3] = px[fi.C2Off]
		}
		return
	}

	// Planar and semi-planar YUV.
	yRow := src.Data[0][y*src.Stride[0]:]
	uPlane, vPlane := 1, 2
	if src.Info.Format == video.FormatYV12 {
		uPlane, vPlane = 2, 1
	}

	switch src.Info.Format {
	case video.FormatNV12, video.FormatNV21:
		cRow := src.Data[1][(y>>1)*src.Stride[1]:]
		uOff, vOff := 0, 1
		if src.Info.Format == video.FormatNV21 {
			uOff, vOff = 1, 0
		}
		for x := 0; x < w; x++ {
			o := x * 4
			c := (x >> 1) * 2
			dst[o] = 0xff
			dst[o+1] = yRow[x]
			dst[o+2] = cRow[c+uOff]
			dst[o+3] = cRow[c+vOff]
		}
	case video.FormatY444:
		uRow := src.Data[1][y*src.Stride[1]:]
		vRow := src.Data[2][y*src.Stride[2]:]
		for x := 0; x < w; x++ {
			o := x * 4
			dst[o] = 0xff
			dst[o+1] = yRow[x]
			dst[o+2] = uRow[x]
			dst[o+3] = vRow[x]
		}
	default: // I420, YV12
		uRow := src.Data[uPlane][(y>>1)*src.Stride[uPlane]:]
		vRow := src.Data[vPlane][(y>>1)*src.Stride[vPlane]:]
		for x := 0; x < w; x++ {
			o := x * 4
			dst[o] = 0xff
			dst[o+1] = yRow[x]
			dst[o+2] = uRow[x>>1]
			dst[o+3] = vRow[x>>1]
		}
	}
}

// packRow writes src (4 bytes per pixel, destination color space) into row
// y of dst. Subsampled chroma planes take the top-left sample of each 2x2
// block, written on even rows.
func packRow(dst *video.Frame, src []byte, y int) {
	fi, _ := video.Describe(dst.Info.Format)
	w := dst.Info.Width

	if fi.Packed {
		row := dst.Data[0][y*dst.Stride[0]:]
		ps := fi.PixelStride[0]
		for x := 0; x < w; x++ {
			px := row[x*ps:]
			o := x * 4
			if fi.AOff >= 0 {
				px[fi.AOff] = src[o]
			} else if fi.PadOff >= 0 {
				px[fi.PadOff] = 0xff
			}
			px[fi.C0Off] = src[o+1]
			px[fi.C1Off] = src[o+2]
			px[fi.C2Off] = src[o+3]
		}
		return
	}

	yRow := dst.Data[0][y*dst.Stride[0]:]
	uPlane, vPlane := 1, 2
	if dst.Info.Format == video.FormatYV12 {
		uPlane, vPlane = 2, 1
	}

	switch dst.Info.Format {
	case video.FormatNV12, video.FormatNV21:
		for x := 0; x < w; x++ {
			yRow[x] = src[x*4+1]
		}
		if y&1 == 0 {
			cRow := dst.Data[1][(y>>1)*dst.Stride[1]:]
			uOff, vOff := 0, 1
			if dst.Info.Format == video.FormatNV21 {
				uOff, vOff = 1, 0
			}
			for x := 0; x < w; x += 2 {
				c := (x >> 1) * 2
				cRow[c+uOff] = src[x*4+2]
				cRow[c+vOff] = src[x*4+3]
			}
		}
	case video.FormatY444:
		uRow := dst.Data[1][y*dst.Stride[1]:]
		vRow := dst.Data[2][y*dst.Stride[2]:]
		for x := 0; x < w; x++ {
			yRow[x] = src[x*4+1]
			uRow[x] = src[x*4+2]
			vRow[x] = src[x*4+3]
		}
	default: // I420, YV12
		for x := 0; x < w; x++ {
			yRow[x] = src[x*4+1]
		}
		if y&1 == 0 {
			uRow := dst.Data[uPlane][(y>>1)*dst.Stride[uPlane]:]
			vRow := dst.Data[vPlane][(y>>1)*dst.Stride[vPlane]:]
			for x := 0; x < w; x += 2 {
				uRow[x>>1] = src[x*4+2]
				vRow[x>>1] = src[x*4+3]
			}
		}
	}
}
