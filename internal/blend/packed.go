package blend

import (
	"github.com/smazurov/mixnode/internal/convert"
	"github.com/smazurov/mixnode/internal/video"
)

const checkerDark, checkerLight = 0x4c, 0x66

func blendPackedAlpha(fi video.FormatInfo) BlendFunc {
	aOff, c0, c1, c2 := fi.AOff, fi.C0Off, fi.C1Off, fi.C2Off
	ps := fi.PixelStride[0]

	return func(src *video.Frame, x, y int, alpha float64, dst *video.Frame) {
		sx, sy, dx, dy, w, h, ok := clipRect(src, x, y, dst)
		if !ok {
			return
		}
		op := int32(alpha * 256)
		for row := 0; row < h; row++ {
			s := src.Data[0][(sy+row)*src.Stride[0]+sx*ps:]
			d := dst.Data[0][(dy+row)*dst.Stride[0]+dx*ps:]
			for col := 0; col < w; col++ {
				so, do := col*ps, col*ps
				a := (int32(s[so+aOff]) * op) >> 8
				ia := 255 - a
				d[do+c0] = byte((int32(d[do+c0])*ia + int32(s[so+c0])*a) / 255)
				d[do+c1] = byte((int32(d[do+c1])*ia + int32(s[so+c1])*a) / 255)
				d[do+c2] = byte((int32(d[do+c2])*ia + int32(s[so+c2])*a) / 255)
				d[do+aOff] = 0xff
			}
		}
	}
}

// overlayPackedAlpha is Porter-Duff over with destination alpha preserved,
// used when compositing onto a transparent background canvas.
func overlayPackedAlpha(fi video.FormatInfo) BlendFunc {
	aOff, c0, c1, c2 := fi.AOff, fi.C0Off, fi.C1Off, fi.C2Off
	ps := fi.PixelStride[0]

	return func(src *video.Frame, x, y int, alpha float64, dst *video.Frame) {
		sx, sy, dx, dy, w, h, ok := clipRect(src, x, y, dst)
		if !ok {
			return
		}
		op := int32(alpha * 256)
		for row := 0; row < h; row++ {
			s := src.Data[0][(sy+row)*src.Stride[0]+sx*ps:]
			d := dst.Data[0][(dy+row)*dst.Stride[0]+dx*ps:]
			for col := 0; col < w; col++ {
				so, do := col*ps, col*ps
				sa := (int32(s[so+aOff]) * op) >> 8
				da := int32(d[do+aOff])
				rest := da * (255 - sa) / 255
				oa := sa + rest
				if oa == 0 {
					d[do+aOff] = 0
					continue
				}
				d[do+c0] = byte((int32(s[so+c0])*sa + int32(d[do+c0])*rest) / oa)
				d[do+c1] = byte((int32(s[so+c1])*sa + int32(d[do+c1])*rest) / oa)
				d[do+c2] = byte((int32(s[so+c2])*sa + int32(d[do+c2])*rest) / oa)
				d[do+aOff] = byte(oa)
			}
		}
	}
}

func blendPackedOpaque(fi video.FormatInfo) BlendFunc {
	c0, c1, c2 := fi.C0Off, fi.C1Off, fi.C2Off
	ps := fi.PixelStride[0]

	return func(src *video.Frame, x, y int, alpha float64, dst *video.Frame) {
		sx, sy, dx, dy, w, h, ok := clipRect(src, x, y, dst)
		if !ok {
			return
		}
		a := int32(alpha * 256)
		ia := 256 - a
		for row := 0; row < h; row++ {
			s := src.Data[0][(sy+row)*src.Stride[0]+sx*ps:]
			d := dst.Data[0][(dy+row)*dst.Stride[0]+dx*ps:]
			for col := 0; col < w; col++ {
				so, do := col*ps, col*ps
				d[do+c0] = byte((int32(d[do+c0])*ia + int32(s[so+c0])*a) >> 8)
				d[do+c1] = byte((int32(d[do+c1])*ia + int32(s[so+c1])*a) >> 8)
				d[do+c2] = byte((int32(d[do+c2])*ia + int32(s[so+c2])*a) >> 8)
			}
		}
	}
}

func fillCheckerPacked(fi video.FormatInfo) FillCheckerFunc {
	ps := fi.PixelStride[0]

	return func(dst *video.Frame) {
		var dark, light [3]byte
		if fi.YUV {
			dark = [3]byte{checkerDark, 128, 128}
			light = [3]byte{checkerLight, 128, 128}
		} else {
			dr, dg, db := convert.YUVToRGB(checkerDark, 128, 128, video.Colorimetry{})
			lr, lg, lb := convert.YUVToRGB(checkerLight, 128, 128, video.Colorimetry{})
			dark = [3]byte{dr, dg, db}
			light = [3]byte{lr, lg, lb}
		}
		for y := 0; y < dst.Info.Height; y++ {
			row := dst.Data[0][y*dst.Stride[0]:]
			for x := 0; x < dst.Info.Width; x++ {
				c := dark
				if ((x>>3)^(y>>3))&1 == 1 {
					c = light
				}
				px := row[x*ps:]
				if fi.AOff >= 0 {
					px[fi.AOff] = 0xff
				} else if fi.PadOff >= 0 {
					px[fi.PadOff] = 0xff
				}
				px[fi.C0Off] = c[0]
				px[fi.C1Off] = c[1]
				px[fi.C2Off] = c[2]
			}
		}
	}
}

func fillColorPacked(fi video.FormatInfo) FillColorFunc {
	ps := fi.PixelStride[0]

	return func(dst *video.Frame, y, u, v byte) {
		c0, c1, c2 := y, u, v
		if !fi.YUV {
			c0, c1, c2 = convert.YUVToRGB(y, u, v, video.Colorimetry{})
		}
		for row := 0; row < dst.Info.Height; row++ {
			line := dst.Data[0][row*dst.Stride[0]:]
			for x := 0; x < dst.Info.Width; x++ {
				px := line[x*ps:]
				if fi.AOff >= 0 {
					px[fi.AOff] = 0xff
				} else if fi.PadOff >= 0 {
					px[fi.PadOff] = 0xff
				}
				px[fi.C0Off] = c0
				px[fi.C1Off] = c1
				px[fi.C2Off] = c2
			}
		}
	}
}
