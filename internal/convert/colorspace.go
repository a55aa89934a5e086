package convert

import "github.com/smazurov/mixnode/internal/video"

// Fixed-point (8-bit fraction) colorspace coefficients for BT.601 and
// BT.709, in limited and full range variants.

func clamp8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// YUVToRGB converts one pixel from YUV to RGB using the given colorimetry.
func YUVToRGB(y, u, v byte, col video.Colorimetry) (byte, byte, byte) {
	d := int32(u) - 128
	e := int32(v) - 128

	var c, r, g, b int32
	if col.FullRange {
		c = int32(y) * 256
	} else {
		c = (int32(y) - 16) * 298
	}

	switch col.Matrix {
	case video.MatrixBT709:
		if col.FullRange {
			r = c + 403*e + 128
			g = c - 48*d - 120*e + 128
			b = c + 475*d + 128
		} else {
			r = c + 459*e + 128
			g = c - 55*d - 136*e + 128
			b = c + 541*d + 128
		}
	default: // BT.601
		if col.FullRange {
			r = c + 359*e + 128
			g = c - 88*d - 183*e + 128
			b = c + 454*d + 128
		} else {
			r = c + 409*e + 128
			g = c - 100*d - 208*e + 128
			b = c + 516*d + 128
		}
	}
	return clamp8(r >> 8), clamp8(g >> 8), clamp8(b >> 8)
}

// RGBToYUV converts one pixel from RGB to YUV using the given colorimetry.
func RGBToYUV(r, g, b byte, col video.Colorimetry) (byte, byte, byte) {
	ri, gi, bi := int32(r), int32(g), int32(b)

	var y, u, v int32
	switch col.Matrix {
	case video.MatrixBT709:
		if col.FullRange {
			y = (54*ri + 183*gi + 18*bi + 128) >> 8
			u = (-29*ri - 99*gi + 128*bi + 128) >> 8
			v = (128*ri - 116*gi - 12*bi + 128) >> 8
		} else {
			y = ((47*ri + 157*gi + 16*bi + 128) >> 8) + 16
			u = (-26*ri - 87*gi + 112*bi + 128) >> 8
			v = (112*ri - 102*gi - 10*bi + 128) >> 8
		}
	default: // BT.601
		if col.FullRange {
			y = (77*ri + 150*gi + 29*bi + 128) >> 8
			u = (-43*ri - 85*gi + 128*bi + 128) >> 8
			v = (128*ri - 107*gi - 21*bi + 128) >> 8
		} else {
			y = ((66*ri + 129*gi + 25*bi + 128) >> 8) + 16
			u = (-38*ri - 74*gi + 112*bi + 128) >> 8
			v = (112*ri - 94*gi - 18*bi + 128) >> 8
		}
	}
	return clamp8(y), clamp8(u + 128), clamp8(v + 128)
}
