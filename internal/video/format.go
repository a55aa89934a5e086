// Package video defines the raw-video data model shared by the mixer core:
// pixel formats, stream descriptors, frames, segments and capability sets.
package video

// Format identifies a raw pixel format.
type Format int

const (
	FormatUnknown Format = iota
	FormatAYUV           // packed YUV 4:4:4 with alpha, A-Y-U-V byte order
	FormatARGB
	FormatBGRA
	FormatABGR
	FormatRGBA
	FormatXRGB // packed RGB with a padding byte, alpha ignored
	FormatXBGR
	FormatRGBX
	FormatBGRX
	FormatRGB // packed RGB, 3 bytes per pixel
	FormatBGR
	FormatI420 // planar YUV 4:2:0 (Y, U, V)
	FormatYV12 // planar YUV 4:2:0 (Y, V, U)
	FormatNV12 // semi-planar YUV 4:2:0 (Y, interleaved UV)
	FormatNV21 // semi-planar YUV 4:2:0 (Y, interleaved VU)
	FormatY444 // planar YUV 4:4:4
)

// FormatInfo describes the memory layout of a pixel format.
//
// For packed 4-byte formats the component offsets give the byte position of
// alpha and the three color components within each pixel. AOff is -1 for
// formats without an alpha byte; for the padded x-formats PadOff marks the
// ignored byte.
type FormatInfo struct {
	Name   string
	Planes int
	// PixelStride is bytes per pixel for each plane.
	PixelStride [3]int
	// HSub and VSub are chroma subsampling shifts per plane
	// (plane width = width >> HSub).
	HSub, VSub [3]int
	HasAlpha   bool
	Packed     bool
	YUV        bool

	AOff, PadOff        int
	C0Off, C1Off, C2Off int // R,G,B for RGB formats; Y,U,V for YUV formats
}

var formatInfos = map[Format]FormatInfo{
	FormatAYUV: {Name: "AYUV", Planes: 1, PixelStride: [3]int{4}, HasAlpha: true, Packed: true, YUV: true,
		AOff: 0, PadOff: -1, C0Off: 1, C1Off: 2, C2Off: 3},
	FormatARGB: {Name: "ARGB", Planes: 1, PixelStride: [3]int{4}, HasAlpha: true, Packed: true,
		AOff: 0, PadOff: -1, C0Off: 1, C1Off: 2, C2Off: 3},
	FormatBGRA: {Name: "BGRA", Planes: 1, PixelStride: [3]int{4}, HasAlpha: true, Packed: true,
		AOff: 3, PadOff: -1, C0Off: 2, C1Off: 1, C2Off: 0},
	FormatABGR: {Name: "ABGR", Planes: 1, PixelStride: [3]int{4}, HasAlpha: true, Packed: true,
		AOff: 0, PadOff: -1, C0Off: 3, C1Off: 2, C2Off: 1},
	FormatRGBA: {Name: "RGBA", Planes: 1, PixelStride: [3]int{4}, HasAlpha: true, Packed: true,
		AOff: 3, PadOff: -1, C0Off: 0, C1Off: 1, C2Off: 2},
	FormatXRGB: {Name: "xRGB", Planes: 1, PixelStride: [3]int{4}, Packed: true,
		AOff: -1, PadOff: 0, C0Off: 1, C1Off: 2, C2Off: 3},
	FormatXBGR: {Name: "xBGR", Planes: 1, PixelStride: [3]int{4}, Packed: true,
		AOff: -1, PadOff: 0, C0Off: 3, C1Off: 2, C2Off: 1},
	FormatRGBX: {Name: "RGBx", Planes: 1, PixelStride: [3]int{4}, Packed: true,
		AOff: -1, PadOff: 3, C0Off: 0, C1Off: 1, C2Off: 2},
	FormatBGRX: {Name: "BGRx", Planes: 1, PixelStride: [3]int{4}, Packed: true,
		AOff: -1, PadOff: 3, C0Off: 2, C1Off: 1, C2Off: 0},
	FormatRGB: {Name: "RGB", Planes: 1, PixelStride: [3]int{3}, Packed: true,
		AOff: -1, PadOff: -1, C0Off: 0, C1Off: 1, C2Off: 2},
	FormatBGR: {Name: "BGR", Planes: 1, PixelStride: [3]int{3}, Packed: true,
		AOff: -1, PadOff: -1, C0Off: 2, C1Off: 1, C2Off: 0},
	FormatI420: {Name: "I420", Planes: 3, PixelStride: [3]int{1, 1, 1}, YUV: true,
		HSub: [3]int{0, 1, 1}, VSub: [3]int{0, 1, 1}, AOff: -1, PadOff: -1},
	FormatYV12: {Name: "YV12", Planes: 3, PixelStride: [3]int{1, 1, 1}, YUV: true,
		HSub: [3]int{0, 1, 1}, VSub: [3]int{0, 1, 1}, AOff: -1, PadOff: -1},
	FormatNV12: {Name: "NV12", Planes: 2, PixelStride: [3]int{1, 2}, YUV: true,
		HSub: [3]int{0, 1}, VSub: [3]int{0, 1}, AOff: -1, PadOff: -1},
	FormatNV21: {Name: "NV21", Planes: 2, PixelStride: [3]int{1, 2}, YUV: true,
		HSub: [3]int{0, 1}, VSub: [3]int{0, 1}, AOff: -1, PadOff: -1},
	FormatY444: {Name: "Y444", Planes: 3, PixelStride: [3]int{1, 1, 1}, YUV: true,
		AOff: -1, PadOff: -1},
}

// AllFormats lists every format the mixer can negotiate, in template order.
var AllFormats = []Format{
	FormatAYUV, FormatBGRA, FormatARGB, FormatRGBA, FormatABGR,
	FormatY444, FormatI420, FormatYV12, FormatNV12, FormatNV21,
	FormatRGB, FormatBGR, FormatXRGB, FormatXBGR, FormatRGBX, FormatBGRX,
}

// Describe returns the layout info for f. The second result is false for
// FormatUnknown or unregistered values.
func Describe(f Format) (FormatInfo, bool) {
	fi, ok := formatInfos[f]
	return fi, ok
}

// HasAlpha reports whether the format carries an alpha channel.
func (f Format) HasAlpha() bool {
	fi, ok := formatInfos[f]
	return ok && fi.HasAlpha
}

func (f Format) String() string {
	if fi, ok := formatInfos[f]; ok {
		return fi.Name
	}
	return "unknown"
}

// ParseFormat maps a format name (as used in layer config files) back to a
// Format. The second result is false for unrecognized names.
func ParseFormat(name string) (Format, bool) {
	for f, fi := range formatInfos {
		if fi.Name == name {
			return f, true
		}
	}
	return FormatUnknown, false
}
