package video

import "fmt"

// Time is a presentation time or duration in nanoseconds. None marks an
// unknown timestamp or duration.
type Time int64

// None is the sentinel for unset timestamps, durations and positions.
const None Time = -1

// Valid reports whether t carries a real value.
func (t Time) Valid() bool { return t != None }

// Fraction is an exact rational, used for framerates and pixel aspect ratios.
type Fraction struct {
	Num int `json:"num" toml:"num"`
	Den int `json:"den" toml:"den"`
}

// Valid reports whether the fraction denotes a usable positive rate.
func (f Fraction) Valid() bool { return f.Num > 0 && f.Den > 0 }

// Float returns the fraction as a double, 0 when the denominator is zero.
func (f Fraction) Float() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// FrameDuration returns the duration of one frame at this rate, rounded to
// the nearest nanosecond. None if the fraction is not a valid rate.
func (f Fraction) FrameDuration() Time {
	if !f.Valid() {
		return None
	}
	return Time((int64(1e9)*int64(f.Den) + int64(f.Num)/2) / int64(f.Num))
}

func (f Fraction) String() string { return fmt.Sprintf("%d/%d", f.Num, f.Den) }

// ColorMatrix selects the YUV<->RGB conversion matrix.
type ColorMatrix int

const (
	MatrixBT601 ColorMatrix = iota
	MatrixBT709
)

func (m ColorMatrix) String() string {
	if m == MatrixBT709 {
		return "bt709"
	}
	return "bt601"
}

// Colorimetry captures the color information the negotiator compares when
// deciding whether an input needs conversion.
type Colorimetry struct {
	Matrix    ColorMatrix
	FullRange bool
}

func (c Colorimetry) String() string {
	r := "limited"
	if c.FullRange {
		r = "full"
	}
	return c.Matrix.String() + "/" + r
}

// ChromaSite describes chroma sample positioning for subsampled formats.
type ChromaSite int

const (
	ChromaSiteNone ChromaSite = iota
	ChromaSiteMPEG2
	ChromaSiteJPEG
)

// InterlaceMode describes the scan layout of a stream.
type InterlaceMode int

const (
	InterlaceProgressive InterlaceMode = iota
	InterlaceInterleaved
)

// Info describes the geometry and format of one video stream. The zero
// value means "not yet negotiated".
type Info struct {
	Format      Format
	Width       int
	Height      int
	FPS         Fraction
	PAR         Fraction
	Colorimetry Colorimetry
	Chroma      ChromaSite
	Interlace   InterlaceMode
}

// NewInfo builds an Info with a square pixel aspect ratio.
func NewInfo(f Format, width, height int, fps Fraction) Info {
	return Info{
		Format: f,
		Width:  width,
		Height: height,
		FPS:    fps,
		PAR:    Fraction{1, 1},
	}
}

// Known reports whether the info describes a negotiated format.
func (i Info) Known() bool { return i.Format != FormatUnknown }

// PlaneWidth returns the pixel width of plane p after chroma subsampling.
func (i Info) PlaneWidth(p int) int {
	fi, _ := Describe(i.Format)
	return (i.Width + (1 << fi.HSub[p]) - 1) >> fi.HSub[p]
}

// PlaneHeight returns the pixel height of plane p after chroma subsampling.
func (i Info) PlaneHeight(p int) int {
	fi, _ := Describe(i.Format)
	return (i.Height + (1 << fi.VSub[p]) - 1) >> fi.VSub[p]
}

// PlaneStride returns the tightly-packed stride of plane p in bytes.
func (i Info) PlaneStride(p int) int {
	fi, _ := Describe(i.Format)
	return i.PlaneWidth(p) * fi.PixelStride[p]
}

// Size returns the total number of bytes a tightly-packed frame occupies.
func (i Info) Size() int {
	fi, ok := Describe(i.Format)
	if !ok {
		return 0
	}
	size := 0
	for p := 0; p < fi.Planes; p++ {
		size += i.PlaneStride(p) * i.PlaneHeight(p)
	}
	return size
}

// SameFormat reports whether two descriptors agree on everything the
// compositor cares about when deciding if conversion is needed.
func (i Info) SameFormat(o Info) bool {
	return i.Format == o.Format && i.Colorimetry == o.Colorimetry && i.Chroma == o.Chroma
}

func (i Info) String() string {
	return fmt.Sprintf("%s %dx%d@%s", i.Format, i.Width, i.Height, i.FPS)
}
