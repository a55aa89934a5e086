package video

// Frame is one raw video picture: per-plane byte slices plus the descriptor
// needed to interpret them, and the presentation interval assigned by the
// producer. Duration may be None for sources that cannot know a frame's
// length until the next frame arrives.
type Frame struct {
	Info     Info
	Data     [][]byte
	Stride   []int
	PTS      Time
	Duration Time
}

// NewFrame allocates a zeroed, tightly-packed frame for the given descriptor.
func NewFrame(info Info) *Frame {
	fi, ok := Describe(info.Format)
	if !ok {
		return &Frame{Info: info, PTS: None, Duration: None}
	}
	f := &Frame{
		Info:     info,
		Data:     make([][]byte, fi.Planes),
		Stride:   make([]int, fi.Planes),
		PTS:      None,
		Duration: None,
	}
	for p := 0; p < fi.Planes; p++ {
		f.Stride[p] = info.PlaneStride(p)
		f.Data[p] = make([]byte, f.Stride[p]*info.PlaneHeight(p))
	}
	return f
}

// End returns PTS+Duration, or None when either is unknown.
func (f *Frame) End() Time {
	if !f.PTS.Valid() || !f.Duration.Valid() {
		return None
	}
	return f.PTS + f.Duration
}

// Clone deep-copies the frame, detaching it from any producer-owned memory.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Info:     f.Info,
		Data:     make([][]byte, len(f.Data)),
		Stride:   append([]int(nil), f.Stride...),
		PTS:      f.PTS,
		Duration: f.Duration,
	}
	for i, plane := range f.Data {
		c.Data[i] = append([]byte(nil), plane...)
	}
	return c
}
