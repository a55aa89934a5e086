// Package convert normalizes input frames to the mixer's negotiated output
// pixel format. A Conversion is opened once per input at negotiation time
// and reused for every frame until the input is reconfigured or detached.
package convert

import (
	"errors"
	"fmt"

	"github.com/smazurov/mixnode/internal/video"
)

// ErrNoPath is returned when no conversion path exists between two formats.
var ErrNoPath = errors.New("convert: no conversion path")

// Conversion converts frames between a fixed pair of stream descriptors.
// Not safe for concurrent use; each input owns its own instance.
type Conversion struct {
	src, dst video.Info

	// colorimetry applied when crossing the YUV/RGB boundary
	srcCol, dstCol video.Colorimetry
	crossSpace     bool
	srcYUV         bool

	row    []byte
	closed bool
}

// New opens a converter from src to dst. Geometry must match: the mixer
// converts formats in place, scaling is not part of the conversion contract.
func New(src, dst video.Info) (*Conversion, error) {
	sfi, ok := video.Describe(src.Format)
	if !ok {
		return nil, fmt.Errorf("%w: source %s", ErrNoPath, src.Format)
	}
	dfi, ok := video.Describe(dst.Format)
	if !ok {
		return nil, fmt.Errorf("%w: destination %s", ErrNoPath, dst.Format)
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return nil, fmt.Errorf("convert: geometry mismatch %dx%d -> %dx%d",
			src.Width, src.Height, dst.Width, dst.Height)
	}

	c := &Conversion{
		src:        src,
		dst:        dst,
		srcCol:     src.Colorimetry,
		dstCol:     dst.Colorimetry,
		crossSpace: sfi.YUV != dfi.YUV,
		srcYUV:     sfi.YUV,
		row:        make([]byte, src.Width*4),
	}
	return c, nil
}

// Src returns the source descriptor the conversion was opened with.
func (c *Conversion) Src() video.Info { return c.src }

// Dst returns the destination descriptor the conversion was opened with.
func (c *Conversion) Dst() video.Info { return c.dst }

// Convert writes src converted to the destination format into dst. dst must
// have been allocated for the destination descriptor. Frame timing is copied
// over so the converted frame can stand in for the original.
func (c *Conversion) Convert(dst, src *video.Frame) error {
	if c.closed {
		return errors.New("convert: conversion closed")
	}
	h := c.src.Height
	sameColor := c.srcCol == c.dstCol

	for y := 0; y < h; y++ {
		unpackRow(c.row, src, y)
		if c.crossSpace {
			c.convertRowAcross(c.row)
		} else if c.srcYUV && !sameColor {
			// YUV to YUV with differing colorimetry goes through RGB.
			c.convertRowRecolor(c.row)
		}
		packRow(dst, c.row, y)
	}

	dst.PTS = src.PTS
	dst.Duration = src.Duration
	return nil
}

func (c *Conversion) convertRowAcross(row []byte) {
	n := len(row)
	if c.srcYUV {
		for o := 0; o < n; o += 4 {
			r, g, b := YUVToRGB(row[o+1], row[o+2], row[o+3], c.srcCol)
			row[o+1], row[o+2], row[o+3] = r, g, b
		}
	} else {
		for o := 0; o < n; o += 4 {
			y, u, v := RGBToYUV(row[o+1], row[o+2], row[o+3], c.dstCol)
			row[o+1], row[o+2], row[o+3] = y, u, v
		}
	}
}

func (c *Conversion) convertRowRecolor(row []byte) {
	n := len(row)
	for o := 0; o < n; o += 4 {
		r, g, b := YUVToRGB(row[o+1], row[o+2], row[o+3], c.srcCol)
		y, u, v := RGBToYUV(r, g, b, c.dstCol)
		row[o+1], row[o+2], row[o+3] = y, u, v
	}
}

// Close releases the conversion. Converting after Close is an error.
// Close is idempotent.
func (c *Conversion) Close() {
	c.closed = true
	c.row = nil
}
