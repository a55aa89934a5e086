// Package sources provides frame producers for the mixer. The pattern
// source generates synthetic video, used for standalone operation, layer
// placeholders and tests.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/smazurov/mixnode/internal/blend"
	"github.com/smazurov/mixnode/internal/convert"
	"github.com/smazurov/mixnode/internal/logging"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

// Pattern selects the generated content.
type Pattern int

const (
	PatternBars Pattern = iota
	PatternSolid
	PatternSnow
	PatternMovingBox
	PatternChecker
)

var patternNames = map[Pattern]string{
	PatternBars:      "bars",
	PatternSolid:     "solid",
	PatternSnow:      "snow",
	PatternMovingBox: "moving-box",
	PatternChecker:   "checker",
}

func (p Pattern) String() string {
	if n, ok := patternNames[p]; ok {
		return n
	}
	return "bars"
}

// ParsePattern maps a config string to a Pattern.
func ParsePattern(s string) (Pattern, error) {
	for p, n := range patternNames {
		if n == s {
			return p, nil
		}
	}
	return PatternBars, fmt.Errorf("unknown pattern %q", s)
}

// Config describes a pattern source. Info carries the produced format,
// geometry and rate; Solid is the Y/U/V fill color for the solid pattern.
type Config struct {
	Pattern Pattern
	Info    video.Info
	Solid   [3]byte
	// Frames bounds the stream length; zero means run until cancelled.
	Frames int64
}

// 75% SMPTE bars, in Y/U/V.
var barColors = [8][3]byte{
	{180, 128, 128}, // white
	{162, 44, 142},  // yellow
	{131, 156, 44},  // cyan
	{112, 72, 58},   // green
	{84, 184, 198},  // magenta
	{65, 100, 212},  // red
	{35, 212, 114},  // blue
	{16, 128, 128},  // black
}

// PatternSource renders frames at the configured rate and pushes them into
// a mixer queue. Patterns render natively in I420 and are converted once
// when the configured output format differs.
type PatternSource struct {
	log  *slog.Logger
	cfg  Config
	conv *convert.Conversion
	work *video.Frame
	fill blend.KernelSet
	rng  uint64
}

// NewPattern validates the configuration and prepares render state.
func NewPattern(cfg Config) (*PatternSource, error) {
	if !cfg.Info.Known() || cfg.Info.Width <= 0 || cfg.Info.Height <= 0 {
		return nil, fmt.Errorf("sources: invalid pattern geometry %s", cfg.Info)
	}
	if !cfg.Info.FPS.Valid() {
		return nil, fmt.Errorf("sources: pattern needs a frame rate, got %s", cfg.Info.FPS)
	}

	s := &PatternSource{
		log: logging.GetLogger("sources"),
		cfg: cfg,
		rng: uint64(time.Now().UnixNano() | 1),
	}

	switch cfg.Pattern {
	case PatternSolid, PatternChecker:
		// Rendered directly in the output format via the fill kernels.
		kernels, ok := blend.Kernels(cfg.Info.Format)
		if !ok {
			return nil, fmt.Errorf("sources: no fill support for %s", cfg.Info.Format)
		}
		s.fill = kernels
	default:
		if cfg.Info.Format != video.FormatI420 {
			workInfo := cfg.Info
			workInfo.Format = video.FormatI420
			conv, err := convert.New(workInfo, cfg.Info)
			if err != nil {
				return nil, fmt.Errorf("sources: %w", err)
			}
			s.conv = conv
			s.work = video.NewFrame(workInfo)
		}
	}
	return s, nil
}

// Info returns the stream descriptor the source produces.
func (s *PatternSource) Info() video.Info { return s.cfg.Info }

// Run renders frames into q at the configured rate until the context is
// cancelled or the configured frame count is reached, then closes the queue.
func (s *PatternSource) Run(ctx context.Context, q *mixer.Queue) error {
	q.SetSegment(video.NewSegment())
	q.SetImpliedFPS(s.cfg.Info.FPS)

	dur := s.cfg.Info.FPS.FrameDuration()
	ticker := time.NewTicker(time.Duration(dur))
	defer ticker.Stop()
	defer q.CloseEOS()

	for n := int64(0); s.cfg.Frames == 0 || n < s.cfg.Frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		f, err := s.Render(n)
		if err != nil {
			return err
		}
		if err := q.Push(f); err != nil {
			return err
		}
	}
	s.log.Debug("pattern finished", "pattern", s.cfg.Pattern.String(), "frames", s.cfg.Frames)
	return nil
}

// Render produces frame n with its presentation interval set. Exposed so
// callers with their own pacing can pull frames directly.
func (s *PatternSource) Render(n int64) (*video.Frame, error) {
	dur := s.cfg.Info.FPS.FrameDuration()
	pts := video.Time(n) * dur

	out := video.NewFrame(s.cfg.Info)
	switch s.cfg.Pattern {
	case PatternSolid:
		s.fill.FillColor(out, s.cfg.Solid[0], s.cfg.Solid[1], s.cfg.Solid[2])
	case PatternChecker:
		s.fill.FillChecker(out)
	default:
		target := out
		if s.conv != nil {
			target = s.work
		}
		switch s.cfg.Pattern {
		case PatternSnow:
			s.renderSnow(target)
		case PatternMovingBox:
			s.renderMovingBox(target, n)
		default:
			s.renderBars(target)
		}
		if s.conv != nil {
			if err := s.conv.Convert(out, s.work); err != nil {
				return nil, err
			}
		}
	}

	out.PTS = pts
	out.Duration = dur
	return out, nil
}

func (s *PatternSource) renderBars(f *video.Frame) {
	w, h := f.Info.Width, f.Info.Height
	barWidth := max(w/8, 1)
	for y := 0; y < h; y++ {
		row := f.Data[0][y*f.Stride[0]:]
		for x := 0; x < w; x++ {
			row[x] = barColors[min(x/barWidth, 7)][0]
		}
	}
	cw, ch := f.Info.PlaneWidth(1), f.Info.PlaneHeight(1)
	for y := 0; y < ch; y++ {
		u := f.Data[1][y*f.Stride[1]:]
		v := f.Data[2][y*f.Stride[2]:]
		for x := 0; x < cw; x++ {
			c := barColors[min(2*x/barWidth, 7)]
			u[x] = c[1]
			v[x] = c[2]
		}
	}
}

func (s *PatternSource) renderSnow(f *video.Frame) {
	for y := 0; y < f.Info.Height; y++ {
		row := f.Data[0][y*f.Stride[0]:]
		for x := 0; x < f.Info.Width; x++ {
			// xorshift64
			s.rng ^= s.rng << 13
			s.rng ^= s.rng >> 7
			s.rng ^= s.rng << 17
			row[x] = byte(s.rng)
		}
	}
	fillBytes(f, 1, 128)
	fillBytes(f, 2, 128)
}

func (s *PatternSource) renderMovingBox(f *video.Frame, n int64) {
	fillBytes(f, 0, 16)
	fillBytes(f, 1, 128)
	fillBytes(f, 2, 128)

	w, h := f.Info.Width, f.Info.Height
	box := max(min(w, h)/6, 8)
	radius := float64(min(w, h)) / 4
	angle := float64(n) * 0.05
	bx := w/2 + int(radius*math.Cos(angle)) - box/2
	by := h/2 + int(radius*math.Sin(angle)) - box/2

	for y := max(by, 0); y < by+box && y < h; y++ {
		row := f.Data[0][y*f.Stride[0]:]
		for x := max(bx, 0); x < bx+box && x < w; x++ {
			row[x] = 235
		}
	}
}

func fillBytes(f *video.Frame, plane int, val byte) {
	for i := range f.Data[plane] {
		f.Data[plane][i] = val
	}
}
