package mixer

import (
	"fmt"

	"github.com/smazurov/mixnode/internal/convert"
	"github.com/smazurov/mixnode/internal/video"
)

// negotiate recomputes the output format from the declared inputs and the
// downstream capability set, rebinding per-input converters as needed. It is
// idempotent: rerunning with unchanged inputs changes nothing.
func (m *Mixer) negotiate() error {
	m.negMu.Lock()
	defer m.negMu.Unlock()

	m.mu.Lock()
	changed, err := m.negotiateLocked()
	info := m.info
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if changed {
		m.log.Info("output format negotiated", "format", info.Format.String(),
			"width", info.Width, "height", info.Height, "fps", info.FPS.String())
		m.downstream.PushEvent(FormatEvent{Info: info})
	}
	return nil
}

func (m *Mixer) negotiateLocked() (bool, error) {
	down := m.downstream.AllowedCaps()
	if down.Empty() {
		return false, &NegotiationError{Reason: ReasonNoCommonFormat, Detail: "downstream accepts nothing"}
	}

	var declared []*Pad
	needAlpha := false
	for _, p := range m.pads {
		if p.info.Known() {
			declared = append(declared, p)
			if p.info.Format.HasAlpha() {
				needAlpha = true
			}
		}
	}
	if len(declared) == 0 {
		return false, nil
	}

	best, bestInfo := electFormat(declared, down)
	if best == video.FormatUnknown {
		return false, &NegotiationError{Reason: ReasonNoCommonFormat, Detail: down.String()}
	}
	if needAlpha && !best.HasAlpha() {
		return false, &NegotiationError{
			Reason: ReasonAlphaLoss,
			Detail: fmt.Sprintf("inputs carry alpha but output would be %s", best),
		}
	}

	width, height := m.strategy.OutputGeometry(m.pads)
	if width <= 0 || height <= 0 {
		return false, nil
	}

	fps := video.Fraction{Num: 25, Den: 1}
	bestRate := 0.0
	for _, p := range declared {
		if p.info.FPS.Valid() && p.info.FPS.Float() > bestRate {
			bestRate = p.info.FPS.Float()
			fps = p.info.FPS
		}
	}

	// The consumer gets the last word on geometry and rate.
	width, height, fps = down.FixateNearest(width, height, fps)

	out := video.Info{
		Format:      best,
		Width:       width,
		Height:      height,
		FPS:         fps,
		PAR:         declared[0].info.PAR,
		Colorimetry: bestInfo.Colorimetry,
		Chroma:      bestInfo.Chroma,
		Interlace:   declared[0].info.Interlace,
	}

	if err := m.bindConverters(declared, out); err != nil {
		return false, err
	}

	if out == m.info {
		return false, nil
	}
	if err := m.strategy.Prepare(out); err != nil {
		return false, err
	}

	// A framerate change restarts frame counting from the current position
	// so output timestamps stay continuous across the switch.
	if m.info.Known() && m.info.FPS != out.FPS {
		if m.outSegment.Position.Valid() && m.outSegment.Position > m.outSegment.Start {
			m.tsOffset = m.outSegment.Position - m.outSegment.Start
			m.nframes = 0
		}
		m.qos.reset()
	}

	m.info = out
	return true, nil
}

// electFormat picks the output pixel format: the first input format carrying
// alpha that downstream accepts, otherwise the most common accepted input
// format, otherwise downstream's own preference.
func electFormat(declared []*Pad, down video.Caps) (video.Format, video.Info) {
	var best video.Format
	var bestInfo video.Info
	counts := make(map[video.Format]int)
	bestCount := 0

	for _, p := range declared {
		f := p.info.Format
		if !down.AcceptsFormat(f) {
			continue
		}
		if f.HasAlpha() {
			return f, p.info
		}
		counts[f]++
		if counts[f] > bestCount {
			bestCount = counts[f]
			best = f
			bestInfo = p.info
		}
	}

	if best == video.FormatUnknown {
		best = down.FixateFormat()
		bestInfo = video.Info{Format: best}
	}
	return best, bestInfo
}

// bindConverters opens or rebinds one converter per input whose format
// differs from the output. Matching inputs pass through untouched.
func (m *Mixer) bindConverters(declared []*Pad, out video.Info) error {
	for _, p := range declared {
		if p.info.SameFormat(out) {
			p.releaseConverter()
			p.convInfo = p.info
			p.needsReconvert = false
			continue
		}
		dst := video.Info{
			Format:      out.Format,
			Width:       p.info.Width,
			Height:      p.info.Height,
			FPS:         p.info.FPS,
			PAR:         p.info.PAR,
			Colorimetry: out.Colorimetry,
			Chroma:      out.Chroma,
			Interlace:   p.info.Interlace,
		}
		if p.conv != nil && p.conv.Src() == p.info && p.conv.Dst() == dst {
			continue
		}
		p.releaseConverter()
		conv, err := convert.New(p.info, dst)
		if err != nil {
			return &NegotiationError{Reason: ReasonNoConversionPath, Detail: p.ID, Err: err}
		}
		p.conv = conv
		p.convInfo = dst
		p.needsReconvert = true
	}
	return nil
}
