// Package metrics provides Prometheus metrics for the mixer and its layers.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mixerFramesProcessed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mixnode",
		Subsystem: "mixer",
		Name:      "frames_processed_total",
		Help:      "Output frames composited and pushed downstream",
	})

	mixerFramesDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mixnode",
		Subsystem: "mixer",
		Name:      "frames_dropped_total",
		Help:      "Output frames skipped on downstream lateness feedback",
	})

	mixerProportion = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mixnode",
		Subsystem: "mixer",
		Name:      "qos_proportion",
		Help:      "Last reported downstream rate proportion",
	})

	mixerNegotiations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mixnode",
		Subsystem: "mixer",
		Name:      "negotiations_total",
		Help:      "Output format negotiations",
	})

	mixerOutputWidth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mixnode",
		Subsystem: "mixer",
		Name:      "output_width_pixels",
		Help:      "Negotiated output width",
	})

	mixerOutputHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mixnode",
		Subsystem: "mixer",
		Name:      "output_height_pixels",
		Help:      "Negotiated output height",
	})

	mixerOutputFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mixnode",
		Subsystem: "mixer",
		Name:      "output_fps",
		Help:      "Negotiated output framerate",
	})

	layerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mixnode",
		Subsystem: "layers",
		Name:      "queue_depth",
		Help:      "Frames waiting in a layer's ingest queue",
	}, []string{"layer_id"})

	// Local cache for status surfaces that need current values without
	// scraping Prometheus.
	statsCache   MixerSnapshot
	statsCacheMu sync.RWMutex
)

// MixerSnapshot holds the current mixer metric values.
type MixerSnapshot struct {
	Processed  float64
	Dropped    float64
	Proportion float64
}

// SetMixerStats records the mixer's lifetime counters.
func SetMixerStats(processed, dropped, proportion float64) {
	mixerFramesProcessed.Set(processed)
	mixerFramesDropped.Set(dropped)
	mixerProportion.Set(proportion)

	statsCacheMu.Lock()
	statsCache = MixerSnapshot{Processed: processed, Dropped: dropped, Proportion: proportion}
	statsCacheMu.Unlock()
}

// GetMixerStats returns the last recorded mixer counters.
func GetMixerStats() MixerSnapshot {
	statsCacheMu.RLock()
	defer statsCacheMu.RUnlock()
	return statsCache
}

// SetOutputFormat records a negotiated output format.
func SetOutputFormat(width, height int, fps float64) {
	mixerNegotiations.Inc()
	mixerOutputWidth.Set(float64(width))
	mixerOutputHeight.Set(float64(height))
	mixerOutputFPS.Set(fps)
}

// SetLayerQueueDepth records the ingest backlog of one layer.
func SetLayerQueueDepth(layerID string, depth float64) {
	layerQueueDepth.WithLabelValues(layerID).Set(depth)
}

// DeleteLayerMetrics removes all metrics for a layer.
func DeleteLayerMetrics(layerID string) {
	layerQueueDepth.DeleteLabelValues(layerID)
}
