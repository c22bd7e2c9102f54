package soils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ==============================================================================
// Prometheus Metrics
// ==============================================================================

var (
	// normalizeTotal counts pipeline runs by result
	normalizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soil_normalize_total",
		Help: "Total soil profile normalizations by result",
	}, []string{"result"})

	// stageDuration tracks time spent in each pipeline stage
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "soil_normalize_stage_duration_seconds",
		Help:    "Soil normalization stage duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"stage"})

	// profileLayers tracks the canonical layer count of normalized profiles
	profileLayers = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "soil_profile_layers",
		Help:    "Number of layers in normalized soil profiles",
		Buckets: []float64{1, 2, 4, 6, 8, 10, 15, 20, 30},
	})

	// samplesFolded counts samples folded into profiles
	samplesFolded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soil_samples_folded_total",
		Help: "Total soil samples folded into profiles",
	})
)

func observeStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
