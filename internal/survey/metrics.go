package survey

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zheruizz/another.ai-app/internal/models"
)

const (
	outcomeGenerated = "generated"
	outcomeFallback  = "fallback"
)

// Metrics instruments the sampling engine.
type Metrics struct {
	samples            *prometheus.CounterVec
	retries            prometheus.Counter
	generationDuration prometheus.Histogram
	runs               *prometheus.CounterVec
}

// NewMetrics registers the engine's collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		samples: factory.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct // optional fields
			Namespace: "synthpanel",
			Name:      "samples_total",
			Help:      "Samples drawn, by whether the model produced them or the fallback was used.",
		}, []string{"outcome"}),
		retries: factory.NewCounter(prometheus.CounterOpts{ //nolint:exhaustruct // optional fields
			Namespace: "synthpanel",
			Name:      "sample_retries_total",
			Help:      "Generation attempts retried after a failure.",
		}),
		generationDuration: factory.NewHistogram(prometheus.HistogramOpts{ //nolint:exhaustruct // optional fields
			Namespace: "synthpanel",
			Name:      "generation_duration_seconds",
			Help:      "Latency of a single generation call, successful or not.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct // optional fields
			Namespace: "synthpanel",
			Name:      "runs_total",
			Help:      "Survey runs by terminal status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) observeSample(outcome string) {
	m.samples.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRetry() {
	m.retries.Inc()
}

func (m *Metrics) observeGeneration(start time.Time) {
	m.generationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeRun(status models.RunStatus) {
	m.runs.WithLabelValues(string(status)).Inc()
}
