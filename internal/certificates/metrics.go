package certificates

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess       = "success"
	outcomeEncodingError = "encoding_error"
	outcomeRenderError   = "render_error"
	outcomeUploadError   = "upload_error"
	outcomeError         = "error"
)

// Metrics holds the pipeline collectors
type Metrics struct {
	generations    *prometheus.CounterVec
	renderDuration prometheus.Histogram
	artifactBytes  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with registry. A nil
// registry leaves them unregistered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certification",
			Name:      "certificate_generations_total",
			Help:      "Certificate generation attempts by outcome",
		}, []string{"outcome"}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "certification",
			Name:      "certificate_render_duration_seconds",
			Help:      "Time spent composing and serializing a certificate",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		artifactBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "certification",
			Name:      "certificate_artifact_bytes",
			Help:      "Size of rendered certificate documents",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 8),
		}),
	}
}

func (m *Metrics) observeRender(seconds float64) {
	m.renderDuration.Observe(seconds)
}

func (m *Metrics) observeArtifact(size int) {
	m.artifactBytes.Observe(float64(size))
}

func (m *Metrics) recordOutcome(err error) {
	m.generations.WithLabelValues(outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	var (
		encErr    *EncodingError
		renderErr *RenderError
		uploadErr *UploadError
	)
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.As(err, &encErr):
		return outcomeEncodingError
	case errors.As(err, &renderErr):
		return outcomeRenderError
	case errors.As(err, &uploadErr):
		return outcomeUploadError
	default:
		return outcomeError
	}
}
