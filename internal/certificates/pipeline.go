package certificates

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ArtifactGenerator turns certificate data into a published document
type ArtifactGenerator interface {
	Generate(ctx context.Context, data CertificateData) (*Artifact, error)
}

// Pipeline renders a certificate and publishes it. It holds no per-call
// state and is safe for concurrent use.
type Pipeline struct {
	layout    *LayoutEngine
	publisher *Publisher
	metrics   *Metrics
	logger    *zap.Logger
}

func NewPipeline(layout *LayoutEngine, publisher *Publisher, metrics *Metrics, logger *zap.Logger) *Pipeline {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Pipeline{
		layout:    layout,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Generate renders data and uploads the result. Nothing is uploaded when
// rendering fails; an *UploadError carries no partial artifact.
func (p *Pipeline) Generate(ctx context.Context, data CertificateData) (_ *Artifact, err error) {
	defer func() { p.metrics.recordOutcome(err) }()

	start := time.Now()
	doc, err := p.layout.Render(ctx, data)
	p.metrics.observeRender(time.Since(start).Seconds())
	if err != nil {
		p.logger.Error("Failed to render certificate",
			zap.String("certificate_number", data.CertificateNumber),
			zap.Error(err))
		return nil, err
	}
	p.metrics.observeArtifact(len(doc))

	return p.publisher.Publish(ctx, doc, data.CertificateNumber)
}
