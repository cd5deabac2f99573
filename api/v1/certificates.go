package v1

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"e-learning-system/certification-backend/internal/certificates"
	"e-learning-system/certification-backend/internal/config"
	"e-learning-system/certification-backend/pkg/pdf"
	"e-learning-system/certification-backend/pkg/qrcode"
	"e-learning-system/certification-backend/pkg/security"
	"e-learning-system/certification-backend/pkg/storage"
)

// CertificatesAPI holds the certificates API dependencies
type CertificatesAPI struct {
	Handler    *certificates.Handler
	Service    certificates.Service
	Repository certificates.Repository
	Pipeline   *certificates.Pipeline
	Store      storage.BlobStore
}

// SetupCertificatesAPI wires the generation pipeline, the service and the
// HTTP handler from configuration
func SetupCertificatesAPI(ctx context.Context, db *sqlx.DB, cfg *config.Config, registry prometheus.Registerer, logger *zap.Logger) (*CertificatesAPI, error) {
	store, err := NewBlobStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	encoder, err := qrcode.NewEncoder(cfg.Verification.ErrorCorrection)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification encoder: %w", err)
	}

	branding := certificates.Branding{
		OrganizationName: cfg.Issuer.OrganizationName,
		Tagline:          cfg.Issuer.Tagline,
		BadgeTitle:       cfg.Issuer.BadgeTitle,
		BadgeSubtitle:    cfg.Issuer.BadgeSubtitle,
		SignatoryName:    cfg.Issuer.SignatoryName,
		SignatoryTitle:   cfg.Issuer.SignatoryTitle,
		LegalNotice:      cfg.Issuer.LegalNotice,
	}

	issuer := certificates.NewIssuer(cfg.Verification.BaseURL, encoder, cfg.Verification.QRSize, cfg.Verification.QRMargin)
	layout := certificates.NewLayoutEngine(issuer, pdf.NewGenerator(pdf.DefaultGeneratorOptions()), branding)
	publisher := certificates.NewPublisher(store, cfg.Storage.Folder, logger)
	pipeline := certificates.NewPipeline(layout, publisher, certificates.NewMetrics(registry), logger)

	repository := certificates.NewRepository(db)
	service := certificates.NewService(
		repository,
		pipeline,
		certificates.NewHTMLRenderer(issuer, branding, logger),
		security.NewValidator(),
		logger,
	)

	return &CertificatesAPI{
		Handler:    certificates.NewHandler(service, logger),
		Service:    service,
		Repository: repository,
		Pipeline:   pipeline,
		Store:      store,
	}, nil
}

// RegisterCertificatesRoutes registers the API routes on the group and the
// verification routes on the root router
func RegisterCertificatesRoutes(router *gin.Engine, group *gin.RouterGroup, api *CertificatesAPI) {
	api.Handler.RegisterRoutes(group)
	api.Handler.RegisterPublicRoutes(router)
}

// NewBlobStore builds the artifact store selected by storage.driver
func NewBlobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.BlobStore, error) {
	switch cfg.Storage.Driver {
	case "memory":
		base := cfg.Storage.PublicBaseURL
		if base == "" {
			base = cfg.Verification.BaseURL + "/files"
		}
		logger.Warn("Using in-memory artifact store, documents are lost on restart")
		return storage.NewMemoryStore(base), nil
	case "s3", "":
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			UsePathStyle:    cfg.Storage.UsePathStyle,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
