package certificates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"e-learning-system/certification-backend/pkg/security"
	"e-learning-system/certification-backend/pkg/workflows"
)

type Service interface {
	GenerateCertificate(ctx context.Context, id uuid.UUID) (*Artifact, error)
	PreviewCertificate(ctx context.Context, id uuid.UUID) (*Preview, error)
	DownloadURL(ctx context.Context, id uuid.UUID) (string, error)

	VerifyCertificate(ctx context.Context, code string) (*VerificationResult, error)
	VerifyArtifact(ctx context.Context, code string, document io.Reader) (*security.IntegrityInfo, error)

	RevokeCertificate(ctx context.Context, id uuid.UUID, reason string) (*CertificateRecord, error)
	ListPendingGeneration(ctx context.Context, limit int) ([]CertificateRecord, error)
}

// PreviewRenderer renders the low-fidelity HTML certificate
type PreviewRenderer interface {
	Render(data CertificateData) (string, error)
}

// Preview is the HTML certificate and the filename the browser should save
// its conversion under
type Preview struct {
	Filename string
	HTML     string
}

type certificateService struct {
	repo      Repository
	generator ArtifactGenerator
	preview   PreviewRenderer
	validator security.Validator
	workflow  *workflows.StateMachine
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	generator ArtifactGenerator,
	preview PreviewRenderer,
	validator security.Validator,
	logger *zap.Logger,
) Service {
	return &certificateService{
		repo:      repo,
		generator: generator,
		preview:   preview,
		validator: validator,
		workflow:  workflows.NewStateMachine(),
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateCertificate renders and publishes the record's document and stores
// the resulting URL and digest. The record is left untouched on failure.
func (s *certificateService) GenerateCertificate(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	rec, err := s.issuable(ctx, id)
	if err != nil {
		return nil, err
	}

	artifact, err := s.generator.Generate(ctx, rec.Data())
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateArtifact(ctx, rec.ID, artifact.URL, artifact.Digest); err != nil {
		if errors.Is(err, ErrCertificateRevoked) {
			s.logger.Warn("Certificate revoked during generation, published document is orphaned",
				zap.String("certificate_id", rec.ID.String()),
				zap.String("url", artifact.URL))
			return nil, ErrCertificateRevoked
		}
		s.logger.Error("Certificate published but record not updated",
			zap.String("certificate_id", rec.ID.String()),
			zap.String("url", artifact.URL),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store certificate artifact: %w", err)
	}

	s.logger.Info("Certificate generated",
		zap.String("certificate_id", rec.ID.String()),
		zap.String("certificate_number", rec.CertificateNumber),
		zap.String("digest", artifact.Digest))

	return artifact, nil
}

func (s *certificateService) PreviewCertificate(ctx context.Context, id uuid.UUID) (*Preview, error) {
	rec, err := s.issuable(ctx, id)
	if err != nil {
		return nil, err
	}

	html, err := s.preview.Render(rec.Data())
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate preview: %w", err)
	}
	return &Preview{Filename: DownloadFilename(rec.CertificateNumber), HTML: html}, nil
}

// DownloadURL returns the stored document URL, generating the document first
// when it does not exist yet
func (s *certificateService) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	rec, err := s.issuable(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.PDFURL != nil && *rec.PDFURL != "" {
		return *rec.PDFURL, nil
	}

	artifact, err := s.GenerateCertificate(ctx, id)
	if err != nil {
		return "", err
	}
	return artifact.URL, nil
}

func (s *certificateService) VerifyCertificate(ctx context.Context, code string) (*VerificationResult, error) {
	rec, err := s.repo.GetCertificateByVerificationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrCertificateNotFound
	}

	result := &VerificationResult{
		Status:            rec.Status,
		Expired:           isExpired(rec.ExpiryDate, s.now()),
		CertificateNumber: rec.CertificateNumber,
		CandidateName:     rec.CandidateName,
		Language:          rec.Language,
		Level:             rec.Level,
		TotalScore:        rec.TotalScore,
		Grade:             Grade(rec.TotalScore),
		ExamCenterName:    rec.ExamCenterName,
		IssueDate:         rec.IssueDate,
		ExpiryDate:        rec.ExpiryDate,
		RevokedAt:         rec.RevokedAt,
	}

	switch {
	case rec.IsRevoked():
		result.Message = "Certificate has been revoked"
	case result.Expired:
		result.Message = "Certificate has expired"
	default:
		result.Valid = true
		result.Message = "Certificate is valid"
		if rec.PDFURL != nil {
			result.PDFURL = *rec.PDFURL
		}
	}

	s.logger.Info("Certificate verified",
		zap.String("certificate_number", rec.CertificateNumber),
		zap.Bool("valid", result.Valid))

	return result, nil
}

// VerifyArtifact checks a downloaded document against the digest recorded
// when it was generated
func (s *certificateService) VerifyArtifact(ctx context.Context, code string, document io.Reader) (*security.IntegrityInfo, error) {
	rec, err := s.repo.GetCertificateByVerificationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrCertificateNotFound
	}
	if rec.PDFDigest == nil || *rec.PDFDigest == "" {
		return nil, ErrArtifactMissing
	}

	info, err := s.validator.ValidatePDF(ctx, document, *rec.PDFDigest)
	if err != nil {
		return nil, fmt.Errorf("failed to validate certificate document: %w", err)
	}
	if !info.IsValid {
		s.logger.Warn("Certificate document does not match recorded digest",
			zap.String("certificate_number", rec.CertificateNumber),
			zap.String("actual_digest", info.ActualDigest))
	}
	return info, nil
}

func (s *certificateService) RevokeCertificate(ctx context.Context, id uuid.UUID, reason string) (*CertificateRecord, error) {
	rec, err := s.repo.GetCertificateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrCertificateNotFound
	}
	if !s.workflow.CanTransition(string(rec.Status), string(StatusRevoked)) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, rec.Status, StatusRevoked)
	}

	at := s.now().UTC()
	if err := s.repo.Revoke(ctx, rec.ID, reason, at); err != nil {
		return nil, err
	}

	rec.Status = StatusRevoked
	rec.RevokedAt = &at
	rec.RevocationReason = &reason
	rec.UpdatedAt = at

	s.logger.Info("Certificate revoked",
		zap.String("certificate_id", rec.ID.String()),
		zap.String("certificate_number", rec.CertificateNumber),
		zap.String("reason", reason))

	return rec, nil
}

func (s *certificateService) ListPendingGeneration(ctx context.Context, limit int) ([]CertificateRecord, error) {
	return s.repo.ListPendingGeneration(ctx, limit)
}

// issuable loads a record and refuses revoked ones before any rendering
func (s *certificateService) issuable(ctx context.Context, id uuid.UUID) (*CertificateRecord, error) {
	rec, err := s.repo.GetCertificateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrCertificateNotFound
	}
	if rec.IsRevoked() {
		s.logger.Warn("Refusing to issue revoked certificate",
			zap.String("certificate_id", rec.ID.String()),
			zap.String("certificate_number", rec.CertificateNumber))
		return nil, ErrCertificateRevoked
	}
	return rec, nil
}

// isExpired treats the expiry date as valid through its last day
func isExpired(expiry, now time.Time) bool {
	if expiry.IsZero() {
		return false
	}
	y, m, d := expiry.Date()
	end := time.Date(y, m, d+1, 0, 0, 0, 0, expiry.Location())
	return !now.Before(end)
}
