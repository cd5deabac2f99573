package certificates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository reads certificate records and writes back generation results.
// Getters return nil, nil when no row matches.
type Repository interface {
	GetCertificateByID(ctx context.Context, id uuid.UUID) (*CertificateRecord, error)
	GetCertificateByVerificationCode(ctx context.Context, code string) (*CertificateRecord, error)
	UpdateArtifact(ctx context.Context, id uuid.UUID, pdfURL, pdfDigest string) error
	Revoke(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
	ListPendingGeneration(ctx context.Context, limit int) ([]CertificateRecord, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const certificateColumns = `
	id, certificate_number, verification_code, candidate_name, candidate_fiscal_code,
	language, level, listening_score, reading_score, writing_score, speaking_score,
	total_score, exam_date, issue_date, expiry_date, exam_center_name, status,
	revoked_at, revocation_reason, pdf_url, pdf_digest, created_at, updated_at`

func (r *postgresRepository) GetCertificateByID(ctx context.Context, id uuid.UUID) (*CertificateRecord, error) {
	var rec CertificateRecord
	err := r.db.GetContext(ctx, &rec, "SELECT "+certificateColumns+" FROM certificates WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &rec, nil
}

func (r *postgresRepository) GetCertificateByVerificationCode(ctx context.Context, code string) (*CertificateRecord, error) {
	var rec CertificateRecord
	err := r.db.GetContext(ctx, &rec, "SELECT "+certificateColumns+" FROM certificates WHERE verification_code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate by verification code: %w", err)
	}
	return &rec, nil
}

// UpdateArtifact only matches active rows, so a revocation committed while
// the document was being generated surfaces as ErrCertificateRevoked.
func (r *postgresRepository) UpdateArtifact(ctx context.Context, id uuid.UUID, pdfURL, pdfDigest string) error {
	query := `
		UPDATE certificates
		SET pdf_url = $2, pdf_digest = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, pdfURL, pdfDigest, StatusActive)
	if err != nil {
		return fmt.Errorf("failed to update certificate artifact: %w", err)
	}
	return expectOneRow(res, ErrCertificateRevoked)
}

// Revoke only matches active rows, so a concurrent revocation surfaces as
// ErrInvalidTransition.
func (r *postgresRepository) Revoke(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	query := `
		UPDATE certificates
		SET status = $2, revoked_at = $3, revocation_reason = $4, updated_at = $3
		WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, StatusRevoked, at, reason, StatusActive)
	if err != nil {
		return fmt.Errorf("failed to revoke certificate: %w", err)
	}
	return expectOneRow(res, ErrInvalidTransition)
}

func (r *postgresRepository) ListPendingGeneration(ctx context.Context, limit int) ([]CertificateRecord, error) {
	var recs []CertificateRecord
	query := "SELECT " + certificateColumns + `
		FROM certificates
		WHERE status = $1 AND pdf_url IS NULL
		ORDER BY issue_date ASC, created_at ASC
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &recs, query, StatusActive, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending certificates: %w", err)
	}
	return recs, nil
}

func expectOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}
