package certificates

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"e-learning-system/certification-backend/pkg/security"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetCertificateByID(ctx context.Context, id uuid.UUID) (*CertificateRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CertificateRecord), args.Error(1)
}

func (m *MockRepository) GetCertificateByVerificationCode(ctx context.Context, code string) (*CertificateRecord, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CertificateRecord), args.Error(1)
}

func (m *MockRepository) UpdateArtifact(ctx context.Context, id uuid.UUID, pdfURL, pdfDigest string) error {
	args := m.Called(ctx, id, pdfURL, pdfDigest)
	return args.Error(0)
}

func (m *MockRepository) Revoke(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	args := m.Called(ctx, id, reason, at)
	return args.Error(0)
}

func (m *MockRepository) ListPendingGeneration(ctx context.Context, limit int) ([]CertificateRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]CertificateRecord), args.Error(1)
}

// MockArtifactGenerator is a mock implementation of the ArtifactGenerator interface
type MockArtifactGenerator struct {
	mock.Mock
}

func (m *MockArtifactGenerator) Generate(ctx context.Context, data CertificateData) (*Artifact, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Artifact), args.Error(1)
}

var fixedNow = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

func sampleRecord() *CertificateRecord {
	data := sampleData()
	fiscal := data.CandidateFiscalCode
	return &CertificateRecord{
		ID:                  uuid.New(),
		CertificateNumber:   data.CertificateNumber,
		VerificationCode:    data.VerificationCode,
		CandidateName:       data.CandidateName,
		CandidateFiscalCode: &fiscal,
		Language:            data.Language,
		Level:               data.Level,
		ListeningScore:      data.ListeningScore,
		ReadingScore:        data.ReadingScore,
		WritingScore:        data.WritingScore,
		SpeakingScore:       data.SpeakingScore,
		TotalScore:          data.TotalScore,
		ExamDate:            data.ExamDate,
		IssueDate:           data.IssueDate,
		ExpiryDate:          data.ExpiryDate,
		ExamCenterName:      data.ExamCenterName,
		Status:              StatusActive,
	}
}

func newTestService(t *testing.T, repo *MockRepository, gen ArtifactGenerator) *certificateService {
	t.Helper()
	preview := NewHTMLRenderer(newTestIssuer(t, nil), testBranding(), zap.NewNop())
	svc := NewService(repo, gen, preview, security.NewValidator(), zap.NewNop()).(*certificateService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestGenerateCertificate(t *testing.T) {
	repo := new(MockRepository)
	gen := new(MockArtifactGenerator)
	svc := newTestService(t, repo, gen)
	ctx := context.Background()
	rec := sampleRecord()

	artifact := &Artifact{URL: "https://cdn.example.org/certificates/certificate_CL_2024_00123.pdf", Digest: "abc", Size: 10}

	repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)
	gen.On("Generate", ctx, sampleData()).Return(artifact, nil)
	repo.On("UpdateArtifact", ctx, rec.ID, artifact.URL, "abc").Return(nil)

	got, err := svc.GenerateCertificate(ctx, rec.ID)

	require.NoError(t, err)
	assert.Equal(t, artifact, got)
	repo.AssertExpectations(t)
	gen.AssertExpectations(t)
}

func TestGenerateCertificateRevokedWhileRendering(t *testing.T) {
	repo := new(MockRepository)
	gen := new(MockArtifactGenerator)
	svc := newTestService(t, repo, gen)
	ctx := context.Background()
	rec := sampleRecord()

	artifact := &Artifact{URL: "https://cdn.example.org/certificates/certificate_CL_2024_00123.pdf", Digest: "abc", Size: 10}

	repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)
	gen.On("Generate", ctx, sampleData()).Return(artifact, nil)
	repo.On("UpdateArtifact", ctx, rec.ID, artifact.URL, "abc").Return(ErrCertificateRevoked)

	got, err := svc.GenerateCertificate(ctx, rec.ID)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrCertificateRevoked)
	repo.AssertExpectations(t)
	gen.AssertExpectations(t)
}

func TestGenerateCertificateRefusesRevoked(t *testing.T) {
	repo := new(MockRepository)
	gen := new(MockArtifactGenerator)
	svc := newTestService(t, repo, gen)
	ctx := context.Background()
	rec := sampleRecord()
	rec.Status = StatusRevoked

	repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)

	got, err := svc.GenerateCertificate(ctx, rec.ID)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrCertificateRevoked)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateArtifact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateCertificateNotFound(t *testing.T) {
	repo := new(MockRepository)
	gen := new(MockArtifactGenerator)
	svc := newTestService(t, repo, gen)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetCertificateByID", ctx, id).Return(nil, nil)

	_, err := svc.GenerateCertificate(ctx, id)

	assert.ErrorIs(t, err, ErrCertificateNotFound)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerateCertificateUploadFailureKeepsRecord(t *testing.T) {
	repo := new(MockRepository)
	gen := new(MockArtifactGenerator)
	svc := newTestService(t, repo, gen)
	ctx := context.Background()
	rec := sampleRecord()

	uploadErr := &UploadError{Key: "certificates/certificate_CL_2024_00123.pdf", Err: errors.New("timeout")}
	repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)
	gen.On("Generate", ctx, mock.Anything).Return(nil, uploadErr)

	_, err := svc.GenerateCertificate(ctx, rec.ID)

	var target *UploadError
	require.ErrorAs(t, err, &target)
	repo.AssertNotCalled(t, "UpdateArtifact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDownloadURL(t *testing.T) {
	ctx := context.Background()

	t.Run("stored", func(t *testing.T) {
		repo := new(MockRepository)
		gen := new(MockArtifactGenerator)
		svc := newTestService(t, repo, gen)
		rec := sampleRecord()
		url := "https://cdn.example.org/certificates/certificate_CL_2024_00123.pdf"
		rec.PDFURL = &url

		repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)

		got, err := svc.DownloadURL(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, url, got)
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("generated on demand", func(t *testing.T) {
		repo := new(MockRepository)
		gen := new(MockArtifactGenerator)
		svc := newTestService(t, repo, gen)
		rec := sampleRecord()
		artifact := &Artifact{URL: "https://cdn.example.org/x.pdf", Digest: "d"}

		repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)
		gen.On("Generate", ctx, mock.Anything).Return(artifact, nil)
		repo.On("UpdateArtifact", ctx, rec.ID, artifact.URL, "d").Return(nil)

		got, err := svc.DownloadURL(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, artifact.URL, got)
	})

	t.Run("revoked", func(t *testing.T) {
		repo := new(MockRepository)
		gen := new(MockArtifactGenerator)
		svc := newTestService(t, repo, gen)
		rec := sampleRecord()
		url := "https://cdn.example.org/x.pdf"
		rec.PDFURL = &url
		rec.Status = StatusRevoked

		repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)

		_, err := svc.DownloadURL(ctx, rec.ID)
		assert.ErrorIs(t, err, ErrCertificateRevoked)
	})
}

func TestPreviewCertificate(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(t, repo, new(MockArtifactGenerator))
	ctx := context.Background()
	rec := sampleRecord()

	repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)

	p, err := svc.PreviewCertificate(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Certificate_CL-2024/00123.pdf", p.Filename)
	assert.Contains(t, p.HTML, "Giulia Bianchi")
}

func TestVerifyCertificate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(r *CertificateRecord)
		valid   bool
		expired bool
		message string
	}{
		{"active", func(*CertificateRecord) {}, true, false, "Certificate is valid"},
		{"revoked", func(r *CertificateRecord) { r.Status = StatusRevoked }, false, false, "Certificate has been revoked"},
		{"expired", func(r *CertificateRecord) { r.ExpiryDate = time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC) }, false, true, "Certificate has expired"},
		{"expires today", func(r *CertificateRecord) { r.ExpiryDate = time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC) }, true, false, "Certificate is valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := newTestService(t, repo, new(MockArtifactGenerator))
			rec := sampleRecord()
			tt.mutate(rec)

			repo.On("GetCertificateByVerificationCode", ctx, rec.VerificationCode).Return(rec, nil)

			result, err := svc.VerifyCertificate(ctx, rec.VerificationCode)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, tt.expired, result.Expired)
			assert.Equal(t, tt.message, result.Message)
			assert.Equal(t, GradeVeryGood, result.Grade)
			assert.Equal(t, rec.CertificateNumber, result.CertificateNumber)
		})
	}
}

func TestVerifyCertificateUnknownCode(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(t, repo, new(MockArtifactGenerator))
	ctx := context.Background()

	repo.On("GetCertificateByVerificationCode", ctx, "nope").Return(nil, nil)

	_, err := svc.VerifyCertificate(ctx, "nope")
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}

func TestVerifyArtifact(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(t, repo, new(MockArtifactGenerator))
	ctx := context.Background()

	doc := []byte("%PDF-1.3 issued certificate")
	digest := security.Digest(doc)
	rec := sampleRecord()
	rec.PDFDigest = &digest

	repo.On("GetCertificateByVerificationCode", ctx, rec.VerificationCode).Return(rec, nil)

	info, err := svc.VerifyArtifact(ctx, rec.VerificationCode, bytes.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, info.IsValid)

	info, err = svc.VerifyArtifact(ctx, rec.VerificationCode, bytes.NewReader([]byte("%PDF-1.3 tampered")))
	require.NoError(t, err)
	assert.False(t, info.IsValid)
}

func TestVerifyArtifactMissingDigest(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(t, repo, new(MockArtifactGenerator))
	ctx := context.Background()
	rec := sampleRecord()

	repo.On("GetCertificateByVerificationCode", ctx, rec.VerificationCode).Return(rec, nil)

	_, err := svc.VerifyArtifact(ctx, rec.VerificationCode, bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestRevokeCertificate(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(t, repo, new(MockArtifactGenerator))
	ctx := context.Background()
	rec := sampleRecord()

	repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)
	repo.On("Revoke", ctx, rec.ID, "exam irregularity", fixedNow).Return(nil)

	got, err := svc.RevokeCertificate(ctx, rec.ID, "exam irregularity")

	require.NoError(t, err)
	assert.Equal(t, StatusRevoked, got.Status)
	require.NotNil(t, got.RevokedAt)
	assert.Equal(t, fixedNow, *got.RevokedAt)
	assert.Equal(t, "exam irregularity", *got.RevocationReason)
	repo.AssertExpectations(t)
}

func TestRevokeCertificateTwice(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(t, repo, new(MockArtifactGenerator))
	ctx := context.Background()
	rec := sampleRecord()
	rec.Status = StatusRevoked

	repo.On("GetCertificateByID", ctx, rec.ID).Return(rec, nil)

	_, err := svc.RevokeCertificate(ctx, rec.ID, "again")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	repo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordDataOmitsNilFiscalCode(t *testing.T) {
	rec := sampleRecord()
	rec.CandidateFiscalCode = nil

	data := rec.Data()
	assert.Empty(t, data.CandidateFiscalCode)
	assert.Equal(t, rec.CertificateNumber, data.CertificateNumber)
}
