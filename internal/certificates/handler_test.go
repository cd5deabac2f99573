package certificates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"e-learning-system/certification-backend/pkg/security"
)

func newTestRouter(t *testing.T, repo *MockRepository, gen *MockArtifactGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(newTestService(t, repo, gen), zap.NewNop())
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	handler.RegisterPublicRoutes(router)
	return router
}

func serve(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlerGenerate(t *testing.T) {
	repo := new(MockRepository)
	gen := new(MockArtifactGenerator)
	router := newTestRouter(t, repo, gen)
	rec := sampleRecord()
	artifact := &Artifact{URL: "https://cdn.example.org/a.pdf", Key: "certificates/a.pdf", Digest: "d1", Size: 42}

	repo.On("GetCertificateByID", mock.Anything, rec.ID).Return(rec, nil)
	gen.On("Generate", mock.Anything, mock.Anything).Return(artifact, nil)
	repo.On("UpdateArtifact", mock.Anything, rec.ID, artifact.URL, "d1").Return(nil)

	w := serve(router, http.MethodPost, "/api/v1/certificates/"+rec.ID.String()+"/generate", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, artifact.URL, body["pdf_url"])
	assert.Equal(t, "d1", body["pdf_digest"])
}

func TestHandlerErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"encoding", &EncodingError{Payload: "p", Err: errors.New("x")}, http.StatusUnprocessableEntity},
		{"render", &RenderError{CertificateNumber: "n", Err: errors.New("x")}, http.StatusInternalServerError},
		{"upload", &UploadError{Key: "k", Err: errors.New("x")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			gen := new(MockArtifactGenerator)
			router := newTestRouter(t, repo, gen)
			rec := sampleRecord()

			repo.On("GetCertificateByID", mock.Anything, rec.ID).Return(rec, nil)
			gen.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := serve(router, http.MethodPost, "/api/v1/certificates/"+rec.ID.String()+"/generate", nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandlerRevokedIsConflict(t *testing.T) {
	repo := new(MockRepository)
	gen := new(MockArtifactGenerator)
	router := newTestRouter(t, repo, gen)
	rec := sampleRecord()
	rec.Status = StatusRevoked

	repo.On("GetCertificateByID", mock.Anything, rec.ID).Return(rec, nil)

	w := serve(router, http.MethodGet, "/api/v1/certificates/"+rec.ID.String()+"/download", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestHandlerDownloadRedirects(t *testing.T) {
	repo := new(MockRepository)
	router := newTestRouter(t, repo, new(MockArtifactGenerator))
	rec := sampleRecord()
	url := "https://cdn.example.org/certificates/certificate_CL_2024_00123.pdf"
	rec.PDFURL = &url

	repo.On("GetCertificateByID", mock.Anything, rec.ID).Return(rec, nil)

	w := serve(router, http.MethodGet, "/api/v1/certificates/"+rec.ID.String()+"/download", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, url, w.Header().Get("Location"))
}

func TestHandlerPreview(t *testing.T) {
	repo := new(MockRepository)
	router := newTestRouter(t, repo, new(MockArtifactGenerator))
	rec := sampleRecord()

	repo.On("GetCertificateByID", mock.Anything, rec.ID).Return(rec, nil)

	w := serve(router, http.MethodGet, "/api/v1/certificates/"+rec.ID.String()+"/preview", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Equal(t, "Certificate_CL-2024/00123.pdf", w.Header().Get("X-Download-Filename"))
	assert.Contains(t, w.Body.String(), "Giulia Bianchi")
}

func TestHandlerInvalidID(t *testing.T) {
	router := newTestRouter(t, new(MockRepository), new(MockArtifactGenerator))

	w := serve(router, http.MethodPost, "/api/v1/certificates/not-a-uuid/generate", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerNotFound(t *testing.T) {
	repo := new(MockRepository)
	router := newTestRouter(t, repo, new(MockArtifactGenerator))
	id := uuid.New()

	repo.On("GetCertificateByID", mock.Anything, id).Return(nil, nil)

	w := serve(router, http.MethodGet, "/api/v1/certificates/"+id.String()+"/preview", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerRevoke(t *testing.T) {
	repo := new(MockRepository)
	router := newTestRouter(t, repo, new(MockArtifactGenerator))
	rec := sampleRecord()

	repo.On("GetCertificateByID", mock.Anything, rec.ID).Return(rec, nil)
	repo.On("Revoke", mock.Anything, rec.ID, "fraud", fixedNow).Return(nil)

	w := serve(router, http.MethodPost, "/api/v1/certificates/"+rec.ID.String()+"/revoke", []byte(`{"reason":"fraud"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var body CertificateRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusRevoked, body.Status)

	w = serve(router, http.MethodPost, "/api/v1/certificates/"+rec.ID.String()+"/revoke", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerVerify(t *testing.T) {
	repo := new(MockRepository)
	router := newTestRouter(t, repo, new(MockArtifactGenerator))
	rec := sampleRecord()

	repo.On("GetCertificateByVerificationCode", mock.Anything, rec.VerificationCode).Return(rec, nil)
	repo.On("GetCertificateByVerificationCode", mock.Anything, "unknown").Return(nil, nil)

	w := serve(router, http.MethodGet, "/verify/"+rec.VerificationCode, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result VerificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, "Giulia Bianchi", result.CandidateName)

	w = serve(router, http.MethodGet, "/verify/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerVerifyArtifact(t *testing.T) {
	repo := new(MockRepository)
	router := newTestRouter(t, repo, new(MockArtifactGenerator))
	doc := []byte("%PDF-1.3 issued")
	digest := security.Digest(doc)
	rec := sampleRecord()
	rec.PDFDigest = &digest

	repo.On("GetCertificateByVerificationCode", mock.Anything, rec.VerificationCode).Return(rec, nil)

	req := httptest.NewRequest(http.MethodPost, "/verify/"+rec.VerificationCode+"/artifact", bytes.NewReader(doc)).
		WithContext(context.Background())
	req.Header.Set("Content-Type", "application/pdf")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var info security.IntegrityInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.IsValid)
	assert.Equal(t, digest, info.ActualDigest)
}
