package certificates

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxArtifactBytes bounds documents submitted for integrity checks
const maxArtifactBytes = 10 << 20

// Handler handles HTTP requests for certificate operations
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the authenticated certificate routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	certs := router.Group("/certificates")
	{
		certs.POST("/:id/generate", h.generate)
		certs.GET("/:id/download", h.download)
		certs.GET("/:id/preview", h.preview)
		certs.POST("/:id/revoke", h.revoke)
	}
}

// RegisterPublicRoutes registers the verification routes the scannable code
// points at
func (h *Handler) RegisterPublicRoutes(router gin.IRoutes) {
	router.GET("/verify/:code", h.verify)
	router.POST("/verify/:code/artifact", h.verifyArtifact)
}

type revokeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// generate handles POST /api/v1/certificates/:id/generate
func (h *Handler) generate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	artifact, err := h.service.GenerateCertificate(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to generate certificate", err)
		return
	}

	c.JSON(http.StatusOK, artifact)
}

// download handles GET /api/v1/certificates/:id/download
func (h *Handler) download(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	url, err := h.service.DownloadURL(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to resolve certificate download", err)
		return
	}

	c.Redirect(http.StatusFound, url)
}

// preview handles GET /api/v1/certificates/:id/preview
func (h *Handler) preview(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	p, err := h.service.PreviewCertificate(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to preview certificate", err)
		return
	}

	c.Header("X-Download-Filename", p.Filename)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(p.HTML))
}

// revoke handles POST /api/v1/certificates/:id/revoke
func (h *Handler) revoke(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.service.RevokeCertificate(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeError(c, "Failed to revoke certificate", err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// verify handles GET /verify/:code
func (h *Handler) verify(c *gin.Context) {
	result, err := h.service.VerifyCertificate(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, "Failed to verify certificate", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// verifyArtifact handles POST /verify/:code/artifact with the document as body
func (h *Handler) verifyArtifact(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxArtifactBytes)
	defer body.Close()

	info, err := h.service.VerifyArtifact(c.Request.Context(), c.Param("code"), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document too large"})
			return
		}
		h.writeError(c, "Failed to verify certificate document", err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate ID"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors to status codes
func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	var (
		encErr    *EncodingError
		uploadErr *UploadError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrCertificateNotFound), errors.Is(err, ErrArtifactMissing):
		status = http.StatusNotFound
	case errors.Is(err, ErrCertificateRevoked), errors.Is(err, ErrInvalidTransition):
		status = http.StatusConflict
	case errors.As(err, &encErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &uploadErr):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	} else {
		h.logger.Info(msg, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
