package certificates

import (
	"context"
	"path"
	"strings"

	"go.uber.org/zap"

	"e-learning-system/certification-backend/pkg/security"
	"e-learning-system/certification-backend/pkg/storage"
)

const (
	DefaultFolder = "certificates"

	artifactPrefix      = "certificate_"
	artifactExtension   = ".pdf"
	artifactContentType = "application/pdf"
)

// Publisher stores rendered certificates under a key derived from the
// certificate number
type Publisher struct {
	store  storage.BlobStore
	folder string
	logger *zap.Logger
}

func NewPublisher(store storage.BlobStore, folder string, logger *zap.Logger) *Publisher {
	if folder == "" {
		folder = DefaultFolder
	}
	return &Publisher{
		store:  store,
		folder: strings.Trim(folder, "/"),
		logger: logger,
	}
}

// SanitizeCertificateNumber replaces every character outside [A-Za-z0-9]
// with an underscore, one for one
func SanitizeCertificateNumber(number string) string {
	var b strings.Builder
	b.Grow(len(number))
	for _, r := range number {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StorageKey returns the object key for a certificate number
func (p *Publisher) StorageKey(certificateNumber string) string {
	return path.Join(p.folder, artifactPrefix+SanitizeCertificateNumber(certificateNumber)+artifactExtension)
}

// Publish uploads data, overwriting any previous artifact for the same
// certificate number, and returns where it landed. The digest stored in the
// object metadata is the one returned. Failures are returned as *UploadError
// without retry.
func (p *Publisher) Publish(ctx context.Context, data []byte, certificateNumber string) (*Artifact, error) {
	key := p.StorageKey(certificateNumber)
	digest := security.Digest(data)
	err := p.store.Upload(ctx, key, data, storage.ObjectOptions{
		ContentType: artifactContentType,
		Metadata: map[string]string{
			"certificate-number": certificateNumber,
			"sha256":             digest,
		},
	})
	if err != nil {
		p.logger.Error("Failed to publish certificate",
			zap.String("certificate_number", certificateNumber),
			zap.String("key", key),
			zap.Error(err))
		return nil, &UploadError{Key: key, Err: err}
	}

	url := p.store.PublicURL(key)
	p.logger.Info("Certificate published",
		zap.String("certificate_number", certificateNumber),
		zap.String("url", url),
		zap.Int("bytes", len(data)))
	return &Artifact{URL: url, Key: key, Digest: digest, Size: len(data)}, nil
}
