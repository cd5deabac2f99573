package certificates

import (
	"errors"
	"fmt"
)

var (
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrCertificateRevoked  = errors.New("certificate has been revoked")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrArtifactMissing     = errors.New("certificate document has not been generated")
)

// EncodingError means the verification payload could not be turned into a
// scannable image. Nothing has been drawn when it is returned.
type EncodingError struct {
	Payload string
	Err     error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode verification code image for %q: %v", e.Payload, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// RenderError means page composition or serialization failed. No document
// is returned with it.
type RenderError struct {
	CertificateNumber string
	Err               error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render certificate %s: %v", e.CertificateNumber, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// UploadError means the rendered bytes are valid but could not be stored.
// Publishing may be retried without rendering again.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload certificate to %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
