package security

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

const DigestAlgorithm = "SHA-256"

var pdfMagic = []byte("%PDF-")

// IntegrityInfo describes the result of checking an artifact against its
// recorded digest
type IntegrityInfo struct {
	Algorithm      string    `json:"algorithm"`
	ExpectedDigest string    `json:"expected_digest"`
	ActualDigest   string    `json:"actual_digest"`
	IsPDF          bool      `json:"is_pdf"`
	IsValid        bool      `json:"is_valid"`
	Size           int64     `json:"size"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Validator checks submitted documents against a recorded digest
type Validator interface {
	ValidatePDF(ctx context.Context, pdf io.Reader, expectedDigest string) (*IntegrityInfo, error)
}

type digestValidator struct {
	now func() time.Time
}

func NewValidator() Validator {
	return &digestValidator{now: time.Now}
}

func (v *digestValidator) ValidatePDF(ctx context.Context, pdf io.Reader, expectedDigest string) (*IntegrityInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	br := bufio.NewReader(pdf)
	head, err := br.Peek(len(pdfMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read document header: %w", err)
	}
	isPDF := bytes.Equal(head, pdfMagic)

	h := sha256.New()
	n, err := io.Copy(h, br)
	if err != nil {
		return nil, fmt.Errorf("failed to hash document: %w", err)
	}
	actual := hex.EncodeToString(h.Sum(nil))

	return &IntegrityInfo{
		Algorithm:      DigestAlgorithm,
		ExpectedDigest: expectedDigest,
		ActualDigest:   actual,
		IsPDF:          isPDF,
		IsValid:        isPDF && VerifyDigest(actual, expectedDigest),
		Size:           n,
		CheckedAt:      v.now(),
	}, nil
}

// Digest returns the lowercase hex SHA-256 of data
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyDigest compares two hex digests in constant time, ignoring case
func VerifyDigest(actual, expected string) bool {
	if expected == "" {
		return false
	}
	a := []byte(strings.ToLower(actual))
	e := []byte(strings.ToLower(expected))
	return subtle.ConstantTimeCompare(a, e) == 1
}
