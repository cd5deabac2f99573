package security

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Digest([]byte("abc")))
}

func TestVerifyDigest(t *testing.T) {
	d := Digest([]byte("abc"))
	assert.True(t, VerifyDigest(d, strings.ToUpper(d)))
	assert.False(t, VerifyDigest(d, Digest([]byte("abd"))))
	assert.False(t, VerifyDigest(d, ""))
}

func TestValidatePDF(t *testing.T) {
	doc := []byte("%PDF-1.3\n1 0 obj\nendobj\n%%EOF")
	v := NewValidator()

	info, err := v.ValidatePDF(context.Background(), bytes.NewReader(doc), Digest(doc))
	require.NoError(t, err)
	assert.True(t, info.IsPDF)
	assert.True(t, info.IsValid)
	assert.Equal(t, int64(len(doc)), info.Size)
	assert.Equal(t, DigestAlgorithm, info.Algorithm)

	tampered := append([]byte(nil), doc...)
	tampered[len(tampered)-1] = 'X'
	info, err = v.ValidatePDF(context.Background(), bytes.NewReader(tampered), Digest(doc))
	require.NoError(t, err)
	assert.False(t, info.IsValid)
}

func TestValidatePDFRejectsNonPDF(t *testing.T) {
	data := []byte("hello")
	info, err := NewValidator().ValidatePDF(context.Background(), bytes.NewReader(data), Digest(data))
	require.NoError(t, err)
	assert.False(t, info.IsPDF)
	assert.False(t, info.IsValid)
}

func TestValidatePDFShortInput(t *testing.T) {
	info, err := NewValidator().ValidatePDF(context.Background(), bytes.NewReader([]byte("%P")), "x")
	require.NoError(t, err)
	assert.False(t, info.IsPDF)
	assert.Equal(t, int64(2), info.Size)
}
