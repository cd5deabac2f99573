package certificates

import (
	"net/url"
	"strings"

	"e-learning-system/certification-backend/pkg/qrcode"
)

// Issuer builds verification links and their scannable images
type Issuer struct {
	baseURL string
	encoder qrcode.Encoder
	size    int
	margin  int
}

// NewIssuer creates an issuer for links under baseURL. size is the image
// edge in pixels and margin the quiet zone in modules.
func NewIssuer(baseURL string, encoder qrcode.Encoder, size, margin int) *Issuer {
	return &Issuer{
		baseURL: strings.TrimRight(baseURL, "/"),
		encoder: encoder,
		size:    size,
		margin:  margin,
	}
}

// VerificationURL returns <base>/verify/<code>
func (i *Issuer) VerificationURL(code string) string {
	return i.baseURL + "/verify/" + url.PathEscape(code)
}

// ScannableImage returns the verification URL for code and a PNG encoding it
func (i *Issuer) ScannableImage(code string) (string, []byte, error) {
	link := i.VerificationURL(code)
	img, err := i.encoder.Encode(link, i.size, i.margin)
	if err != nil {
		return link, nil, &EncodingError{Payload: link, Err: err}
	}
	return link, img, nil
}
