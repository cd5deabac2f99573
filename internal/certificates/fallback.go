package certificates

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"

	"go.uber.org/zap"
)

//go:embed templates/certificate.html.tmpl
var templateFS embed.FS

var certificateTemplate = template.Must(template.ParseFS(templateFS, "templates/certificate.html.tmpl"))

// DownloadFilename is the name a browser-side conversion saves the
// fallback certificate under
func DownloadFilename(certificateNumber string) string {
	return "Certificate_" + certificateNumber + ".pdf"
}

// HTMLRenderer produces a self-contained HTML certificate for client-side
// conversion. It shares the input with LayoutEngine but nothing else.
type HTMLRenderer struct {
	issuer   *Issuer
	branding Branding
	logger   *zap.Logger
}

func NewHTMLRenderer(issuer *Issuer, branding Branding, logger *zap.Logger) *HTMLRenderer {
	return &HTMLRenderer{
		issuer:   issuer,
		branding: branding,
		logger:   logger,
	}
}

type htmlScore struct {
	Label string
	Value string
}

type htmlView struct {
	Filename            string
	CertificateNumber   string
	VerificationCode    string
	VerificationURL     string
	QRCode              template.URL
	CandidateName       string
	CandidateFiscalCode string
	Language            string
	Level               string
	Scores              []htmlScore
	TotalScore          string
	Grade               GradeLabel
	ExamCenterName      string
	ExamDate            string
	IssueDate           string
	ExpiryDate          string
	Branding            Branding
}

// Render returns the certificate markup. An unencodable verification code
// drops the image but keeps the link; missing optional fields are omitted.
func (r *HTMLRenderer) Render(data CertificateData) (string, error) {
	link, qrPNG, err := r.issuer.ScannableImage(data.VerificationCode)
	var qrURI template.URL
	if err != nil {
		r.logger.Warn("Verification image omitted from HTML certificate",
			zap.String("certificate_number", data.CertificateNumber),
			zap.Error(err))
	} else {
		qrURI = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG))
	}

	view := htmlView{
		Filename:            DownloadFilename(data.CertificateNumber),
		CertificateNumber:   data.CertificateNumber,
		VerificationCode:    data.VerificationCode,
		VerificationURL:     link,
		QRCode:              qrURI,
		CandidateName:       data.CandidateName,
		CandidateFiscalCode: data.CandidateFiscalCode,
		Language:            data.Language,
		Level:               data.Level,
		Scores: []htmlScore{
			{"Listening", FormatScore(data.ListeningScore)},
			{"Reading", FormatScore(data.ReadingScore)},
			{"Writing", FormatScore(data.WritingScore)},
			{"Speaking", FormatScore(data.SpeakingScore)},
		},
		TotalScore:     FormatScore(data.TotalScore),
		Grade:          Grade(data.TotalScore),
		ExamCenterName: data.ExamCenterName,
		ExamDate:       FormatDate(data.ExamDate),
		IssueDate:      FormatDate(data.IssueDate),
		ExpiryDate:     FormatDate(data.ExpiryDate),
		Branding:       r.branding,
	}

	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to execute certificate template: %w", err)
	}
	return buf.String(), nil
}
