package certificates

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"e-learning-system/certification-backend/pkg/pdf"
)

const (
	PageWidth  = 842.0
	PageHeight = 595.0

	DateLayout = "2 January 2006"

	qrImageName = "verification-qr"

	fontDisplay = pdf.FontUnicode
	fontSans    = pdf.FontUnicode
)

var (
	colorPaper = pdf.Color{R: 253, G: 251, B: 245}
	colorNavy  = pdf.Color{R: 26, G: 54, B: 93}
	colorGold  = pdf.Color{R: 184, G: 148, B: 60}
	colorPanel = pdf.Color{R: 237, G: 242, B: 249}
	colorText  = pdf.Color{R: 33, G: 37, B: 41}
	colorMuted = pdf.Color{R: 108, G: 117, B: 125}
	colorRule  = pdf.Color{R: 206, G: 212, B: 218}
	colorWhite = pdf.Color{R: 255, G: 255, B: 255}
)

// Branding is the issuer-specific text printed on every certificate
type Branding struct {
	OrganizationName string `json:"organization_name"`
	Tagline          string `json:"tagline"`
	BadgeTitle       string `json:"badge_title"`
	BadgeSubtitle    string `json:"badge_subtitle"`
	SignatoryName    string `json:"signatory_name"`
	SignatoryTitle   string `json:"signatory_title"`
	LegalNotice      string `json:"legal_notice"`
}

// LayoutEngine composes the fixed landscape certificate page
type LayoutEngine struct {
	issuer    *Issuer
	generator pdf.Generator
	branding  Branding
}

func NewLayoutEngine(issuer *Issuer, generator pdf.Generator, branding Branding) *LayoutEngine {
	return &LayoutEngine{
		issuer:    issuer,
		generator: generator,
		branding:  branding,
	}
}

// Render encodes the verification image, composes the page and serializes
// it. Either the complete document is returned or an error.
func (e *LayoutEngine) Render(ctx context.Context, data CertificateData) ([]byte, error) {
	_, qrPNG, err := e.issuer.ScannableImage(data.VerificationCode)
	if err != nil {
		return nil, err
	}

	page := e.Compose(data, qrPNG)

	out, err := e.generator.Render(ctx, page, pdf.DocumentInfo{
		Title:     "Certificate " + data.CertificateNumber,
		Subject:   fmt.Sprintf("%s language certificate, level %s", data.Language, data.Level),
		Author:    e.branding.OrganizationName,
		Creator:   "certification-backend",
		Keywords:  data.VerificationCode,
		CreatedAt: data.IssueDate.UTC(),
	})
	if err != nil {
		return nil, &RenderError{CertificateNumber: data.CertificateNumber, Err: err}
	}
	return out, nil
}

// Compose builds the page description. The section order is the z-order.
func (e *LayoutEngine) Compose(data CertificateData, qrPNG []byte) *pdf.Page {
	page := pdf.NewPage(PageWidth, PageHeight)

	e.drawFrame(page)
	e.drawComplianceBadge(page)
	e.drawHeader(page)
	e.drawTitle(page, data)
	e.drawCandidate(page, data)
	e.drawStatement(page, data)
	e.drawLevelBadge(page, data)
	e.drawScores(page, data)
	e.drawVerificationCode(page, qrPNG)
	e.drawFooter(page, data)

	return page
}

func (e *LayoutEngine) drawFrame(page *pdf.Page) {
	page.Draw(
		pdf.Rect{X: 0, Y: 0, W: PageWidth, H: PageHeight, Fill: &colorPaper},
		pdf.Rect{X: 15, Y: 15, W: PageWidth - 30, H: PageHeight - 30, Stroke: &colorNavy, LineWidth: 3},
		pdf.Rect{X: 23, Y: 23, W: PageWidth - 46, H: PageHeight - 46, Stroke: &colorGold, LineWidth: 1},
	)
}

func (e *LayoutEngine) drawComplianceBadge(page *pdf.Page) {
	const x, y, w = 702.0, 35.0, 105.0
	page.Draw(
		pdf.Rect{X: x, Y: y, W: w, H: 42, Fill: &colorNavy},
		pdf.Text{X: x, Y: y + 5, W: w, H: 18, Value: e.branding.BadgeTitle,
			Font: pdf.Font{Family: fontSans, Style: "B", Size: 12}, Color: colorWhite, Align: pdf.AlignCenter},
		pdf.Text{X: x, Y: y + 22, W: w, H: 14, Value: e.branding.BadgeSubtitle,
			Font: pdf.Font{Family: fontSans, Size: 8}, Color: colorWhite, Align: pdf.AlignCenter},
	)
}

func (e *LayoutEngine) drawHeader(page *pdf.Page) {
	page.Draw(
		pdf.Text{X: 0, Y: 40, W: PageWidth, H: 32, Value: e.branding.OrganizationName,
			Font: pdf.Font{Family: fontDisplay, Style: "B", Size: 26}, Color: colorNavy, Align: pdf.AlignCenter},
		pdf.Text{X: 0, Y: 72, W: PageWidth, H: 16, Value: e.branding.Tagline,
			Font: pdf.Font{Family: fontSans, Style: "I", Size: 11}, Color: colorMuted, Align: pdf.AlignCenter},
		pdf.Line{X1: 160, Y1: 96, X2: PageWidth - 160, Y2: 96, Color: colorGold, Width: 1.5},
	)
}

func (e *LayoutEngine) drawTitle(page *pdf.Page, data CertificateData) {
	page.Draw(
		pdf.Text{X: 0, Y: 108, W: PageWidth, H: 28, Value: "Certificate of Language Competency",
			Font: pdf.Font{Family: fontDisplay, Style: "B", Size: 22}, Color: colorNavy, Align: pdf.AlignCenter},
		pdf.Text{X: 0, Y: 136, W: PageWidth, H: 14,
			Value: fmt.Sprintf("No. %s  |  Verification code: %s", data.CertificateNumber, data.VerificationCode),
			Font:  pdf.Font{Family: fontSans, Size: 9}, Color: colorMuted, Align: pdf.AlignCenter},
	)
}

func (e *LayoutEngine) drawCandidate(page *pdf.Page, data CertificateData) {
	page.Draw(
		pdf.Rect{X: 60, Y: 162, W: 460, H: 66, Fill: &colorPanel},
		pdf.Text{X: 75, Y: 168, W: 430, H: 14, Value: "This is to certify that",
			Font: pdf.Font{Family: fontSans, Style: "I", Size: 10}, Color: colorMuted, Align: pdf.AlignLeft},
		pdf.Text{X: 75, Y: 184, W: 430, H: 26, Value: data.CandidateName,
			Font: pdf.Font{Family: fontDisplay, Style: "B", Size: 22}, Color: colorNavy, Align: pdf.AlignLeft},
	)
	if data.CandidateFiscalCode != "" {
		page.Draw(pdf.Text{X: 75, Y: 210, W: 430, H: 14, Value: "Fiscal code: " + data.CandidateFiscalCode,
			Font: pdf.Font{Family: fontSans, Size: 9}, Color: colorText, Align: pdf.AlignLeft})
	}
}

func (e *LayoutEngine) drawStatement(page *pdf.Page, data CertificateData) {
	page.Draw(pdf.Paragraph{
		X: 60, Y: 240, W: 460, LineHeight: 14,
		Value: fmt.Sprintf("has successfully passed the %s language proficiency examination held at %s, "+
			"demonstrating the listening, reading, writing and speaking competencies required "+
			"for the level certified by this document.", data.Language, data.ExamCenterName),
		Font:  pdf.Font{Family: fontSans, Size: 11},
		Color: colorText,
		Align: pdf.AlignJustify,
	})
}

func (e *LayoutEngine) drawLevelBadge(page *pdf.Page, data CertificateData) {
	const x, y, w = 60.0, 318.0, 150.0
	page.Draw(
		pdf.Rect{X: x, Y: y, W: w, H: 88, Fill: &colorNavy},
		pdf.Text{X: x, Y: y + 8, W: w, H: 44, Value: data.Level,
			Font: pdf.Font{Family: fontDisplay, Style: "B", Size: 36}, Color: colorWhite, Align: pdf.AlignCenter},
		pdf.Text{X: x, Y: y + 54, W: w, H: 13, Value: "Common European Framework",
			Font: pdf.Font{Family: fontSans, Style: "B", Size: 8}, Color: colorWhite, Align: pdf.AlignCenter},
		pdf.Text{X: x, Y: y + 68, W: w, H: 13, Value: "of Reference for Languages",
			Font: pdf.Font{Family: fontSans, Size: 8}, Color: colorWhite, Align: pdf.AlignCenter},
	)

	label := pdf.Font{Family: fontSans, Size: 8}
	value := pdf.Font{Family: fontSans, Style: "B", Size: 13}
	page.Draw(
		pdf.Text{X: 225, Y: 326, W: 295, H: 12, Value: "LANGUAGE", Font: label, Color: colorMuted},
		pdf.Text{X: 225, Y: 339, W: 295, H: 18, Value: data.Language, Font: value, Color: colorNavy},
		pdf.Text{X: 225, Y: 364, W: 295, H: 12, Value: "EXAM CENTRE", Font: label, Color: colorMuted},
		pdf.Text{X: 225, Y: 377, W: 295, H: 18, Value: data.ExamCenterName, Font: value, Color: colorNavy},
	)
}

// skillRow is one line of the score table
type skillRow struct {
	label string
	score float64
}

func (e *LayoutEngine) drawScores(page *pdf.Page, data CertificateData) {
	const (
		panelX, panelY, panelW, panelH = 560.0, 162.0, 237.0, 300.0
		rowX, rowW                     = 575.0, 207.0
		rowTop, rowH                   = 196.0, 22.0
	)

	page.Draw(
		pdf.Rect{X: panelX, Y: panelY, W: panelW, H: panelH, Fill: &colorWhite, Stroke: &colorNavy, LineWidth: 1},
		pdf.Text{X: panelX, Y: panelY + 8, W: panelW, H: 16, Value: "EXAMINATION RESULTS",
			Font: pdf.Font{Family: fontSans, Style: "B", Size: 10}, Color: colorNavy, Align: pdf.AlignCenter},
		pdf.Line{X1: rowX, Y1: 190, X2: rowX + rowW, Y2: 190, Color: colorNavy, Width: 0.75},
	)

	rows := []skillRow{
		{"Listening", data.ListeningScore},
		{"Reading", data.ReadingScore},
		{"Writing", data.WritingScore},
		{"Speaking", data.SpeakingScore},
	}
	for i, row := range rows {
		y := rowTop + float64(i)*rowH
		page.Draw(
			pdf.Text{X: rowX, Y: y, W: 120, H: rowH - 2, Value: row.label,
				Font: pdf.Font{Family: fontSans, Size: 10}, Color: colorText, Align: pdf.AlignLeft},
			pdf.Text{X: rowX + rowW - 120, Y: y, W: 120, H: rowH - 2, Value: FormatScore(row.score) + "/100",
				Font: pdf.Font{Family: fontSans, Style: "B", Size: 10}, Color: colorNavy, Align: pdf.AlignRight},
			pdf.Line{X1: rowX, Y1: y + rowH - 1, X2: rowX + rowW, Y2: y + rowH - 1, Color: colorRule, Width: 0.5},
		)
	}

	const totalY = 290.0
	page.Draw(
		pdf.Rect{X: rowX, Y: totalY, W: rowW, H: 40, Fill: &colorGold},
		pdf.Text{X: rowX + 8, Y: totalY + 4, W: 100, H: 14, Value: "TOTAL SCORE",
			Font: pdf.Font{Family: fontSans, Style: "B", Size: 9}, Color: colorWhite, Align: pdf.AlignLeft},
		pdf.Text{X: rowX + 8, Y: totalY + 18, W: 100, H: 20, Value: FormatScore(data.TotalScore),
			Font: pdf.Font{Family: fontDisplay, Style: "B", Size: 18}, Color: colorWhite, Align: pdf.AlignLeft},
		pdf.Text{X: rowX + 105, Y: totalY + 9, W: rowW - 113, H: 22, Value: string(Grade(data.TotalScore)),
			Font: pdf.Font{Family: fontSans, Style: "B", Size: 12}, Color: colorWhite, Align: pdf.AlignRight},
	)
}

func (e *LayoutEngine) drawVerificationCode(page *pdf.Page, qrPNG []byte) {
	const size = 100.0
	x := 560.0 + (237.0-size)/2
	page.Draw(
		pdf.Image{Name: qrImageName, Format: "png", Data: qrPNG, X: x, Y: 340, W: size, H: size},
		pdf.Text{X: 560, Y: 442, W: 237, H: 12, Value: "Scan to verify authenticity",
			Font: pdf.Font{Family: fontSans, Size: 7}, Color: colorMuted, Align: pdf.AlignCenter},
	)
}

func (e *LayoutEngine) drawFooter(page *pdf.Page, data CertificateData) {
	page.Draw(pdf.Line{X1: 60, Y1: 478, X2: PageWidth - 60, Y2: 478, Color: colorGold, Width: 1})

	dates := []struct {
		label string
		value time.Time
	}{
		{"EXAM DATE", data.ExamDate},
		{"ISSUE DATE", data.IssueDate},
		{"EXPIRY DATE", data.ExpiryDate},
	}
	for i, d := range dates {
		x := 60.0 + float64(i)*140
		page.Draw(
			pdf.Text{X: x, Y: 486, W: 130, H: 12, Value: d.label,
				Font: pdf.Font{Family: fontSans, Size: 8}, Color: colorMuted, Align: pdf.AlignLeft},
			pdf.Text{X: x, Y: 499, W: 130, H: 16, Value: FormatDate(d.value),
				Font: pdf.Font{Family: fontSans, Style: "B", Size: 11}, Color: colorNavy, Align: pdf.AlignLeft},
		)
	}

	page.Draw(
		pdf.Line{X1: 560, Y1: 512, X2: 782, Y2: 512, Color: colorNavy, Width: 0.75},
		pdf.Text{X: 560, Y: 515, W: 222, H: 14, Value: e.branding.SignatoryName,
			Font: pdf.Font{Family: fontSans, Style: "B", Size: 10}, Color: colorText, Align: pdf.AlignCenter},
		pdf.Text{X: 560, Y: 529, W: 222, H: 12, Value: e.branding.SignatoryTitle,
			Font: pdf.Font{Family: fontSans, Style: "I", Size: 8}, Color: colorMuted, Align: pdf.AlignCenter},
		pdf.Text{X: 0, Y: 552, W: PageWidth, H: 12, Value: e.branding.LegalNotice,
			Font: pdf.Font{Family: fontSans, Size: 7}, Color: colorMuted, Align: pdf.AlignCenter},
	)
}

// FormatScore prints a score as given, without rounding or clamping
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// FormatDate prints a date as day, full month name and year
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}
