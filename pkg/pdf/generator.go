package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ErrEmptyImage is returned when an image command carries no data
var ErrEmptyImage = errors.New("image has no data")

// fallbackCreatedAt stands in for a zero CreatedAt, which gofpdf would
// otherwise replace with the wall clock
var fallbackCreatedAt = time.Unix(0, 0).UTC()

// Generator serializes a page description into a finished PDF document
type Generator interface {
	Render(ctx context.Context, page *Page, info DocumentInfo) ([]byte, error)
}

// DocumentInfo is written into the PDF information dictionary. CreatedAt is
// used for both creation and modification dates so that identical input
// yields identical bytes; a zero CreatedAt is written as the Unix epoch.
type DocumentInfo struct {
	Title     string    `json:"title"`
	Subject   string    `json:"subject,omitempty"`
	Author    string    `json:"author,omitempty"`
	Creator   string    `json:"creator,omitempty"`
	Keywords  string    `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GeneratorOptions configures PDF serialization
type GeneratorOptions struct {
	Compress    bool   `json:"compress"`
	CodePage    string `json:"code_page"` // core fonts only, empty means cp1252
	DefaultFont Font   `json:"default_font"`
}

// DefaultGeneratorOptions returns default serialization options
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		Compress:    true,
		DefaultFont: Font{Family: FontUnicode, Size: 10},
	}
}

type gofpdfGenerator struct {
	options GeneratorOptions
}

// NewGenerator creates a gofpdf backed generator
func NewGenerator(options GeneratorOptions) Generator {
	return &gofpdfGenerator{options: options}
}

// Render draws every command onto a fresh document. Nothing is returned
// unless the whole page serialized cleanly.
func (g *gofpdfGenerator) Render(ctx context.Context, page *Page, info DocumentInfo) ([]byte, error) {
	if page == nil {
		return nil, errors.New("page is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height := page.Size()
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation(width, height),
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: minf(width, height), Ht: maxf(width, height)},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetCellMargin(0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCompression(g.options.Compress)
	doc.SetCatalogSort(true)
	created := info.CreatedAt
	if created.IsZero() {
		created = fallbackCreatedAt
	}
	doc.SetCreationDate(created)
	doc.SetModificationDate(created)
	doc.SetTitle(info.Title, true)
	if info.Subject != "" {
		doc.SetSubject(info.Subject, true)
	}
	if info.Author != "" {
		doc.SetAuthor(info.Author, true)
	}
	if info.Creator != "" {
		doc.SetCreator(info.Creator, true)
	}
	if info.Keywords != "" {
		doc.SetKeywords(info.Keywords, true)
	}
	doc.AddPage()

	st := &drawState{
		doc:   doc,
		fonts: newFontSet(doc),
		tr:    doc.UnicodeTranslatorFromDescriptor(g.options.CodePage),
	}

	for i, cmd := range page.Commands() {
		if err := g.draw(st, cmd); err != nil {
			return nil, fmt.Errorf("failed to draw command %d (%T): %w", i, cmd, err)
		}
		if doc.Err() {
			return nil, fmt.Errorf("failed to draw command %d (%T): %w", i, cmd, doc.Error())
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return buf.Bytes(), nil
}

// drawState is the per-document state of one Render call
type drawState struct {
	doc   *gofpdf.Fpdf
	fonts *fontSet
	tr    func(string) string
}

func (g *gofpdfGenerator) draw(st *drawState, cmd Command) error {
	doc := st.doc
	switch c := cmd.(type) {
	case Rect:
		style := ""
		if c.Fill != nil {
			doc.SetFillColor(c.Fill.R, c.Fill.G, c.Fill.B)
			style += "F"
		}
		if c.Stroke != nil {
			doc.SetDrawColor(c.Stroke.R, c.Stroke.G, c.Stroke.B)
			doc.SetLineWidth(lineWidth(c.LineWidth))
			style += "D"
		}
		if style == "" {
			return nil
		}
		doc.Rect(c.X, c.Y, c.W, c.H, style)
	case Line:
		doc.SetDrawColor(c.Color.R, c.Color.G, c.Color.B)
		doc.SetLineWidth(lineWidth(c.Width))
		doc.Line(c.X1, c.Y1, c.X2, c.Y2)
	case Text:
		value := g.setFont(st, c.Font, c.Value)
		doc.SetTextColor(c.Color.R, c.Color.G, c.Color.B)
		doc.SetXY(c.X, c.Y)
		doc.CellFormat(c.W, c.H, value, "", 0, string(alignOrDefault(c.Align))+"M", false, 0, "")
	case Paragraph:
		value := g.setFont(st, c.Font, c.Value)
		doc.SetTextColor(c.Color.R, c.Color.G, c.Color.B)
		doc.SetXY(c.X, c.Y)
		doc.MultiCell(c.W, c.LineHeight, value, "", string(alignOrDefault(c.Align)), false)
	case Image:
		if len(c.Data) == 0 {
			return ErrEmptyImage
		}
		opts := gofpdf.ImageOptions{ImageType: strings.ToLower(c.Format)}
		doc.RegisterImageOptionsReader(c.Name, opts, bytes.NewReader(c.Data))
		if doc.Err() {
			return doc.Error()
		}
		doc.ImageOptions(c.Name, c.X, c.Y, c.W, c.H, false, opts, 0, "")
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

// setFont selects the face for f and returns text encoded for it. Embedded
// faces take UTF-8 as is; core faces go through the code page translator.
func (g *gofpdfGenerator) setFont(st *drawState, f Font, text string) string {
	family := f.Family
	if family == "" {
		family = g.options.DefaultFont.Family
	}
	size := f.Size
	if size == 0 {
		size = g.options.DefaultFont.Size
	}
	if isUnicodeFamily(family) {
		style := normalizeStyle(f.Style)
		st.fonts.ensure(style)
		st.doc.SetFont(FontUnicode, style, size)
		return text
	}
	st.doc.SetFont(family, f.Style, size)
	return st.tr(text)
}

func alignOrDefault(a Align) Align {
	if a == "" {
		return AlignLeft
	}
	return a
}

func lineWidth(w float64) float64 {
	if w <= 0 {
		return 0.5
	}
	return w
}

func orientation(width, height float64) string {
	if width > height {
		return "L"
	}
	return "P"
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
