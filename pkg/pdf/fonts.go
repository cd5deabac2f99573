package pdf

import (
	_ "embed"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// FontUnicode is the embedded TrueType family. Text set in it is written as
// UTF-8, so any script DejaVu covers prints as given. Core families (Arial,
// Times, Courier) remain limited to the configured code page.
const FontUnicode = "DejaVu"

//go:embed fonts/DejaVuSansCondensed.ttf
var dejaVuRegular []byte

//go:embed fonts/DejaVuSansCondensed-Bold.ttf
var dejaVuBold []byte

//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
var dejaVuOblique []byte

//go:embed fonts/DejaVuSansCondensed-BoldOblique.ttf
var dejaVuBoldOblique []byte

var unicodeFaces = map[string][]byte{
	"":   dejaVuRegular,
	"B":  dejaVuBold,
	"I":  dejaVuOblique,
	"BI": dejaVuBoldOblique,
}

// normalizeStyle maps a style to the key of unicodeFaces
func normalizeStyle(style string) string {
	s := strings.ToUpper(style)
	b := strings.Contains(s, "B")
	i := strings.Contains(s, "I")
	switch {
	case b && i:
		return "BI"
	case b:
		return "B"
	case i:
		return "I"
	default:
		return ""
	}
}

// fontSet registers embedded faces on one document as they are first used
type fontSet struct {
	doc        *gofpdf.Fpdf
	registered map[string]bool
}

func newFontSet(doc *gofpdf.Fpdf) *fontSet {
	return &fontSet{doc: doc, registered: make(map[string]bool)}
}

func (s *fontSet) ensure(style string) {
	key := normalizeStyle(style)
	if s.registered[key] {
		return
	}
	// the font parser appends into slices of its input, so every document
	// gets its own copy of the face
	face := append([]byte(nil), unicodeFaces[key]...)
	s.doc.AddUTF8FontFromBytes(FontUnicode, key, face)
	s.registered[key] = true
}

func isUnicodeFamily(family string) bool {
	return strings.EqualFold(family, FontUnicode)
}
