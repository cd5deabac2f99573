package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

// ErrImageTooSmall is returned when the requested image cannot fit one pixel
// per module plus the quiet zone
var ErrImageTooSmall = errors.New("image size too small for symbol")

// Encoder produces scannable 2D barcode images
type Encoder interface {
	Encode(payload string, size, margin int) ([]byte, error)
}

// QREncoder encodes payloads as QR symbols rendered to PNG
type QREncoder struct {
	level qr.RecoveryLevel
}

// NewEncoder creates a QR encoder for the given error correction level
// (L, M, Q or H). An empty level selects M.
func NewEncoder(level string) (*QREncoder, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return &QREncoder{level: lvl}, nil
}

// Encode returns a size×size PNG of the symbol for payload surrounded by a
// quiet zone of margin modules. Output is a pure function of the arguments.
func (e *QREncoder) Encode(payload string, size, margin int) ([]byte, error) {
	if margin < 0 {
		margin = 0
	}
	code, err := qr.New(payload, e.level)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %d byte payload: %w", len(payload), err)
	}
	// the library's own border is a fixed four modules
	code.DisableBorder = true

	symbol := len(code.Bitmap())
	scale := size / (symbol + 2*margin)
	if scale < 1 {
		return nil, fmt.Errorf("%w: %dpx for %d modules", ErrImageTooSmall, size, symbol+2*margin)
	}

	// a whole number of pixels per module keeps every module the same width
	inner := code.Image(scale * symbol)
	offset := (size - scale*symbol) / 2

	canvas := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{color.White, color.Black})
	draw.Draw(canvas, inner.Bounds().Add(image.Pt(offset, offset)), inner, image.Point{}, draw.Src)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to write png: %w", err)
	}
	return buf.Bytes(), nil
}

func parseLevel(level string) (qr.RecoveryLevel, error) {
	switch strings.ToUpper(level) {
	case "L":
		return qr.Low, nil
	case "", "M":
		return qr.Medium, nil
	case "Q":
		return qr.High, nil
	case "H":
		return qr.Highest, nil
	default:
		return qr.Medium, fmt.Errorf("unknown error correction level %q", level)
	}
}
