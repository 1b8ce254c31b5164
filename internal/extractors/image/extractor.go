// Package image extracts text from scanned pages and photos through an
// OCR engine, after normalising the picture for recognition.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the WebP decoder

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Name identifies this extractor in analysis metadata.
const Name = "image-ocr"

// DefaultMaxWidth is the width images are scaled down to before OCR.
const DefaultMaxWidth = 2000

// sharpenSigma is the gaussian sigma used by the sharpening pass.
const sharpenSigma = 1.0

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor pre-processes images and hands them to an OCREngine.
type Extractor struct {
	engine   driven.OCREngine
	maxWidth int
}

// Option configures the image extractor.
type Option func(*Extractor)

// WithMaxWidth sets the width limit in pixels.
func WithMaxWidth(width int) Option {
	return func(e *Extractor) {
		if width > 0 {
			e.maxWidth = width
		}
	}
}

// New creates an image extractor backed by engine.
// A nil engine makes every extraction fail with domain.ErrOCRUnavailable.
func New(engine driven.OCREngine, opts ...Option) *Extractor {
	e := &Extractor{
		engine:   engine,
		maxWidth: DefaultMaxWidth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"image/png",
		"image/jpeg",
		"image/gif",
		"image/bmp",
		"image/tiff",
		"image/webp",
		"image/*",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific extractor
}

// Extract decodes the image, prepares it for OCR and returns the recognised text.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if e.engine == nil {
		return nil, domain.NewExtractionError(raw.MIMEType, domain.ErrOCRUnavailable)
	}
	if len(raw.Content) == 0 {
		return nil, domain.NewExtractionError(raw.MIMEType, errors.New("empty file"))
	}

	img, err := imaging.Decode(bytes.NewReader(raw.Content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.NewExtractionError(raw.MIMEType, fmt.Errorf("decode image: %w", err))
	}

	prepared := Preprocess(img, e.maxWidth)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, prepared, imaging.PNG); err != nil {
		return nil, domain.NewExtractionError(raw.MIMEType, fmt.Errorf("encode image: %w", err))
	}

	text, err := e.engine.Recognize(ctx, buf.Bytes())
	if err != nil {
		return nil, domain.NewExtractionError(raw.MIMEType, fmt.Errorf("%s: %w", e.engine.Name(), err))
	}

	return &driven.ExtractResult{
		Text:      text,
		PageCount: 1,
		Extractor: Name + ":" + e.engine.Name(),
	}, nil
}

// Preprocess scales img down to at most maxWidth pixels wide, converts it
// to greyscale, stretches its luminance to the full range and sharpens it.
func Preprocess(img image.Image, maxWidth int) *image.NRGBA {
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	grey := imaging.Grayscale(img)
	stretched := stretchContrast(grey)
	return imaging.Sharpen(stretched, sharpenSigma)
}

// stretchContrast maps the darkest pixel to black and the brightest to
// white. Uniform images are returned unchanged.
func stretchContrast(img *image.NRGBA) *image.NRGBA {
	lo, hi := uint8(255), uint8(0)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		v := img.Pix[i] // greyscale: R == G == B
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return img
	}

	span := float64(hi - lo)
	stretch := func(v uint8) uint8 {
		return uint8(float64(v-lo)*255/span + 0.5)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}
