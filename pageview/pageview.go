// Package pageview defines PageView, the immutable per-page working set
// that flows from the Document Loader through detection and into
// redaction.
package pageview

import (
	"image"

	"github.com/wudi/gopnik/geometry"
)

// TextSpan is a positioned run of text within a page's embedded text
// layer (or OCR output standing in for one).
type TextSpan struct {
	Text         string
	BBox         geometry.BoundingBox
	Language     string
	FontSize     float64
	ReadingOrder int
}

// PageView is the immutable per-page working set: a raster plus an
// optional positioned text layer. Created by the Loader when a page
// enters the pipeline, immutable thereafter, dropped (Release'd) after
// the Redaction Engine writes the corresponding output page.
type PageView struct {
	PageIndex int
	WidthPx   int
	HeightPx  int
	DPI       float64
	Raster    image.Image
	TextSpans []TextSpan // nil iff no embedded text layer was present
}

// Valid reports whether every text span's bbox is contained in the page,
// per the PageView data-model invariant.
func (p PageView) Valid() bool {
	for _, s := range p.TextSpans {
		if !s.BBox.Valid(p.WidthPx, p.HeightPx) {
			return false
		}
	}
	return true
}

// HasTextLayer reports whether an embedded text layer was present, as
// opposed to requiring an OCR fallback.
func (p PageView) HasTextLayer() bool {
	return p.TextSpans != nil
}

// Release zeroes sensitive buffer references so they do not outlive the
// page's place in the pipeline; the underlying raster bytes are dropped
// for GC once no other reference is held. Called once the redaction
// engine has written the corresponding output page.
func (p *PageView) Release() {
	zeroRasterBytes(p.Raster)
	p.Raster = nil
	p.TextSpans = nil
}

// zeroRasterBytes overwrites the backing pixel slice in place for the
// concrete image types the loader produces, rather than only dropping
// the reference and waiting on the garbage collector.
func zeroRasterBytes(img image.Image) {
	switch v := img.(type) {
	case *image.NRGBA:
		clearBytes(v.Pix)
	case *image.RGBA:
		clearBytes(v.Pix)
	case *image.Gray:
		clearBytes(v.Pix)
	}
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
