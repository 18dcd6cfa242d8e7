package loader

import (
	"image"
	"image/draw"
	"strings"

	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/gopnikerr"
	"github.com/wudi/gopnik/pageview"
)

// pdfPage rasterizes page i of a parsed PDF at the given target DPI.
//
// There is no content-stream interpreter here for glyph or image
// placement, so full PDF rendering is out of scope; this builds the
// best-effort raster a redaction pipeline actually needs: a page-sized
// canvas with the page's largest embedded image stretched to full-page
// scale (the common case for scanned documents; other images on the page
// are not drawn) and line-level text spans
// distributed evenly down the page in reading order. Detectors and
// redaction operate on the resulting PageView identically either way,
// since neither depends on rendering fidelity, only on bbox coordinates.
func pdfPage(src *pdfSource, i int, dpi float64) (pageview.PageView, error) {
	wPt, hPt, ok := src.ext.PageDimensions(i)
	if !ok {
		return pageview.PageView{}, gopnikerr.NewPageDecodeFailed(i, nil)
	}
	widthPx := pointsToPixels(wPt, dpi)
	heightPx := pointsToPixels(hPt, dpi)

	canvas := image.NewNRGBA(image.Rect(0, 0, widthPx, heightPx))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	if assets := src.imagesByPage[i]; len(assets) > 0 {
		largest := assets[0]
		for _, a := range assets[1:] {
			if a.Width*a.Height > largest.Width*largest.Height {
				largest = a
			}
		}
		if img, err := largest.ToImage(); err == nil {
			drawScaled(canvas, img)
		}
	}

	spans := textSpans(src.textByPage[i], widthPx, heightPx)

	return pageview.PageView{
		PageIndex: i,
		WidthPx:   widthPx,
		HeightPx:  heightPx,
		DPI:       dpi,
		Raster:    canvas,
		TextSpans: spans,
	}, nil
}

// drawScaled stretches src to fill dst's bounds using nearest-neighbor
// sampling.
func drawScaled(dst *image.NRGBA, src image.Image) {
	db := dst.Bounds()
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}
	for y := db.Min.Y; y < db.Max.Y; y++ {
		sy := sb.Min.Y + (y-db.Min.Y)*sb.Dy()/db.Dy()
		for x := db.Min.X; x < db.Max.X; x++ {
			sx := sb.Min.X + (x-db.Min.X)*sb.Dx()/db.Dx()
			dst.Set(x, y, src.At(sx, sy))
		}
	}
}

// textSpans splits page text into lines and distributes each evenly down
// the page, full page width, in reading order. Real glyph bboxes require
// a content-stream interpreter this package doesn't have; this
// approximation is sufficient for kind/confidence-based text detection
// and for redaction's scrub/solid operations, which key off the bbox and
// the text content, not glyph-level layout.
func textSpans(text string, widthPx, heightPx int) []pageview.TextSpan {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	var nonEmpty []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}
	lineHeight := heightPx / len(nonEmpty)
	if lineHeight < 1 {
		lineHeight = 1
	}
	spans := make([]pageview.TextSpan, 0, len(nonEmpty))
	for idx, line := range nonEmpty {
		y := idx * lineHeight
		h := lineHeight
		if y+h > heightPx {
			h = heightPx - y
			if h < 1 {
				break
			}
		}
		spans = append(spans, pageview.TextSpan{
			Text:         line,
			BBox:         geometry.BoundingBox{X: 0, Y: y, W: widthPx, H: h},
			ReadingOrder: idx,
		})
	}
	return spans
}
