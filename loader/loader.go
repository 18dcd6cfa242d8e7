// Package loader produces an ordered, lazy sequence of PageViews from
// either a paginated PDF or a single-page raster image.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/wudi/gopnik/coords"
	"github.com/wudi/gopnik/extractor"
	"github.com/wudi/gopnik/gopnikerr"
	"github.com/wudi/gopnik/ir"
	"github.com/wudi/gopnik/pageview"
)

// DefaultDPI is the target rasterization DPI for vector (PDF) input when
// the caller does not override it.
const DefaultDPI = 200

// Option configures a DocumentHandle at Open time.
type Option func(*config)

type config struct {
	dpi      float64
	pipeline *ir.Pipeline
}

// WithDPI overrides the target rasterization DPI for vector input.
func WithDPI(dpi float64) Option {
	return func(c *config) { c.dpi = dpi }
}

// WithPipeline overrides the ir.Pipeline used to parse PDF input
// (defaults to ir.NewDefault()).
func WithPipeline(p *ir.Pipeline) Option {
	return func(c *config) { c.pipeline = p }
}

// DocumentHandle exposes page count, per-page dimensions, and a
// restartable page(i) accessor over a single opened document.
type DocumentHandle struct {
	pageCount int
	cfg       config

	// exactly one of these is populated, depending on input kind
	pdf    *pdfSource
	raster *rasterSource
}

// PageCount returns the total number of pages in the document.
func (h *DocumentHandle) PageCount() int { return h.pageCount }

// Open detects the input kind (PDF vs. single-page raster image) and
// returns a DocumentHandle. Implementations MUST yield pages in ascending
// index order when iterated, though Page itself is restartable and may
// be called out of order.
func Open(ctx context.Context, data []byte, opts ...Option) (*DocumentHandle, error) {
	cfg := config{dpi: DefaultDPI}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.pipeline == nil {
		cfg.pipeline = ir.NewDefault()
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return openPDF(ctx, data, cfg)
	}
	return openRaster(data, cfg)
}

func openPDF(ctx context.Context, data []byte, cfg config) (*DocumentHandle, error) {
	dec, err := cfg.pipeline.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, gopnikerr.NewCorruptInput("failed to parse PDF", err)
	}
	ext, err := extractor.New(dec)
	if err != nil {
		return nil, gopnikerr.NewCorruptInput("failed to build extractor", err)
	}
	meta := ext.ExtractMetadata()
	texts, err := ext.ExtractText()
	if err != nil {
		return nil, gopnikerr.NewCorruptInput("failed to extract text", err)
	}
	images, err := ext.ExtractImages()
	if err != nil {
		return nil, gopnikerr.NewCorruptInput("failed to extract images", err)
	}
	textByPage := make(map[int]string, len(texts))
	for _, t := range texts {
		textByPage[t.Page] = t.Content
	}
	imagesByPage := make(map[int][]extractor.ImageAsset)
	for _, img := range images {
		imagesByPage[img.Page] = append(imagesByPage[img.Page], img)
	}
	return &DocumentHandle{
		pageCount: meta.PageCount,
		cfg:       cfg,
		pdf: &pdfSource{
			ext:          ext,
			textByPage:   textByPage,
			imagesByPage: imagesByPage,
		},
	}, nil
}

func openRaster(data []byte, cfg config) (*DocumentHandle, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, gopnikerr.NewUnsupportedFormat("not a recognized PDF or raster image", err)
	}
	return &DocumentHandle{
		pageCount: 1,
		cfg:       cfg,
		raster:    &rasterSource{img: img},
	}, nil
}

type pdfSource struct {
	ext          *extractor.Extractor
	textByPage   map[int]string
	imagesByPage map[int][]extractor.ImageAsset
}

type rasterSource struct {
	img image.Image
}

// Page returns the PageView for the given 0-based index. Restartable:
// may be called multiple times, and out of the ascending order the
// Loader itself iterates in.
func (h *DocumentHandle) Page(i int) (pageview.PageView, error) {
	if i < 0 || i >= h.pageCount {
		return pageview.PageView{}, gopnikerr.NewPageDecodeFailed(i, fmt.Errorf("page index out of range"))
	}
	if h.raster != nil {
		return rasterPage(h.raster, i), nil
	}
	return pdfPage(h.pdf, i, h.cfg.dpi)
}

// Pages returns an iterator function yielding every page in ascending
// order, suitable for `for pv, err := range h.Pages() { ... }`-style
// consumption by the Processor's page loop.
func (h *DocumentHandle) Pages() func(yield func(pageview.PageView, error) bool) {
	return func(yield func(pageview.PageView, error) bool) {
		for i := 0; i < h.pageCount; i++ {
			pv, err := h.Page(i)
			if !yield(pv, err) {
				return
			}
		}
	}
}

func rasterPage(src *rasterSource, i int) pageview.PageView {
	b := src.img.Bounds()
	return pageview.PageView{
		PageIndex: i,
		WidthPx:   b.Dx(),
		HeightPx:  b.Dy(),
		DPI:       96, // native pixel size is kept; the file's own DPI is not read, so a fixed 96 is recorded
		Raster:    src.img,
		TextSpans: nil, // no embedded text layer in a raw raster image
	}
}

// pointsToPixels converts a PDF-space dimension in points (1/72 inch) to
// pixels at the given DPI, through a coords.Matrix scale rather than a
// bare scalar multiply, so a future non-uniform DPI (separate x/y)
// slots in without changing the call site.
func pointsToPixels(pt, dpi float64) int {
	scale := coords.Scale(dpi/72.0, dpi/72.0)
	p := scale.Transform(coords.Point{X: pt, Y: 0})
	px := int(p.X)
	if px < 1 {
		px = 1
	}
	return px
}
