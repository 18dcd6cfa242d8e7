package textdetect

import (
	"context"
	"fmt"

	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/ocr"
	"github.com/wudi/gopnik/pageview"
	"github.com/wudi/gopnik/pii"
)

// OCRFallbackDetector wraps an ocr.Engine for pages with no embedded text
// layer: when text_spans is absent it invokes OCR internally and returns
// coordinates in page space. Its own output is converted into the same
// PatternDetector regex pass, since OCR only recovers plain positioned
// words — kind classification is still pattern work.
type OCRFallbackDetector struct {
	Engine ocr.Engine
}

func (d OCRFallbackDetector) ModelTag() string {
	if d.Engine == nil {
		return "textdetect-ocr-fallback/none"
	}
	return "textdetect-ocr-fallback/" + d.Engine.Name()
}

func (d OCRFallbackDetector) Detect(ctx context.Context, pv pageview.PageView) ([]pii.Detection, error) {
	if d.Engine == nil {
		return nil, nil
	}
	png, err := encodeRasterPNG(pv)
	if err != nil {
		return nil, fmt.Errorf("textdetect: encode page raster for ocr: %w", err)
	}
	result, err := d.Engine.Recognize(ctx, ocr.Input{
		ID:        fmt.Sprintf("page-%d", pv.PageIndex),
		Image:     png,
		Format:    ocr.ImageFormatPNG,
		PageIndex: pv.PageIndex,
		DPI:       int(pv.DPI),
	})
	if err != nil {
		return nil, err
	}

	spans := make([]pageview.TextSpan, 0)
	order := 0
	for _, block := range result.Blocks {
		for _, line := range block.Lines {
			spans = append(spans, pageview.TextSpan{
				Text:         line.Text,
				BBox:         regionToBBox(line.Bounds),
				Language:     result.Language,
				ReadingOrder: order,
			})
			order++
		}
	}
	synthetic := pv
	synthetic.TextSpans = spans
	return PatternDetector{}.Detect(ctx, synthetic)
}

func regionToBBox(r ocr.Region) geometry.BoundingBox {
	return geometry.BoundingBox{
		X: int(r.X), Y: int(r.Y), W: int(r.Width), H: int(r.Height),
	}
}
