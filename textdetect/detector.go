// Package textdetect implements the text detector contract:
// pattern-based extraction over an embedded text layer, with an OCR
// fallback when no text layer is present.
package textdetect

import (
	"context"

	"github.com/wudi/gopnik/pageview"
	"github.com/wudi/gopnik/pii"
)

// Detector produces textual detections from a page's text layer (or OCR
// output standing in for one). Output detections have Source=Textual,
// Kind in the textual group, Text populated, BBox covering the redacted
// glyph run, Language when known.
type Detector interface {
	Detect(ctx context.Context, pv pageview.PageView) ([]pii.Detection, error)
	ModelTag() string
}

// Chain runs each detector in order and concatenates their detections,
// so a caller can combine the pattern-based detector with an OCR
// fallback without the fusion stage needing to know which produced what.
type Chain []Detector

func (c Chain) Detect(ctx context.Context, pv pageview.PageView) ([]pii.Detection, error) {
	var all []pii.Detection
	for _, d := range c {
		dets, err := d.Detect(ctx, pv)
		if err != nil {
			return nil, err
		}
		all = append(all, dets...)
	}
	return all, nil
}

func (c Chain) ModelTag() string {
	if len(c) == 0 {
		return "textdetect-chain/empty"
	}
	tag := c[0].ModelTag()
	for _, d := range c[1:] {
		tag += "+" + d.ModelTag()
	}
	return tag
}

// New builds the default detector: pattern-based extraction over the
// embedded text layer when present, else the given OCR detector.
// Fusion never sees the difference; both paths produce Source=Textual
// detections against page-space coordinates.
func New(ocrDetector Detector) Detector {
	return dispatchDetector{patterns: PatternDetector{}, ocr: ocrDetector}
}

type dispatchDetector struct {
	patterns PatternDetector
	ocr      Detector
}

func (d dispatchDetector) Detect(ctx context.Context, pv pageview.PageView) ([]pii.Detection, error) {
	if pv.HasTextLayer() {
		return d.patterns.Detect(ctx, pv)
	}
	if d.ocr == nil {
		return nil, nil
	}
	return d.ocr.Detect(ctx, pv)
}

func (d dispatchDetector) ModelTag() string {
	if d.ocr == nil {
		return d.patterns.ModelTag()
	}
	return d.patterns.ModelTag() + "+" + d.ocr.ModelTag()
}
