// Package visualdetect defines the visual detector contract: the core
// provides the interface, not the model. Concrete detectors
// (face/signature/barcode/QR models) are injected at construction.
package visualdetect

import (
	"context"

	"github.com/wudi/gopnik/pageview"
	"github.com/wudi/gopnik/pii"
)

// Detector produces visual detections from a page raster only. Must be
// deterministic given the same raster and ModelTag.
type Detector interface {
	// Detect returns detections with Source=Visual, Kind in the visual
	// group, BBox clipped to the page, Confidence in [0,1].
	Detect(ctx context.Context, pv pageview.PageView) ([]pii.Detection, error)

	// ModelTag identifies the model + version producing detections, for
	// inclusion in the audit record's model_tags[].
	ModelTag() string
}

// NopDetector returns no detections. It stands in for the external
// visual model collaborator this package deliberately does not provide —
// useful as a default when no visual model is wired, and in tests
// exercising the rest of the pipeline without a real model.
type NopDetector struct{}

func (NopDetector) Detect(context.Context, pageview.PageView) ([]pii.Detection, error) {
	return nil, nil
}

func (NopDetector) ModelTag() string { return "nop-visual-detector/0" }
