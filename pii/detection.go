package pii

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/wudi/gopnik/geometry"
)

// Source identifies which modality produced a Detection.
type Source string

const (
	SourceVisual  Source = "visual"
	SourceTextual Source = "textual"
	SourceFused   Source = "fused"
)

// Detection is a localized claim that a region of a page contains PII of
// a specific kind with a confidence. Detections are never mutated in
// place after fusion; transformations produce new records.
type Detection struct {
	ID         string
	Kind       Kind
	PageIndex  int
	BBox       geometry.BoundingBox
	Confidence float64
	Source     Source
	Text       string
	Language   string
	ModelTag   string
	Extras     map[string]string
}

// New constructs a Detection, assigning a fresh id and validating the
// invariants from the data model: confidence must be finite, and a fused
// source may only be claimed by New if the caller already merged inputs
// (enforced by fusion, not here — New rejects NaN/Inf confidences and
// unknown kinds).
func New(kind Kind, pageIndex int, bbox geometry.BoundingBox, confidence float64, source Source, modelTag string) (Detection, error) {
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return Detection{}, fmt.Errorf("pii: non-finite confidence %v", confidence)
	}
	if !kind.Known() {
		return Detection{}, fmt.Errorf("pii: unknown kind %q", kind)
	}
	return Detection{
		ID:         uuid.NewString(),
		Kind:       kind,
		PageIndex:  pageIndex,
		BBox:       bbox,
		Confidence: confidence,
		Source:     source,
		ModelTag:   modelTag,
	}, nil
}

// OrderPage, OrderBox, OrderKind implement geometry.Ordered.
func (d Detection) OrderPage() int                 { return d.PageIndex }
func (d Detection) OrderBox() geometry.BoundingBox { return d.BBox }
func (d Detection) OrderKind() string              { return string(d.Kind) }

// Clone returns an independent copy, since Extras is a map and detections
// must never share mutable state once fused.
func (d Detection) Clone() Detection {
	out := d
	if d.Extras != nil {
		out.Extras = make(map[string]string, len(d.Extras))
		for k, v := range d.Extras {
			out.Extras[k] = v
		}
	}
	return out
}
