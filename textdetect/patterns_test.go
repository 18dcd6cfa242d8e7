package textdetect

import (
	"context"
	"testing"

	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/pageview"
	"github.com/wudi/gopnik/pii"
)

func TestPatternDetectorFindsEmailPhoneName(t *testing.T) {
	pv := pageview.PageView{
		PageIndex: 0,
		WidthPx:   600,
		HeightPx:  100,
		TextSpans: []pageview.TextSpan{
			{
				Text: "John Doe 555-123-4567 jane@example.com",
				BBox: geometry.BoundingBox{X: 0, Y: 0, W: 600, H: 20},
			},
		},
	}
	dets, err := (PatternDetector{}).Detect(context.Background(), pv)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	found := map[pii.Kind]bool{}
	for _, d := range dets {
		found[d.Kind] = true
		if !d.BBox.Valid(pv.WidthPx, pv.HeightPx) {
			t.Fatalf("detection bbox out of page bounds: %+v", d.BBox)
		}
	}
	for _, want := range []pii.Kind{pii.KindPersonName, pii.KindPhone, pii.KindEmail} {
		if !found[want] {
			t.Fatalf("expected a %s detection among %+v", want, dets)
		}
	}
}

func TestPatternDetectorFindsNationalID(t *testing.T) {
	pv := pageview.PageView{
		PageIndex: 1,
		WidthPx:   400,
		HeightPx:  50,
		TextSpans: []pageview.TextSpan{
			{Text: "SSN on file: 123-45-6789", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 400, H: 20}},
		},
	}
	dets, err := (PatternDetector{}).Detect(context.Background(), pv)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	count := 0
	for _, d := range dets {
		if d.Kind == pii.KindNationalID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one national_id detection, got %d in %+v", count, dets)
	}
}

func TestDispatchDetectorUsesTextLayerWhenPresent(t *testing.T) {
	d := New(nil)
	pv := pageview.PageView{
		WidthPx:  200,
		HeightPx: 20,
		TextSpans: []pageview.TextSpan{
			{Text: "reach me at a@b.com", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 200, H: 20}},
		},
	}
	dets, err := d.Detect(context.Background(), pv)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(dets) == 0 {
		t.Fatalf("expected at least one detection from the text layer path")
	}
}

func TestDispatchDetectorFallsBackWithoutTextLayer(t *testing.T) {
	d := New(nil)
	pv := pageview.PageView{WidthPx: 200, HeightPx: 20}
	dets, err := d.Detect(context.Background(), pv)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if dets != nil {
		t.Fatalf("expected no detections with a nil OCR engine, got %+v", dets)
	}
}
