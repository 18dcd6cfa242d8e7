package visualdetect

import (
	"context"
	"testing"

	"github.com/wudi/gopnik/pageview"
)

func TestNopDetectorReturnsNothing(t *testing.T) {
	var d Detector = NopDetector{}
	dets, err := d.Detect(context.Background(), pageview.PageView{WidthPx: 10, HeightPx: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dets) != 0 {
		t.Fatalf("expected no detections, got %d", len(dets))
	}
	if d.ModelTag() == "" {
		t.Fatalf("expected non-empty model tag")
	}
}
