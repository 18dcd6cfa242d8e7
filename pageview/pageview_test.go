package pageview

import (
	"image"
	"testing"

	"github.com/wudi/gopnik/geometry"
)

func TestValidRejectsOutOfBoundsSpan(t *testing.T) {
	pv := PageView{
		WidthPx:  100,
		HeightPx: 100,
		TextSpans: []TextSpan{
			{Text: "ok", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}},
			{Text: "bad", BBox: geometry.BoundingBox{X: 95, Y: 95, W: 10, H: 10}},
		},
	}
	if pv.Valid() {
		t.Fatalf("expected invalid page view with out-of-bounds span")
	}
}

func TestHasTextLayer(t *testing.T) {
	withLayer := PageView{TextSpans: []TextSpan{}}
	without := PageView{}
	if !withLayer.HasTextLayer() {
		t.Fatalf("expected non-nil (even empty) text spans to report a text layer")
	}
	if without.HasTextLayer() {
		t.Fatalf("expected nil text spans to report no text layer")
	}
}

func TestReleaseZeroesRaster(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	pv := PageView{Raster: img, TextSpans: []TextSpan{{Text: "x"}}}
	pv.Release()
	for i, b := range img.Pix {
		if b != 0 {
			t.Fatalf("pixel byte %d not zeroed: %v", i, b)
		}
	}
	if pv.Raster != nil || pv.TextSpans != nil {
		t.Fatalf("expected released page view to drop references")
	}
}
