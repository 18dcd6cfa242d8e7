package redact

import (
	"image"
	"image/color"
	"testing"

	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/pageview"
	"github.com/wudi/gopnik/pii"
	"github.com/wudi/gopnik/profile"
)

func solidProfile(kind pii.Kind, style profile.StyleSpec) *profile.EffectiveProfile {
	return &profile.EffectiveProfile{
		Name: "test",
		Rules: map[pii.Kind]profile.RuleSpec{
			kind: {Enabled: true, MinConfidence: 0, Style: style},
		},
	}
}

func whitePage(w, h int) pageview.PageView {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, white)
		}
	}
	return pageview.PageView{PageIndex: 0, WidthPx: w, HeightPx: h, DPI: 96, Raster: img}
}

func TestPagePaintsSolidRegionBlack(t *testing.T) {
	pv := whitePage(20, 20)
	det, err := pii.New(pii.KindFace, 0, geometry.BoundingBox{X: 5, Y: 5, W: 10, H: 10}, 0.9, pii.SourceVisual, "test")
	if err != nil {
		t.Fatalf("new detection: %v", err)
	}
	eff := solidProfile(pii.KindFace, profile.SolidStyle{Color: [3]uint8{1, 2, 3}})

	res, err := Page(pv, []pii.Detection{det}, eff)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	out := res.Raster.(*image.NRGBA)
	r, g, b, _ := out.At(10, 10).RGBA()
	if uint8(r>>8) != 1 || uint8(g>>8) != 2 || uint8(b>>8) != 3 {
		t.Fatalf("expected painted region, got rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = out.At(0, 0).RGBA()
	if uint8(r>>8) != 255 || uint8(g>>8) != 255 || uint8(b>>8) != 255 {
		t.Fatalf("expected untouched corner to remain white")
	}
	if res.OutputFingerprint == "" {
		t.Fatalf("expected a non-empty output fingerprint")
	}
	if len(res.Degraded) != 0 {
		t.Fatalf("expected no degraded regions, got %+v", res.Degraded)
	}
}

func TestScrubTextLayerMasksOverlappingSpan(t *testing.T) {
	pv := whitePage(100, 20)
	pv.TextSpans = []pageview.TextSpan{
		{Text: "secret@example.com", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 100, H: 20}},
	}
	det, err := pii.New(pii.KindEmail, 0, geometry.BoundingBox{X: 0, Y: 0, W: 100, H: 20}, 0.9, pii.SourceTextual, "test")
	if err != nil {
		t.Fatalf("new detection: %v", err)
	}
	eff := solidProfile(pii.KindEmail, profile.SolidStyle{Color: [3]uint8{0, 0, 0}})

	res, err := Page(pv, []pii.Detection{det}, eff)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if res.TextSpans[0].Text == "secret@example.com" {
		t.Fatalf("expected overlapping span text to be scrubbed")
	}
}

func TestScrubTextLayerLeavesUnrelatedSpanIntact(t *testing.T) {
	pv := whitePage(100, 40)
	pv.TextSpans = []pageview.TextSpan{
		{Text: "unrelated text", BBox: geometry.BoundingBox{X: 0, Y: 20, W: 100, H: 20}},
	}
	det, err := pii.New(pii.KindEmail, 0, geometry.BoundingBox{X: 0, Y: 0, W: 100, H: 10}, 0.9, pii.SourceTextual, "test")
	if err != nil {
		t.Fatalf("new detection: %v", err)
	}
	eff := solidProfile(pii.KindEmail, profile.SolidStyle{Color: [3]uint8{0, 0, 0}})

	res, err := Page(pv, []pii.Detection{det}, eff)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if res.TextSpans[0].Text != "unrelated text" {
		t.Fatalf("expected non-overlapping span to survive unchanged, got %q", res.TextSpans[0].Text)
	}
}

func TestPageDegradesToSolidWhenStyleRenderFails(t *testing.T) {
	pv := whitePage(20, 20)
	det, err := pii.New(pii.KindFace, 0, geometry.BoundingBox{X: 5, Y: 5, W: 10, H: 10}, 0.9, pii.SourceVisual, "test")
	if err != nil {
		t.Fatalf("new detection: %v", err)
	}
	// PixelateStyle normally only reaches here with a positive BlockPx
	// (profile.Store.Resolve replaces non-positive values with defaults); a
	// caller building a StyleSpec directly can still produce an invalid
	// one, which is the realistic path that forces the degrade-to-solid
	// fallback.
	eff := solidProfile(pii.KindFace, profile.PixelateStyle{BlockPx: 0})

	res, err := Page(pv, []pii.Detection{det}, eff)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(res.Degraded) != 1 {
		t.Fatalf("expected exactly one degraded region, got %+v", res.Degraded)
	}
	if res.Degraded[0].DetectionID != det.ID {
		t.Fatalf("expected degraded entry to reference the failing detection, got %+v", res.Degraded[0])
	}
	out := res.Raster.(*image.NRGBA)
	r, g, b, _ := out.At(10, 10).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("expected solid-black fallback fill, got rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestPageNilTextSpansStayNil(t *testing.T) {
	pv := whitePage(10, 10)
	res, err := Page(pv, nil, solidProfile(pii.KindEmail, profile.SolidStyle{}))
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if res.TextSpans != nil {
		t.Fatalf("expected nil text spans to remain nil when no text layer was present")
	}
}
