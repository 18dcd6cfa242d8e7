package loader

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestOpenRasterImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	h, err := Open(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if h.PageCount() != 1 {
		t.Fatalf("expected 1 page, got %d", h.PageCount())
	}
	pv, err := h.Page(0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if pv.WidthPx != 4 || pv.HeightPx != 4 {
		t.Fatalf("unexpected dims: %dx%d", pv.WidthPx, pv.HeightPx)
	}
	if pv.TextSpans != nil {
		t.Fatalf("raster image should have no text layer")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	if _, err := Open(context.Background(), []byte("not a real document")); err == nil {
		t.Fatalf("expected error for unrecognized input")
	}
}

func TestTextSpansDistributesLines(t *testing.T) {
	spans := textSpans("line one\nline two\nline three", 100, 90)
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	if spans[0].ReadingOrder != 0 || spans[2].ReadingOrder != 2 {
		t.Fatalf("unexpected reading order: %+v", spans)
	}
	if spans[1].BBox.Y <= spans[0].BBox.Y {
		t.Fatalf("expected later lines to sit lower on the page")
	}
}

func TestTextSpansEmptyInput(t *testing.T) {
	if spans := textSpans("   \n\n", 100, 90); spans != nil {
		t.Fatalf("expected nil spans for blank text, got %+v", spans)
	}
}
