// Package redact implements the redaction engine: painting each fused
// Detection onto a fresh output buffer in deterministic paint order,
// scrubbing the text layer where it intersects a redacted region, and
// degrading gracefully when a single region's rendering fails.
package redact

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/wudi/gopnik/cryptoprim"
	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/gopnikerr"
	"github.com/wudi/gopnik/pageview"
	"github.com/wudi/gopnik/pii"
	"github.com/wudi/gopnik/profile"
	"github.com/wudi/gopnik/raster"
)

// textScrubContainment is the minimum fraction of a text span's area
// that must fall inside a redacted region for the span's text to be
// scrubbed from the output text layer.
const textScrubContainment = 0.20

// scrubGlyph replaces scrubbed characters; a block character reads
// clearly as "redacted" rather than silently vanishing, matching the
// visual redaction's opacity.
const scrubGlyph = '■'

// DegradedRedaction records a single region that fell back to solid
// black fill because its configured style failed to render.
type DegradedRedaction struct {
	DetectionID string
	Kind        pii.Kind
	BBox        geometry.BoundingBox
	Reason      string
}

// Result is a redacted page: the output raster, the scrubbed text
// layer, any degraded regions, and a content fingerprint of the output
// pixels for the audit trail.
type Result struct {
	PageIndex         int
	Raster            image.Image
	TextSpans         []pageview.TextSpan
	Degraded          []DegradedRedaction
	OutputFingerprint string
}

// Page applies every detection in dets (already fused and filtered) to
// pv, in deterministic paint order, and scrubs the text layer. dets must
// all share pv.PageIndex.
func Page(pv pageview.PageView, dets []pii.Detection, eff *profile.EffectiveProfile) (Result, error) {
	ordered := make([]pii.Detection, len(dets))
	copy(ordered, dets)
	sort.Slice(ordered, func(i, j int) bool {
		return geometry.Less(paintOrder(ordered[i]), paintOrder(ordered[j]))
	})

	buf := raster.NewBuffer(pv.Raster)
	var degraded []DegradedRedaction

	for _, d := range ordered {
		rule, ok := eff.EffectiveRule(d.Kind)
		if !ok {
			continue
		}
		rect := clipToImage(d.BBox, buf.Bounds())
		if rect.Empty() {
			continue
		}
		if err := paint(buf, rect, rule.Style); err != nil {
			paint(buf, rect, profile.SolidStyle{Color: [3]uint8{0, 0, 0}})
			degraded = append(degraded, DegradedRedaction{
				DetectionID: d.ID,
				Kind:        d.Kind,
				BBox:        d.BBox,
				Reason:      err.Error(),
			})
		}
	}

	scrubbed := scrubTextLayer(pv.TextSpans, ordered)

	fingerprint, err := fingerprintRaster(buf.Image())
	if err != nil {
		return Result{}, gopnikerr.NewRedactionFailed(pv.PageIndex, err)
	}

	return Result{
		PageIndex:         pv.PageIndex,
		Raster:            buf.Image(),
		TextSpans:         scrubbed,
		Degraded:          degraded,
		OutputFingerprint: fingerprint,
	}, nil
}

type paintOrder pii.Detection

func (o paintOrder) OrderPage() int                 { return o.PageIndex }
func (o paintOrder) OrderBox() geometry.BoundingBox { return o.BBox }
func (o paintOrder) OrderKind() string              { return string(o.Kind) }

func clipToImage(b geometry.BoundingBox, bounds image.Rectangle) image.Rectangle {
	rect := image.Rect(b.X, b.Y, b.Right(), b.Bottom())
	return rect.Intersect(bounds)
}

// paint dispatches a style to its raster operation. Returns an error
// (rather than panicking) on a style the raster package cannot render,
// which Page treats as a single degraded region rather than aborting
// the whole page.
func paint(buf *raster.Buffer, rect image.Rectangle, style profile.StyleSpec) error {
	switch s := style.(type) {
	case profile.SolidStyle:
		raster.Solid(buf, rect, s.Color)
	case profile.PixelateStyle:
		return raster.Pixelate(buf, rect, s.BlockPx)
	case profile.BlurStyle:
		return raster.Blur(buf, rect, s.RadiusPx, s.Iterations)
	case profile.PatternStyle:
		raster.Pattern(buf, rect, s.ID)
	default:
		return fmt.Errorf("redact: unknown style %T", style)
	}
	return nil
}

// scrubTextLayer drops or masks text that sufficiently overlaps a
// redacted region, so that the positioned text layer in the output
// cannot leak PII the raster already hid.
func scrubTextLayer(spans []pageview.TextSpan, dets []pii.Detection) []pageview.TextSpan {
	if spans == nil {
		return nil
	}
	out := make([]pageview.TextSpan, len(spans))
	for i, span := range spans {
		out[i] = span
		for _, d := range dets {
			if geometry.ContainmentFraction(span.BBox, d.BBox) >= textScrubContainment {
				out[i].Text = strings.Repeat(string(scrubGlyph), len([]rune(span.Text)))
				break
			}
		}
	}
	return out
}

func fingerprintRaster(img image.Image) (string, error) {
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		return "", fmt.Errorf("redact: cannot fingerprint image of type %T", img)
	}
	return cryptoprim.SHA256Hex(nrgba.Pix), nil
}
