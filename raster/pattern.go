package raster

import (
	"image"
	"image/color"
)

// patternIDs recognized by Pattern; unknown ids fall back to the default
// diagonal hatch rather than failing, since a degraded-but-deterministic
// overlay is preferable to aborting a redaction.
const (
	PatternDiagonalHatch = "diagonal_hatch"
	PatternCrossHatch    = "cross_hatch"
)

// Pattern overlays a deterministic tiled pattern across rect at full
// opacity. Carries no color field by design (DESIGN.md Open Question 2).
func Pattern(buf *Buffer, rect image.Rectangle, patternID string) {
	clipped := rect.Intersect(buf.Bounds())
	ink := color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	paper := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			on := false
			switch patternID {
			case PatternCrossHatch:
				on = (x+y)%8 < 2 || (x-y)%8 < 2
			default: // PatternDiagonalHatch
				on = (x+y)%8 < 2
			}
			if on {
				buf.img.SetNRGBA(x, y, ink)
			} else {
				buf.img.SetNRGBA(x, y, paper)
			}
		}
	}
}
