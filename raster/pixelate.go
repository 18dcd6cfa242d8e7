package raster

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Pixelate downsamples rect to blockPx x blockPx nearest-neighbor, then
// upsamples it back to rect's original size. blockPx must be positive;
// a profile-supplied style is validated before it reaches here, but a
// caller building a StyleSpec directly (rather than through YAML) could
// still pass a non-positive value, so this reports it rather than
// silently clamping.
func Pixelate(buf *Buffer, rect image.Rectangle, blockPx int) error {
	if blockPx <= 0 {
		return fmt.Errorf("raster: pixelate block size must be positive, got %d", blockPx)
	}
	clipped := rect.Intersect(buf.Bounds())
	if clipped.Empty() {
		return nil
	}
	src := buf.SubImage(clipped)

	small := image.NewNRGBA(image.Rect(0, 0, blockPx, blockPx))
	draw.NearestNeighbor.Scale(small, small.Bounds(), src, clipped, draw.Src, nil)

	draw.NearestNeighbor.Scale(buf.img, clipped, small, small.Bounds(), draw.Src, nil)
	return nil
}
