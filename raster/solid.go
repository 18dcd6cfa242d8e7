package raster

import (
	"image"
	"image/color"
	"image/draw"
)

// Solid fills rect in buf with the given opaque color, full opacity.
func Solid(buf *Buffer, rect image.Rectangle, c [3]uint8) {
	fill := color.NRGBA{R: c[0], G: c[1], B: c[2], A: 255}
	draw.Draw(buf.img, rect.Intersect(buf.Bounds()), &image.Uniform{C: fill}, image.Point{}, draw.Src)
}
