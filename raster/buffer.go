// Package raster implements the pixel-level redaction operations: a
// mutable output buffer distinct from the input raster, and the four
// rendering styles (Solid, Pixelate, Blur, Pattern) the Redaction Engine
// dispatches to.
package raster

import (
	"image"
	"image/draw"
)

// Buffer is the mutable output raster the Redaction Engine paints into.
// Per the data-model ownership rule, it is always a distinct allocation
// from the input PageView's raster — redaction never happens in place on
// the input.
type Buffer struct {
	img *image.NRGBA
}

// NewBuffer copies src into a fresh NRGBA buffer, leaving src untouched.
func NewBuffer(src image.Image) *Buffer {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, src, b.Min, draw.Src)
	return &Buffer{img: out}
}

// Image returns the underlying image.Image view of the buffer.
func (b *Buffer) Image() *image.NRGBA { return b.img }

// Bounds returns the buffer's pixel rectangle.
func (b *Buffer) Bounds() image.Rectangle { return b.img.Bounds() }

// SubImage returns the NRGBA sub-image sharing storage with b at rect,
// clipped to b's bounds.
func (b *Buffer) SubImage(rect image.Rectangle) *image.NRGBA {
	clipped := rect.Intersect(b.img.Bounds())
	return b.img.SubImage(clipped).(*image.NRGBA)
}
