package raster

import (
	"fmt"
	"image"
	"image/color"
)

// Blur applies a separable box blur of the given radius to rect,
// repeated iterations times (horizontal pass then vertical pass per
// iteration). radiusPx and iterations must both be positive; a
// profile-supplied style is validated before it reaches here, but a
// caller building a StyleSpec directly (rather than through YAML) could
// still pass a non-positive value, so this reports it rather than
// silently no-oping.
func Blur(buf *Buffer, rect image.Rectangle, radiusPx, iterations int) error {
	if radiusPx <= 0 {
		return fmt.Errorf("raster: blur radius must be positive, got %d", radiusPx)
	}
	if iterations <= 0 {
		return fmt.Errorf("raster: blur iterations must be positive, got %d", iterations)
	}
	clipped := rect.Intersect(buf.Bounds())
	if clipped.Empty() {
		return nil
	}

	w, h := clipped.Dx(), clipped.Dy()
	pix := make([][4]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := buf.img.At(clipped.Min.X+x, clipped.Min.Y+y).RGBA()
			pix[y*w+x] = [4]int{int(r >> 8), int(g >> 8), int(b >> 8), int(a >> 8)}
		}
	}

	for i := 0; i < iterations; i++ {
		pix = boxBlurPass(pix, w, h, radiusPx, true)
		pix = boxBlurPass(pix, w, h, radiusPx, false)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := pix[y*w+x]
			buf.img.Set(clipped.Min.X+x, clipped.Min.Y+y, color.NRGBA{
				R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: uint8(c[3]),
			})
		}
	}
	return nil
}

// boxBlurPass runs a 1-D box average of the given radius, horizontally
// when horizontal is true and vertically otherwise.
func boxBlurPass(pix [][4]int, w, h, radius int, horizontal bool) [][4]int {
	out := make([][4]int, len(pix))
	if horizontal {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[y*w+x] = averageWindow(pix, w, h, x, y, radius, true)
			}
		}
	} else {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[y*w+x] = averageWindow(pix, w, h, x, y, radius, false)
			}
		}
	}
	return out
}

func averageWindow(pix [][4]int, w, h, x, y, radius int, horizontal bool) [4]int {
	var sum [4]int
	count := 0
	for d := -radius; d <= radius; d++ {
		xx, yy := x, y
		if horizontal {
			xx += d
		} else {
			yy += d
		}
		if xx < 0 || xx >= w || yy < 0 || yy >= h {
			continue
		}
		c := pix[yy*w+xx]
		sum[0] += c[0]
		sum[1] += c[1]
		sum[2] += c[2]
		sum[3] += c[3]
		count++
	}
	if count == 0 {
		count = 1
	}
	return [4]int{sum[0] / count, sum[1] / count, sum[2] / count, sum[3] / count}
}
