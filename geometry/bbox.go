// Package geometry provides the bounding-box arithmetic shared by
// detection, fusion, and redaction: containment, overlap, union and the
// deterministic ordering rules the pipeline relies on for reproducibility.
package geometry

import "fmt"

// BoundingBox is an integer pixel rectangle in page coordinates, top-left
// origin, y-down.
type BoundingBox struct {
	X, Y, W, H int
}

// Valid reports whether the box has positive extent, non-negative origin,
// and fits within a page of the given dimensions.
func (b BoundingBox) Valid(pageWidth, pageHeight int) bool {
	return b.W > 0 && b.H > 0 && b.X >= 0 && b.Y >= 0 &&
		b.X+b.W <= pageWidth && b.Y+b.H <= pageHeight
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("{x:%d y:%d w:%d h:%d}", b.X, b.Y, b.W, b.H)
}

// Area returns the box's pixel area.
func (b BoundingBox) Area() int64 {
	return int64(b.W) * int64(b.H)
}

// Right and Bottom return the exclusive edge coordinates.
func (b BoundingBox) Right() int  { return b.X + b.W }
func (b BoundingBox) Bottom() int { return b.Y + b.H }

// Intersect returns the overlapping region of a and b, and whether it is
// non-empty.
func Intersect(a, b BoundingBox) (BoundingBox, bool) {
	x0 := max(a.X, b.X)
	y0 := max(a.Y, b.Y)
	x1 := min(a.Right(), b.Right())
	y1 := min(a.Bottom(), b.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return BoundingBox{}, false
	}
	return BoundingBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}

// Union returns the axis-aligned union of a and b.
func Union(a, b BoundingBox) BoundingBox {
	x0 := min(a.X, b.X)
	y0 := min(a.Y, b.Y)
	x1 := max(a.Right(), b.Right())
	y1 := max(a.Bottom(), b.Bottom())
	return BoundingBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// UnionAll folds Union over a non-empty slice of boxes.
func UnionAll(boxes []BoundingBox) BoundingBox {
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = Union(out, b)
	}
	return out
}

// IoU returns the intersection-over-union ratio of a and b, in [0,1].
func IoU(a, b BoundingBox) float64 {
	inter, ok := Intersect(a, b)
	if !ok {
		return 0
	}
	interArea := float64(inter.Area())
	unionArea := float64(a.Area()) + float64(b.Area()) - interArea
	if unionArea <= 0 {
		return 0
	}
	return interArea / unionArea
}

// ContainmentFraction returns the fraction of small's area that overlaps
// large: |small ∩ large| / |small|. Used for the cross-modal co-location
// rule (a textual span mostly inside a visual box) and for the text-scrub
// intersection test, where a symmetric IoU is the wrong metric because the
// two boxes are rarely the same size.
func ContainmentFraction(small, large BoundingBox) float64 {
	if small.Area() == 0 {
		return 0
	}
	inter, ok := Intersect(small, large)
	if !ok {
		return 0
	}
	return float64(inter.Area()) / float64(small.Area())
}

// Clip constrains b to lie within a page of the given dimensions.
func Clip(b BoundingBox, pageWidth, pageHeight int) BoundingBox {
	x0 := clampInt(b.X, 0, pageWidth)
	y0 := clampInt(b.Y, 0, pageHeight)
	x1 := clampInt(b.Right(), 0, pageWidth)
	y1 := clampInt(b.Bottom(), 0, pageHeight)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return BoundingBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
