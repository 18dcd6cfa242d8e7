package geometry

// Ordered is anything with the deterministic ordering coordinates that
// fusion output and redaction paint order require: page index, box
// position, and a kind discriminator.
type Ordered interface {
	OrderPage() int
	OrderBox() BoundingBox
	OrderKind() string
}

// Less implements the (page_index, bbox.y, bbox.x, kind) total order used
// throughout the pipeline for reproducible output.
func Less(a, b Ordered) bool {
	if a.OrderPage() != b.OrderPage() {
		return a.OrderPage() < b.OrderPage()
	}
	ab, bb := a.OrderBox(), b.OrderBox()
	if ab.Y != bb.Y {
		return ab.Y < bb.Y
	}
	if ab.X != bb.X {
		return ab.X < bb.X
	}
	return a.OrderKind() < b.OrderKind()
}
