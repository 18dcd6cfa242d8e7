package pii

import (
	"math"
	"testing"

	"github.com/wudi/gopnik/geometry"
)

func TestNewRejectsNonFiniteConfidence(t *testing.T) {
	box := geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}
	if _, err := New(KindEmail, 0, box, math.NaN(), SourceTextual, "regex-v1"); err == nil {
		t.Fatalf("expected error for NaN confidence")
	}
	if _, err := New(KindEmail, 0, box, math.Inf(1), SourceTextual, "regex-v1"); err == nil {
		t.Fatalf("expected error for +Inf confidence")
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	box := geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}
	if _, err := New(Kind("bogus"), 0, box, 0.9, SourceTextual, "regex-v1"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	box := geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}
	d, err := New(KindEmail, 0, box, 0.9, SourceTextual, "regex-v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.Extras = map[string]string{"a": "1"}
	clone := d.Clone()
	clone.Extras["a"] = "2"
	if d.Extras["a"] != "1" {
		t.Fatalf("clone mutated original: %v", d.Extras)
	}
}

func TestKindGroups(t *testing.T) {
	if !KindFace.IsVisual() || KindFace.IsTextual() {
		t.Fatalf("face should be visual only")
	}
	if !KindEmail.IsTextual() || KindEmail.IsVisual() {
		t.Fatalf("email should be textual only")
	}
	if Kind("nonsense").Known() {
		t.Fatalf("unknown kind reported known")
	}
}
