// Package fusion merges visual and textual detections into a single,
// profile-filtered, non-redundant Detection set per page.
package fusion

import (
	"sort"

	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/pii"
	"github.com/wudi/gopnik/profile"
)

// crossModalContainment is the minimum area-overlap fraction for a
// textual span's bbox to be considered co-located with a visual bbox.
const crossModalContainment = 0.70

// sameKindIoU is the minimum IoU for two same-kind detections to be
// considered equivalent candidates. No two applied detections of the
// same kind may have IoU >= 0.5 after fusion.
const sameKindIoU = 0.5

// Fuse runs the full algorithm for a single page's detections: filter by
// the effective profile, group by semantic equivalence, select one
// representative per group, and return them in deterministic order.
func Fuse(all []pii.Detection, eff *profile.EffectiveProfile) []pii.Detection {
	filtered := filter(all, eff)
	groups := group(filtered)

	out := make([]pii.Detection, 0, len(groups))
	for _, g := range groups {
		out = append(out, represent(g))
	}
	sort.Slice(out, func(i, j int) bool {
		return geometry.Less(orderable(out[i]), orderable(out[j]))
	})
	return out
}

type orderable pii.Detection

func (o orderable) OrderPage() int                 { return o.PageIndex }
func (o orderable) OrderBox() geometry.BoundingBox { return o.BBox }
func (o orderable) OrderKind() string              { return string(o.Kind) }

// filter drops detections whose kind is disabled or below the effective
// rule's min_confidence. A detection whose confidence exactly equals
// min_confidence is kept (inclusive threshold).
func filter(all []pii.Detection, eff *profile.EffectiveProfile) []pii.Detection {
	out := make([]pii.Detection, 0, len(all))
	for _, d := range all {
		rule, ok := eff.EffectiveRule(d.Kind)
		if !ok || !rule.Enabled {
			continue
		}
		if d.Confidence < rule.MinConfidence {
			continue
		}
		out = append(out, d)
	}
	return out
}

// group partitions detections into equivalence classes: same kind and
// IoU>=0.5 (visual-visual, or any same-kind pair), OR same kind and
// cross-modal containment >= 0.70. Uses union-find over indices so
// transitive equivalence chains merge into one group.
func group(dets []pii.Detection) [][]pii.Detection {
	n := len(dets)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dets[i].Kind != dets[j].Kind {
				continue
			}
			if equivalent(dets[i], dets[j]) {
				union(i, j)
			}
		}
	}

	byRoot := map[int][]pii.Detection{}
	var roots []int
	for i := 0; i < n; i++ {
		r := find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], dets[i])
	}
	sort.Ints(roots)
	out := make([][]pii.Detection, 0, len(roots))
	for _, r := range roots {
		out = append(out, byRoot[r])
	}
	return out
}

func equivalent(a, b pii.Detection) bool {
	if geometry.IoU(a.BBox, b.BBox) >= sameKindIoU {
		return true
	}
	if a.Source == pii.SourceTextual && b.Source == pii.SourceVisual {
		return geometry.ContainmentFraction(a.BBox, b.BBox) >= crossModalContainment
	}
	if b.Source == pii.SourceTextual && a.Source == pii.SourceVisual {
		return geometry.ContainmentFraction(b.BBox, a.BBox) >= crossModalContainment
	}
	return false
}

// represent selects one Detection to stand for an equivalence group. A
// singleton group passes through unchanged except that its Source is
// left as-is (fusion of one input is not a fusion).
func represent(group []pii.Detection) pii.Detection {
	if len(group) == 1 {
		return group[0]
	}

	boxes := make([]geometry.BoundingBox, len(group))
	for i, d := range group {
		boxes[i] = d.BBox
	}
	unionBox := geometry.UnionAll(boxes)

	product := 1.0
	best := 0.0
	for _, d := range group {
		product *= 1 - d.Confidence
		if d.Confidence > best {
			best = d.Confidence
		}
	}
	// noisy-or combination, capped just above the strongest single vote so
	// fusing many weak detections can never outrank a confident one by more
	// than a small margin.
	confidence := 1 - product
	cap := best + 0.05
	if cap > 1 {
		cap = 1
	}
	if confidence > cap {
		confidence = cap
	}

	sourceSet := map[pii.Source]bool{}
	for _, d := range group {
		sourceSet[d.Source] = true
	}
	fusedSource := pii.SourceFused
	if len(sourceSet) < 2 {
		// all members share one modality (e.g. two overlapping visual
		// detections); inherit that modality rather than falsely
		// claiming a fused, multi-source origin.
		for s := range sourceSet {
			fusedSource = s
		}
	}

	rep := pickTiebreakRepresentative(group)
	out := rep.Clone()
	out.BBox = unionBox
	out.Confidence = confidence
	out.Source = fusedSource
	if fusedSource == pii.SourceFused || fusedSource == pii.SourceTextual {
		for _, d := range group {
			if d.Text != "" {
				out.Text = d.Text
				out.Language = d.Language
				break
			}
		}
	}
	return out
}

// pickTiebreakRepresentative prefers a textual member (has text content),
// then earlier reading order.
func pickTiebreakRepresentative(group []pii.Detection) pii.Detection {
	best := group[0]
	bestScore := tiebreakScore(best)
	for _, d := range group[1:] {
		score := tiebreakScore(d)
		if score < bestScore {
			best = d
			bestScore = score
		}
	}
	return best
}

// tiebreakScore is lower for more preferred representatives: textual
// sources sort first, then by reading order recorded in Extras.
func tiebreakScore(d pii.Detection) int {
	score := 0
	if d.Source != pii.SourceTextual {
		score += 1000
	}
	if order, ok := d.Extras["reading_order"]; ok {
		if v := parseIntOrZero(order); v >= 0 {
			score += v
		}
	}
	return score
}

func parseIntOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
