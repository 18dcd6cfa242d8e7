package profile

import "fmt"

// StyleSpec is a closed sum type over the four redaction rendering
// styles. Only SolidStyle carries a color; Pattern carries a
// deterministic pattern id instead (see DESIGN.md Open Question 2).
type StyleSpec interface {
	isStyleSpec()
	Kind() string
}

// SolidStyle fills a bbox with a flat color at full opacity.
type SolidStyle struct {
	Color [3]uint8 // RGB
}

func (SolidStyle) isStyleSpec()    {}
func (SolidStyle) Kind() string    { return "solid" }

// PixelateStyle downsamples a bbox to BlockPx x BlockPx then upsamples it
// back, nearest-neighbor.
type PixelateStyle struct {
	BlockPx int
}

func (PixelateStyle) isStyleSpec() {}
func (PixelateStyle) Kind() string { return "pixelate" }

// BlurStyle applies a separable box blur of RadiusPx, repeated Iterations
// times.
type BlurStyle struct {
	RadiusPx   int
	Iterations int
}

func (BlurStyle) isStyleSpec() {}
func (BlurStyle) Kind() string { return "blur" }

// PatternStyle overlays a deterministic, named pattern (default: diagonal
// hatch) at full opacity. Carries no color.
type PatternStyle struct {
	ID string
}

func (PatternStyle) isStyleSpec() {}
func (PatternStyle) Kind() string { return "pattern" }

// DefaultPatternID is used when a PatternStyle omits an explicit id.
const DefaultPatternID = "diagonal_hatch"

func styleFromRaw(raw rawStyle) (StyleSpec, error) {
	switch raw.Type {
	case "", "solid":
		c := raw.Color
		if c == nil {
			c = &[3]uint8{0, 0, 0}
		}
		return SolidStyle{Color: *c}, nil
	case "pixelate":
		block := raw.BlockPx
		if block <= 0 {
			block = 12
		}
		return PixelateStyle{BlockPx: block}, nil
	case "blur":
		radius := raw.RadiusPx
		if radius <= 0 {
			radius = 8
		}
		iterations := raw.Iterations
		if iterations <= 0 {
			iterations = 2
		}
		return BlurStyle{RadiusPx: radius, Iterations: iterations}, nil
	case "pattern":
		id := raw.PatternID
		if id == "" {
			id = DefaultPatternID
		}
		return PatternStyle{ID: id}, nil
	default:
		return nil, fmt.Errorf("profile: unknown style type %q", raw.Type)
	}
}
