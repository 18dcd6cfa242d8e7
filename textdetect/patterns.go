package textdetect

import (
	"context"
	"regexp"

	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/pageview"
	"github.com/wudi/gopnik/pii"
)

// PatternDetector extracts textual PII from an existing positioned text
// layer via regular-expression matching per kind. A trained NER model for
// person_name is an external collaborator this package doesn't provide;
// this uses a conservative capitalized-run heuristic instead, which the
// profile's confidence floor is expected to filter.
type PatternDetector struct{}

func (PatternDetector) ModelTag() string { return "textdetect-patterns/1" }

var kindPatterns = []struct {
	kind    pii.Kind
	re      *regexp.Regexp
	conf    float64
}{
	{pii.KindEmail, regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), 0.95},
	{pii.KindIPAddress, regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`), 0.9},
	{pii.KindNationalID, regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`), 0.9},
	{pii.KindPhone, regexp.MustCompile(`\b(?:\+?[0-9]{1,2}[ .\-]?)?\(?[0-9]{3}\)?[ .\-]?[0-9]{3}[ .\-]?[0-9]{4}\b`), 0.85},
	{pii.KindDateOfBirth, regexp.MustCompile(`\b(?:19|20)[0-9]{2}[-/](?:0[1-9]|1[0-2])[-/](?:0[1-9]|[12][0-9]|3[01])\b`), 0.75},
	{pii.KindFinancialAccount, regexp.MustCompile(`\b[0-9]{4}[ \-]?[0-9]{4}[ \-]?[0-9]{4}[ \-]?[0-9]{4}\b`), 0.8},
	{pii.KindLicensePlate, regexp.MustCompile(`\b[A-Z]{1,3}[ \-]?[0-9]{2,4}[A-Z]{0,2}\b`), 0.55},
	{pii.KindPersonName, regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`), 0.7},
}

func (PatternDetector) Detect(_ context.Context, pv pageview.PageView) ([]pii.Detection, error) {
	var out []pii.Detection
	for _, span := range pv.TextSpans {
		for _, kp := range kindPatterns {
			for _, loc := range kp.re.FindAllStringIndex(span.Text, -1) {
				bbox := spanSubBBox(span.BBox, len(span.Text), loc[0], loc[1])
				d, err := pii.New(kp.kind, pv.PageIndex, bbox, kp.conf, pii.SourceTextual, "textdetect-patterns/1")
				if err != nil {
					continue
				}
				d.Text = span.Text[loc[0]:loc[1]]
				d.Language = span.Language
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// spanSubBBox approximates the horizontal extent of a substring within a
// span's bbox proportionally to character offsets, since exact glyph
// widths require font metrics the extractor does not expose.
func spanSubBBox(full geometry.BoundingBox, totalLen, start, end int) geometry.BoundingBox {
	if totalLen == 0 {
		return full
	}
	x0 := full.X + full.W*start/totalLen
	x1 := full.X + full.W*end/totalLen
	if x1 <= x0 {
		x1 = x0 + 1
	}
	return geometry.BoundingBox{X: x0, Y: full.Y, W: x1 - x0, H: full.H}
}
