// Package auditreport renders a human-readable summary of an
// audit.Record for manual forensic review: a Markdown document built
// from the record's fields, rendered to HTML via goldmark.
package auditreport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/wudi/gopnik/audit"
)

// RenderMarkdown builds the Markdown summary of rec: identifiers,
// fingerprints, the resolved profile, every applied detection (kind,
// page, confidence — never the detection's Text field, since this
// report may be shared outside the chain of custody), and any degraded
// redactions.
func RenderMarkdown(rec audit.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Audit Record `%s`\n\n", rec.DocumentID)
	fmt.Fprintf(&b, "- **Tool version:** %s\n", rec.ToolVersion)
	fmt.Fprintf(&b, "- **Started:** %s\n", rec.Timestamps.StartedAt)
	fmt.Fprintf(&b, "- **Finished:** %s\n", rec.Timestamps.FinishedAt)
	fmt.Fprintf(&b, "- **Input fingerprint:** `%s`\n", rec.InputFingerprint)
	fmt.Fprintf(&b, "- **Output fingerprint:** `%s`\n", rec.OutputFingerprint)
	fmt.Fprintf(&b, "- **Signer key id:** `%s` (%s)\n", rec.SignerKeyID, rec.SignatureAlgorithm)
	if rec.PreviousAuditID != "" {
		fmt.Fprintf(&b, "- **Previous audit:** `%s`\n", rec.PreviousAuditID)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Profile\n\n`%s` version `%s`, confidence floor %.2f\n\n",
		rec.Profile.Name, rec.Profile.Version, rec.Profile.ConfidenceFloor)

	fmt.Fprintf(&b, "## Detections applied (%d)\n\n", len(rec.Detections))
	if len(rec.Detections) == 0 {
		b.WriteString("_none_\n\n")
	} else {
		b.WriteString("| page | kind | source | confidence |\n|---|---|---|---|\n")
		for _, d := range rec.Detections {
			fmt.Fprintf(&b, "| %d | %s | %s | %.2f |\n", d.PageIndex, d.Kind, d.Source, d.Confidence)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Degraded redactions (%d)\n\n", len(rec.DegradedRedactions))
	if len(rec.DegradedRedactions) == 0 {
		b.WriteString("_none_\n")
	} else {
		for _, d := range rec.DegradedRedactions {
			fmt.Fprintf(&b, "- `%s` (%s): %s\n", d.DetectionID, d.Kind, d.Reason)
		}
	}

	return b.String()
}

// RenderHTML converts RenderMarkdown's output to HTML via goldmark, for
// display in a review tool that does not understand Markdown directly.
func RenderHTML(rec audit.Record) (string, error) {
	md := RenderMarkdown(rec)
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("auditreport: render html: %w", err)
	}
	return buf.String(), nil
}
