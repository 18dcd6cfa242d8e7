// Package audit implements the forensic audit engine: building, signing,
// persisting, and verifying the AuditRecord produced for every processed
// document, and walking its chain-of-custody links.
package audit

import (
	"github.com/google/uuid"
	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/pii"
	"github.com/wudi/gopnik/profile"
	"github.com/wudi/gopnik/redact"
)

// SystemInfo fingerprints the environment that produced a record, the
// Go equivalent of the original tool's system_info capture.
type SystemInfo struct {
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Timestamps records wall-clock start/finish times plus a monotonic
// ordering counter, since wall-clock alone can't break ties between
// records produced in the same instant.
type Timestamps struct {
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Sequence   int64  `json:"sequence"`
}

// DetectionRecord is the audit-trail projection of a pii.Detection:
// everything needed to reproduce and verify what was redacted, without
// carrying the mutable Extras map a later code change might grow
// unboundedly.
type DetectionRecord struct {
	ID         string               `json:"id"`
	Kind       pii.Kind             `json:"kind"`
	PageIndex  int                  `json:"page_index"`
	BBox       geometry.BoundingBox `json:"bbox"`
	Confidence float64              `json:"confidence"`
	Source     pii.Source           `json:"source"`
	ModelTag   string               `json:"model_tag"`
}

func detectionRecordOf(d pii.Detection) DetectionRecord {
	return DetectionRecord{
		ID:         d.ID,
		Kind:       d.Kind,
		PageIndex:  d.PageIndex,
		BBox:       d.BBox,
		Confidence: d.Confidence,
		Source:     d.Source,
		ModelTag:   d.ModelTag,
	}
}

// ProfileRecord is the audit-trail projection of a resolved profile,
// inlined with its precedence notes.
type ProfileRecord struct {
	Name            string                    `json:"name"`
	Version         string                    `json:"version"`
	ConfidenceFloor float64                   `json:"confidence_floor"`
	PrecedenceNotes []profile.PrecedenceNote `json:"precedence_notes"`
}

func profileRecordOf(eff *profile.EffectiveProfile) ProfileRecord {
	return ProfileRecord{
		Name:            eff.Name,
		Version:         eff.Version,
		ConfidenceFloor: eff.ConfidenceFloor,
		PrecedenceNotes: eff.PrecedenceNotes,
	}
}

// Record is the AuditRecord produced for a document: exactly one per
// processed document. Signature is computed over the canonical JSON
// of every other field, so Record must never be mutated after Sign; a
// reprocessing produces a new Record linked via PreviousAuditID.
type Record struct {
	DocumentID                string              `json:"document_id"`
	InputFingerprint          string              `json:"input_fingerprint"`
	OutputFingerprint         string              `json:"output_fingerprint"`
	PerPageOutputFingerprints []string            `json:"per_page_output_fingerprints"`
	Profile                   ProfileRecord       `json:"profile"`
	Detections                []DetectionRecord   `json:"detections"`
	DegradedRedactions        []redact.DegradedRedaction `json:"degraded_redactions"`
	Timestamps                Timestamps          `json:"timestamps"`
	ToolVersion               string              `json:"tool_version"`
	ModelTags                 []string            `json:"model_tags"`
	SystemInfo                SystemInfo          `json:"system_info"`
	PreviousAuditID           string              `json:"previous_audit_id,omitempty"`

	SignerKeyID        string `json:"signer_key_id"`
	SignatureAlgorithm string `json:"signature_algorithm"`
	Signature          string `json:"signature"`
}

// signingFields returns the subset of Record that the signature covers:
// everything except the signature triple itself, signed as the
// canonical JSON of all preceding fields.
func (r Record) signingFields() map[string]any {
	return map[string]any{
		"document_id":                  r.DocumentID,
		"input_fingerprint":            r.InputFingerprint,
		"output_fingerprint":           r.OutputFingerprint,
		"per_page_output_fingerprints": r.PerPageOutputFingerprints,
		"profile":                      r.Profile,
		"detections":                   r.Detections,
		"degraded_redactions":          r.DegradedRedactions,
		"timestamps":                   r.Timestamps,
		"tool_version":                 r.ToolVersion,
		"model_tags":                   r.ModelTags,
		"system_info":                  r.SystemInfo,
		"previous_audit_id":            r.PreviousAuditID,
	}
}

// NewDocumentID returns a fresh UUID v4 for DocumentID.
func NewDocumentID() string { return uuid.NewString() }
