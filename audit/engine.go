package audit

import (
	"context"
	"fmt"
	"runtime"

	"github.com/wudi/gopnik/cryptoprim"
	"github.com/wudi/gopnik/gopnikerr"
	"github.com/wudi/gopnik/pii"
	"github.com/wudi/gopnik/profile"
	"github.com/wudi/gopnik/redact"
)

// Sink persists and retrieves signed Records. Its default in-tree
// implementation is FileSink; the backing store is otherwise
// unspecified, so it is abstracted behind this interface.
type Sink interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, documentID string) (Record, error)
}

// Engine builds, signs, persists, and verifies AuditRecords.
type Engine struct {
	Signer      cryptoprim.Signer
	Sink        Sink
	ToolVersion string
}

// New returns an Engine bound to signer and sink.
func New(signer cryptoprim.Signer, sink Sink, toolVersion string) *Engine {
	return &Engine{Signer: signer, Sink: sink, ToolVersion: toolVersion}
}

// Build assembles an unsigned Record from the pieces the processor
// collected during a run. Call Sign before Persist.
func (e *Engine) Build(input BuildInput) Record {
	detections := make([]DetectionRecord, 0, len(input.Detections))
	for _, d := range input.Detections {
		detections = append(detections, detectionRecordOf(d))
	}

	return Record{
		DocumentID:                input.DocumentID,
		InputFingerprint:          input.InputFingerprint,
		OutputFingerprint:         input.OutputFingerprint,
		PerPageOutputFingerprints: input.PerPageOutputFingerprints,
		Profile:                   profileRecordOf(input.Profile),
		Detections:                detections,
		DegradedRedactions:        input.DegradedRedactions,
		Timestamps:                input.Timestamps,
		ToolVersion:               e.ToolVersion,
		ModelTags:                 input.ModelTags,
		SystemInfo: SystemInfo{
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
		},
		PreviousAuditID: input.PreviousAuditID,
	}
}

// BuildInput carries everything the processor accumulated for one
// document, prior to signing.
type BuildInput struct {
	DocumentID                string
	InputFingerprint          string
	OutputFingerprint         string
	PerPageOutputFingerprints []string
	Profile                   *profile.EffectiveProfile
	Detections                []pii.Detection
	DegradedRedactions        []redact.DegradedRedaction
	Timestamps                Timestamps
	ModelTags                 []string
	PreviousAuditID           string
}

// Sign computes the canonical JSON of rec's signing fields and fills in
// SignerKeyID, SignatureAlgorithm, and Signature. rec must not be
// modified afterward, or the signature no longer authenticates it.
func (e *Engine) Sign(rec Record) (Record, error) {
	payload, err := cryptoprim.CanonicalJSON(rec.signingFields())
	if err != nil {
		return Record{}, fmt.Errorf("audit: canonicalize record: %w", err)
	}
	digest := cryptoprim.SHA256(payload)

	sig, err := e.Signer.Sign(digest)
	if err != nil {
		return Record{}, gopnikerr.NewSignatureFailed(err)
	}
	keyID, err := e.Signer.KeyID()
	if err != nil {
		return Record{}, gopnikerr.NewSignatureFailed(err)
	}

	rec.SignerKeyID = keyID
	rec.SignatureAlgorithm = e.Signer.Algorithm()
	rec.Signature = fmt.Sprintf("%x", sig)
	return rec, nil
}

// Persist stores a signed record in the configured Sink.
func (e *Engine) Persist(ctx context.Context, rec Record) error {
	if e.Sink == nil {
		return fmt.Errorf("audit: no sink configured")
	}
	return e.Sink.Put(ctx, rec)
}
