package audit

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/wudi/gopnik/cryptoprim"
)

// MismatchKind identifies which verification step failed first, so a
// caller gets a structured diagnostic rather than a bare error.
type MismatchKind string

const (
	MismatchNone               MismatchKind = ""
	MismatchSignatureInvalid   MismatchKind = "signature_invalid"
	MismatchOutputFingerprint  MismatchKind = "output_fingerprint_mismatch"
	MismatchPageFingerprint    MismatchKind = "page_fingerprint_mismatch"
)

// ValidationReport is the result of verifying a candidate output
// document against its AuditRecord. It never carries detection text or
// other plaintext PII, only fingerprints, ids, and the first mismatch
// found.
type ValidationReport struct {
	Valid          bool
	Mismatch       MismatchKind
	MismatchDetail string
	PageIndex      *int
}

// Verify checks a candidate output against rec: verify the signature,
// then recompute and compare the output fingerprint, then (if per-page
// artifacts are supplied) each page fingerprint. Stops and reports at
// the first mismatch.
func (e *Engine) Verify(ctx context.Context, rec Record, outputBytes []byte, verifier cryptoprim.Verifier, perPageBytes [][]byte) (ValidationReport, error) {
	payload, err := cryptoprim.CanonicalJSON(rec.signingFields())
	if err != nil {
		return ValidationReport{}, fmt.Errorf("audit: canonicalize record: %w", err)
	}
	digest := cryptoprim.SHA256(payload)

	sigBytes, err := hex.DecodeString(rec.Signature)
	if err != nil {
		return ValidationReport{}, fmt.Errorf("audit: decode signature: %w", err)
	}
	if err := verifier.Verify(digest, sigBytes); err != nil {
		return ValidationReport{
			Valid:          false,
			Mismatch:       MismatchSignatureInvalid,
			MismatchDetail: "signature does not authenticate the record",
		}, nil
	}

	if outputBytes != nil {
		if got := cryptoprim.SHA256Hex(outputBytes); got != rec.OutputFingerprint {
			return ValidationReport{
				Valid:          false,
				Mismatch:       MismatchOutputFingerprint,
				MismatchDetail: "recomputed output fingerprint does not match the record",
			}, nil
		}
	}

	for i, pageBytes := range perPageBytes {
		if i >= len(rec.PerPageOutputFingerprints) {
			break
		}
		if got := cryptoprim.SHA256Hex(pageBytes); got != rec.PerPageOutputFingerprints[i] {
			page := i
			return ValidationReport{
				Valid:          false,
				Mismatch:       MismatchPageFingerprint,
				MismatchDetail: "recomputed page fingerprint does not match the record",
				PageIndex:      &page,
			}, nil
		}
	}

	return ValidationReport{Valid: true}, nil
}
