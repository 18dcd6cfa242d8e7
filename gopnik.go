// Package gopnik is the library-facing facade over the forensic PII
// deidentification pipeline: process a single document, stream a
// batch, and validate a previously produced (output, AuditRecord) pair
// against a public key.
package gopnik

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"

	"github.com/wudi/gopnik/audit"
	"github.com/wudi/gopnik/cryptoprim"
	"github.com/wudi/gopnik/keystore"
	"github.com/wudi/gopnik/ocr"
	_ "github.com/wudi/gopnik/ocr/tesseract" // registers Tesseract as ocr.DefaultEngine
	"github.com/wudi/gopnik/processor"
	"github.com/wudi/gopnik/profile"
	"github.com/wudi/gopnik/textdetect"
	"github.com/wudi/gopnik/visualdetect"
)

// Envelope is the on-disk shape of an audit record: the canonical
// record alongside the signature triple, so a verifier never needs
// anything but this file plus a public key.
type Envelope struct {
	Record             audit.Record `json:"record"`
	Signature          string       `json:"signature"`
	SignerKeyID        string       `json:"signer_key_id"`
	SignatureAlgorithm string       `json:"signature_algorithm"`
}

// Option configures the default Processor a Core wires up.
type Option = processor.Option

// Core bundles a Processor with the profile store and keystore it was
// built from, the facade most callers construct once per process.
type Core struct {
	Processor *processor.Processor
	Profiles  *profile.Store
	Keys      keystore.KeyStore
}

// New builds a Core with the given detectors, keystore, audit sink, and
// concurrency configuration. visual/text may be the package NopDetector/
// empty Chain defaults when no external model is wired yet.
func New(visual visualdetect.Detector, text textdetect.Detector, keys keystore.KeyStore, sink audit.Sink, cfg processor.Config, opts ...Option) *Core {
	return &Core{
		Processor: processor.New(visual, text, keys, sink, cfg, opts...),
		Profiles:  profile.NewStore(),
		Keys:      keys,
	}
}

// NewWithOCRFallback is New with the text detector set to the default
// pattern-based detector plus an OCR fallback for pages with no
// embedded text layer, running against ocr.DefaultEngine() (Tesseract,
// once github.com/wudi/gopnik/ocr/tesseract is linked in).
func NewWithOCRFallback(visual visualdetect.Detector, keys keystore.KeyStore, sink audit.Sink, cfg processor.Config, opts ...Option) *Core {
	text := textdetect.New(textdetect.OCRFallbackDetector{Engine: ocr.DefaultEngine()})
	return New(visual, text, keys, sink, cfg, opts...)
}

// Process runs process(input_bytes, profile_ref) -> ProcessingResult.
// profileRef is a profile name previously loaded into c.Profiles.
func (c *Core) Process(ctx context.Context, input []byte, profileRef string) (processor.ProcessingResult, error) {
	eff, err := c.Profiles.Resolve(profileRef)
	if err != nil {
		return processor.ProcessingResult{}, fmt.Errorf("gopnik: resolve profile %q: %w", profileRef, err)
	}
	return c.Processor.Process(ctx, input, eff), nil
}

// ProcessBatch runs process_batch(inputs[], profile_ref, options) ->
// stream of ProcessingResult. Every input in the batch is resolved
// against the same profileRef.
func (c *Core) ProcessBatch(ctx context.Context, inputs [][]byte, profileRef string, opts processor.BatchOptions) (<-chan processor.BatchResult, error) {
	eff, err := c.Profiles.Resolve(profileRef)
	if err != nil {
		return nil, fmt.Errorf("gopnik: resolve profile %q: %w", profileRef, err)
	}
	batchInputs := make([]processor.BatchInput, len(inputs))
	for i, in := range inputs {
		batchInputs[i] = processor.BatchInput{Bytes: in, Profile: eff}
	}
	return c.Processor.ProcessBatch(ctx, batchInputs, opts), nil
}

// Validate checks a candidate output document against a previously
// produced audit record and a public key. auditRecordBytes is the
// on-disk Envelope JSON; publicKeyPEM is a PEM-encoded SPKI public key
// matching the signer_key_id's algorithm.
func Validate(ctx context.Context, outputBytes, auditRecordBytes []byte, publicKeyPEM []byte) (audit.ValidationReport, error) {
	var env Envelope
	if err := json.Unmarshal(auditRecordBytes, &env); err != nil {
		return audit.ValidationReport{}, fmt.Errorf("gopnik: decode audit envelope: %w", err)
	}
	env.Record.SignerKeyID = env.SignerKeyID
	env.Record.SignatureAlgorithm = env.SignatureAlgorithm
	env.Record.Signature = env.Signature

	verifier, err := verifierFor(env.SignatureAlgorithm, publicKeyPEM)
	if err != nil {
		return audit.ValidationReport{}, err
	}

	engine := audit.New(nil, nil, env.Record.ToolVersion)
	return engine.Verify(ctx, env.Record, outputBytes, verifier, nil)
}

func verifierFor(algorithm string, publicKeyPEM []byte) (cryptoprim.Verifier, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return nil, fmt.Errorf("gopnik: no PEM block found in public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("gopnik: parse public key: %w", err)
	}
	switch algorithm {
	case "RSA-PSS-SHA256":
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("gopnik: key is not an RSA public key")
		}
		return &cryptoprim.RSAPSSVerifier{Key: key}, nil
	case "ECDSA-P256-SHA256":
		key, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("gopnik: key is not an ECDSA public key")
		}
		return &cryptoprim.ECDSAP256Verifier{Key: key}, nil
	default:
		return nil, fmt.Errorf("gopnik: unsupported signature algorithm %q", algorithm)
	}
}
