package audit

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"
	"testing"

	"github.com/wudi/gopnik/cryptoprim"
	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/pii"
	"github.com/wudi/gopnik/profile"
)

func testSigner(t *testing.T) (*cryptoprim.ECDSAP256Signer, *cryptoprim.ECDSAP256Verifier) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &cryptoprim.ECDSAP256Signer{Key: key}, &cryptoprim.ECDSAP256Verifier{Key: &key.PublicKey}
}

func testEffectiveProfile() *profile.EffectiveProfile {
	return &profile.EffectiveProfile{Name: "default", Version: "1.0.0"}
}

func TestBuildSignVerifyRoundTrip(t *testing.T) {
	signer, verifier := testSigner(t)
	eng := New(signer, nil, "gopnik-test")

	det, err := pii.New(pii.KindEmail, 0, testBBox(), 0.9, pii.SourceTextual, "test")
	if err != nil {
		t.Fatalf("new detection: %v", err)
	}

	rec := eng.Build(BuildInput{
		DocumentID:        NewDocumentID(),
		InputFingerprint:  cryptoprim.SHA256Hex([]byte("input")),
		OutputFingerprint: cryptoprim.SHA256Hex([]byte("output")),
		Profile:           testEffectiveProfile(),
		Detections:        []pii.Detection{det},
		ModelTags:         []string{"textdetect-patterns/1"},
	})

	signed, err := eng.Sign(rec)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.SignerKeyID == "" || signed.Signature == "" {
		t.Fatalf("expected signed record to carry key id and signature")
	}

	report, err := eng.Verify(context.Background(), signed, []byte("output"), verifier, nil)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !report.Valid {
		t.Fatalf("expected valid report, got %+v", report)
	}
}

func TestVerifyDetectsOutputFingerprintMismatch(t *testing.T) {
	signer, verifier := testSigner(t)
	eng := New(signer, nil, "gopnik-test")

	rec := eng.Build(BuildInput{
		DocumentID:        NewDocumentID(),
		InputFingerprint:  cryptoprim.SHA256Hex([]byte("input")),
		OutputFingerprint: cryptoprim.SHA256Hex([]byte("output")),
		Profile:           testEffectiveProfile(),
	})
	signed, err := eng.Sign(rec)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	report, err := eng.Verify(context.Background(), signed, []byte("tampered output"), verifier, nil)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.Valid {
		t.Fatalf("expected tampered output to fail verification")
	}
	if report.Mismatch != MismatchOutputFingerprint {
		t.Fatalf("expected output fingerprint mismatch, got %v", report.Mismatch)
	}
}

func TestVerifyDetectsSignatureTampering(t *testing.T) {
	signer, _ := testSigner(t)
	_, otherVerifier := testSigner(t)
	eng := New(signer, nil, "gopnik-test")

	rec := eng.Build(BuildInput{
		DocumentID:        NewDocumentID(),
		InputFingerprint:  cryptoprim.SHA256Hex([]byte("input")),
		OutputFingerprint: cryptoprim.SHA256Hex([]byte("output")),
		Profile:           testEffectiveProfile(),
	})
	signed, err := eng.Sign(rec)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	report, err := eng.Verify(context.Background(), signed, []byte("output"), otherVerifier, nil)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.Valid || report.Mismatch != MismatchSignatureInvalid {
		t.Fatalf("expected signature_invalid mismatch, got %+v", report)
	}
}

func TestFileSinkPutGetRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "gopnik-audit-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("new file sink: %v", err)
	}

	signer, _ := testSigner(t)
	eng := New(signer, sink, "gopnik-test")
	rec := eng.Build(BuildInput{
		DocumentID:        NewDocumentID(),
		InputFingerprint:  cryptoprim.SHA256Hex([]byte("input")),
		OutputFingerprint: cryptoprim.SHA256Hex([]byte("output")),
		Profile:           testEffectiveProfile(),
	})
	signed, err := eng.Sign(rec)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := eng.Persist(context.Background(), signed); err != nil {
		t.Fatalf("persist: %v", err)
	}

	got, err := sink.Get(context.Background(), signed.DocumentID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Signature != signed.Signature {
		t.Fatalf("expected round-tripped signature to match")
	}
}

func TestChainWalkFollowsPreviousAuditID(t *testing.T) {
	dir, err := os.MkdirTemp("", "gopnik-audit-chain-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("new file sink: %v", err)
	}
	signer, _ := testSigner(t)
	eng := New(signer, sink, "gopnik-test")
	ctx := context.Background()

	first := eng.Build(BuildInput{
		DocumentID:        NewDocumentID(),
		InputFingerprint:  cryptoprim.SHA256Hex([]byte("v1")),
		OutputFingerprint: cryptoprim.SHA256Hex([]byte("v1-out")),
		Profile:           testEffectiveProfile(),
	})
	firstSigned, err := eng.Sign(first)
	if err != nil {
		t.Fatalf("sign first: %v", err)
	}
	if err := eng.Persist(ctx, firstSigned); err != nil {
		t.Fatalf("persist first: %v", err)
	}

	second := eng.Build(BuildInput{
		DocumentID:        NewDocumentID(),
		InputFingerprint:  cryptoprim.SHA256Hex([]byte("v2")),
		OutputFingerprint: cryptoprim.SHA256Hex([]byte("v2-out")),
		Profile:           testEffectiveProfile(),
		PreviousAuditID:   firstSigned.DocumentID,
	})
	secondSigned, err := eng.Sign(second)
	if err != nil {
		t.Fatalf("sign second: %v", err)
	}
	if err := eng.Persist(ctx, secondSigned); err != nil {
		t.Fatalf("persist second: %v", err)
	}

	chain := Chain{Sink: sink}
	history, err := chain.Walk(ctx, secondSigned.DocumentID)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records in history, got %d", len(history))
	}
	if history[0].DocumentID != firstSigned.DocumentID || history[1].DocumentID != secondSigned.DocumentID {
		t.Fatalf("expected oldest-first ordering, got %+v", history)
	}
}

func testBBox() geometry.BoundingBox {
	return geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}
}
