package gopnik

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/wudi/gopnik/audit"
	"github.com/wudi/gopnik/cryptoprim"
	"github.com/wudi/gopnik/keystore"
	"github.com/wudi/gopnik/processor"
	"github.com/wudi/gopnik/textdetect"
	"github.com/wudi/gopnik/visualdetect"
)

type memSink struct {
	mu      sync.Mutex
	records map[string]audit.Record
}

func newMemSink() *memSink { return &memSink{records: make(map[string]audit.Record)} }

func (s *memSink) Put(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.DocumentID] = rec
	return nil
}

func (s *memSink) Get(_ context.Context, documentID string) (audit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[documentID], nil
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, white)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testCore(t *testing.T) (*Core, *ecdsa.PrivateKey) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer := &cryptoprim.ECDSAP256Signer{Key: priv}
	store := keystore.NewMemoryStore()
	if _, err := store.Register(signer, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	core := New(visualdetect.NopDetector{}, textdetect.Chain{}, store, newMemSink(), processor.Config{})
	if _, err := core.Profiles.LoadYAML([]byte("name: empty\npii_rules: {}\n")); err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return core, priv
}

func marshalEnvelope(t *testing.T, rec audit.Record) []byte {
	t.Helper()
	env := Envelope{
		Record:             rec,
		Signature:          rec.Signature,
		SignerKeyID:        rec.SignerKeyID,
		SignatureAlgorithm: rec.SignatureAlgorithm,
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}

func marshalPublicKey(t *testing.T, pub *ecdsa.PublicKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func TestProcessThenValidateRoundTrip(t *testing.T) {
	core, priv := testCore(t)
	input := whitePNG(t, 12, 12)

	result, err := core.Process(context.Background(), input, "empty")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result.Errors)
	}

	rec, err := core.Processor.Sink.Get(context.Background(), result.AuditRecordID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	envelopeBytes := marshalEnvelope(t, rec)
	pubPEM := marshalPublicKey(t, &priv.PublicKey)

	outputBytes := bytes.Join(result.OutputPages, nil)
	report, err := Validate(context.Background(), outputBytes, envelopeBytes, pubPEM)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.Valid {
		t.Fatalf("expected valid report, got %+v", report)
	}
}

func TestValidateDetectsOutputTampering(t *testing.T) {
	core, priv := testCore(t)
	input := whitePNG(t, 12, 12)

	result, err := core.Process(context.Background(), input, "empty")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	rec, err := core.Processor.Sink.Get(context.Background(), result.AuditRecordID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	envelopeBytes := marshalEnvelope(t, rec)
	pubPEM := marshalPublicKey(t, &priv.PublicKey)

	tampered := bytes.Join(result.OutputPages, nil)
	tampered = append(tampered, 0xFF)

	report, err := Validate(context.Background(), tampered, envelopeBytes, pubPEM)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.Valid {
		t.Fatalf("expected tampering to be detected")
	}
	if report.Mismatch != audit.MismatchOutputFingerprint {
		t.Fatalf("expected output fingerprint mismatch, got %s", report.Mismatch)
	}
}
