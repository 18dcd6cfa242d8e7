package processor

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/wudi/gopnik/audit"
	"github.com/wudi/gopnik/cryptoprim"
	"github.com/wudi/gopnik/keystore"
	"github.com/wudi/gopnik/pii"
	"github.com/wudi/gopnik/profile"
	"github.com/wudi/gopnik/textdetect"
	"github.com/wudi/gopnik/visualdetect"
)

// memSink is a minimal in-memory audit.Sink for tests, standing in for
// audit.FileSink so processor tests don't touch the filesystem.
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
	rec, ok := s.records[documentID]
	if !ok {
		return audit.Record{}, fmt.Errorf("audit record not found: %s", documentID)
	}
	return rec, nil
}

func testKeyStore(t *testing.T) keystore.KeyStore {
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
	return store
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

func emptyProfile() *profile.EffectiveProfile {
	return &profile.EffectiveProfile{
		Name:  "empty",
		Rules: map[pii.Kind]profile.RuleSpec{},
	}
}

func TestProcessZeroDetectionDocumentProducesSignedAuditRecord(t *testing.T) {
	input := whitePNG(t, 16, 16)
	sink := newMemSink()
	p := New(visualdetect.NopDetector{}, textdetect.Chain{}, testKeyStore(t), sink, Config{})

	result := p.Process(context.Background(), input, emptyProfile())
	if !result.Success {
		t.Fatalf("expected success, got errors: %+v", result.Errors)
	}
	if result.State != StateDone {
		t.Fatalf("expected state done, got %s", result.State)
	}
	if len(result.OutputPages) != 1 {
		t.Fatalf("expected one output page, got %d", len(result.OutputPages))
	}

	rec, err := sink.Get(context.Background(), result.AuditRecordID)
	if err != nil {
		t.Fatalf("get audit record: %v", err)
	}
	if len(rec.Detections) != 0 {
		t.Fatalf("expected zero detections, got %d", len(rec.Detections))
	}
	if rec.Signature == "" {
		t.Fatalf("expected a non-empty signature")
	}
}

func TestProcessPageParallelMatchesSequentialPageOrder(t *testing.T) {
	input := whitePNG(t, 8, 8)
	sink := newMemSink()
	p := New(visualdetect.NopDetector{}, textdetect.Chain{}, testKeyStore(t), sink, Config{
		PageParallel:    true,
		PageParallelism: 4,
	})

	result := p.Process(context.Background(), input, emptyProfile())
	if !result.Success {
		t.Fatalf("expected success, got errors: %+v", result.Errors)
	}
	if len(result.OutputPages) != 1 || len(result.OutputPages[0]) == 0 {
		t.Fatalf("expected a non-empty single output page")
	}
}

func TestProcessBatchReturnsOneResultPerInput(t *testing.T) {
	sink := newMemSink()
	p := New(visualdetect.NopDetector{}, textdetect.Chain{}, testKeyStore(t), sink, Config{MaxInFlight: 2})

	inputs := []BatchInput{
		{Bytes: whitePNG(t, 4, 4), Profile: emptyProfile()},
		{Bytes: whitePNG(t, 4, 4), Profile: emptyProfile()},
		{Bytes: []byte("not an image"), Profile: emptyProfile()},
	}

	var successes, failures int
	for r := range p.ProcessBatch(context.Background(), inputs, BatchOptions{}) {
		if r.Result.Success {
			successes++
		} else {
			failures++
		}
	}
	if successes != 2 || failures != 1 {
		t.Fatalf("expected 2 successes and 1 failure, got %d/%d", successes, failures)
	}
}
