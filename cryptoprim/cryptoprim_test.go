package cryptoprim

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"
)

func TestCanonicalJSONSortsKeys(t *testing.T) {
	a, err := CanonicalJSON(map[string]any{"b": 1, "a": 2})
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	if string(a) != `{"a":2,"b":1}` {
		t.Fatalf("unexpected canonical form: %s", a)
	}
}

func TestCanonicalJSONDeterministicAcrossCalls(t *testing.T) {
	doc := map[string]any{"z": 1, "m": []any{1, 2, 3}, "a": map[string]any{"y": 1, "x": 2}}
	a, err := CanonicalJSON(doc)
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	b, err := CanonicalJSON(doc)
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected repeated canonicalization to be identical: %s vs %s", a, b)
	}
}

func TestCanonicalJSONIntegerHasNoDecimal(t *testing.T) {
	out, err := CanonicalJSON(map[string]any{"n": 5})
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	if string(out) != `{"n":5}` {
		t.Fatalf("expected integer without trailing decimal, got %s", out)
	}
}

func TestSHA256HexLength(t *testing.T) {
	h := SHA256Hex([]byte("hello"))
	if len(h) != 64 {
		t.Fatalf("expected 64 hex chars, got %d (%s)", len(h), h)
	}
}

func TestRSAPSSSignVerifyRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	signer, err := NewRSAPSSSigner(key)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	digest := SHA256([]byte("document bytes"))
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	verifier := &RSAPSSVerifier{Key: &key.PublicKey}
	if err := verifier.Verify(digest, sig); err != nil {
		t.Fatalf("expected signature to verify, got %v", err)
	}
}

func TestRSAPSSSignerRejectsSmallKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	if _, err := NewRSAPSSSigner(key); err == nil {
		t.Fatalf("expected small rsa key to be rejected")
	}
}

func TestECDSASignVerifyRoundTrip(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ecdsa key: %v", err)
	}
	signer := &ECDSAP256Signer{Key: key}
	digest := SHA256([]byte("document bytes"))
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	verifier := &ECDSAP256Verifier{Key: &key.PublicKey}
	if err := verifier.Verify(digest, sig); err != nil {
		t.Fatalf("expected signature to verify, got %v", err)
	}
}

func TestSPKIKeyIDStableForSameKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ecdsa key: %v", err)
	}
	signer := &ECDSAP256Signer{Key: key}
	id1, err := signer.KeyID()
	if err != nil {
		t.Fatalf("key id: %v", err)
	}
	id2, err := signer.KeyID()
	if err != nil {
		t.Fatalf("key id: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected stable key id, got %s vs %s", id1, id2)
	}
}
