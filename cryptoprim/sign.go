package cryptoprim

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
)

// minRSAKeyBits is the smallest RSA modulus size accepted for signing:
// RSA-PSS at 2048 bits or above, or ECDSA P-256.
const minRSAKeyBits = 2048

// Signer signs a pre-hashed payload and reports the algorithm tag and
// key id recorded alongside the signature in the audit envelope.
type Signer interface {
	Sign(digest [32]byte) ([]byte, error)
	Algorithm() string
	KeyID() (string, error)
}

// Verifier checks a signature produced by the matching Signer.
type Verifier interface {
	Verify(digest [32]byte, sig []byte) error
}

// RSAPSSSigner signs with RSA-PSS using SHA-256.
type RSAPSSSigner struct {
	Key *rsa.PrivateKey
}

// NewRSAPSSSigner validates the key meets the minimum modulus size
// before returning a usable signer.
func NewRSAPSSSigner(key *rsa.PrivateKey) (*RSAPSSSigner, error) {
	if key.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("cryptoprim: rsa key too small: %d bits, need >= %d", key.N.BitLen(), minRSAKeyBits)
	}
	return &RSAPSSSigner{Key: key}, nil
}

func (s *RSAPSSSigner) Algorithm() string { return "RSA-PSS-SHA256" }

func (s *RSAPSSSigner) Sign(digest [32]byte) ([]byte, error) {
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: crypto.SHA256}
	return rsa.SignPSS(rand.Reader, s.Key, crypto.SHA256, digest[:], opts)
}

func (s *RSAPSSSigner) KeyID() (string, error) {
	return spkiKeyID(&s.Key.PublicKey)
}

// RSAPSSVerifier verifies signatures from the matching RSAPSSSigner.
type RSAPSSVerifier struct {
	Key *rsa.PublicKey
}

func (v *RSAPSSVerifier) Verify(digest [32]byte, sig []byte) error {
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: crypto.SHA256}
	return rsa.VerifyPSS(v.Key, crypto.SHA256, digest[:], sig, opts)
}

// ECDSAP256Signer signs with ECDSA over P-256 using SHA-256.
type ECDSAP256Signer struct {
	Key *ecdsa.PrivateKey
}

func (s *ECDSAP256Signer) Algorithm() string { return "ECDSA-P256-SHA256" }

func (s *ECDSAP256Signer) Sign(digest [32]byte) ([]byte, error) {
	return ecdsa.SignASN1(rand.Reader, s.Key, digest[:])
}

func (s *ECDSAP256Signer) KeyID() (string, error) {
	return spkiKeyID(&s.Key.PublicKey)
}

// ECDSAP256Verifier verifies signatures from the matching
// ECDSAP256Signer.
type ECDSAP256Verifier struct {
	Key *ecdsa.PublicKey
}

func (v *ECDSAP256Verifier) Verify(digest [32]byte, sig []byte) error {
	if !ecdsa.VerifyASN1(v.Key, digest[:], sig) {
		return fmt.Errorf("cryptoprim: ecdsa signature verification failed")
	}
	return nil
}

// spkiKeyID derives signer_key_id as the truncated (first 16 bytes,
// hex-encoded) SHA-256 of the key's SubjectPublicKeyInfo DER encoding.
func spkiKeyID(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("cryptoprim: marshal spki: %w", err)
	}
	sum := sha256.Sum256(der)
	return fmt.Sprintf("%x", sum[:16]), nil
}
