package keystore

import (
	"context"
	"crypto/x509"
	"fmt"

	"github.com/wudi/gopnik/security/validation"
)

// VerifyChain checks that entry's certificate chain is currently valid
// and its leaf certificate is not revoked. Nothing in the audit engine
// or the processor calls it. Reuses the existing X.509
// chain-building and OCSP/CRL revocation checkers rather than
// duplicating certificate-path logic.
func VerifyChain(ctx context.Context, entry Entry, roots *x509.CertPool, checker validation.RevocationChecker) error {
	if len(entry.Chain) == 0 {
		return nil // self-verifying deployment: no PKI chain configured
	}
	leaf := entry.Chain[0]
	var intermediates []*x509.Certificate
	var issuer *x509.Certificate
	if len(entry.Chain) > 1 {
		intermediates = entry.Chain[1:]
		issuer = entry.Chain[1]
	} else {
		issuer = leaf
	}

	builder := validation.NewChainBuilder()
	if _, err := builder.BuildChain(leaf, intermediates, roots); err != nil {
		return fmt.Errorf("keystore: certificate chain invalid: %w", err)
	}

	if checker == nil {
		return nil
	}
	status, err := checker.Check(ctx, leaf, issuer)
	if err != nil {
		return fmt.Errorf("keystore: revocation check failed: %w", err)
	}
	if status == validation.StatusRevoked {
		return fmt.Errorf("keystore: signing certificate is revoked")
	}
	return nil
}
