package audit

import (
	"context"
	"fmt"
)

// maxChainDepth guards Walk against a corrupted or adversarially
// constructed cycle of previous_audit_id links; a legitimate
// chain-of-custody is never this long.
const maxChainDepth = 10000

// Chain resolves chain-of-custody links between Records stored in a
// Sink: the previous_audit_id field a Record carries when a document is
// reprocessed, forming a hash chain of immutable records.
type Chain struct {
	Sink Sink
}

// Walk returns the full history of a document's audit records, oldest
// first, starting from leafID and following previous_audit_id links
// back to the root.
func (c Chain) Walk(ctx context.Context, leafID string) ([]Record, error) {
	var reverse []Record
	seen := map[string]bool{}
	cur := leafID
	for depth := 0; ; depth++ {
		if depth > maxChainDepth {
			return nil, fmt.Errorf("audit: chain exceeds max depth, possible cycle")
		}
		if cur == "" {
			break
		}
		if seen[cur] {
			return nil, fmt.Errorf("audit: cycle detected in chain of custody at %q", cur)
		}
		seen[cur] = true

		rec, err := c.Sink.Get(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("audit: walk chain at %q: %w", cur, err)
		}
		reverse = append(reverse, rec)
		cur = rec.PreviousAuditID
	}

	out := make([]Record, len(reverse))
	for i, rec := range reverse {
		out[len(reverse)-1-i] = rec
	}
	return out, nil
}
