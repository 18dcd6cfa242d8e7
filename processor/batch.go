package processor

import (
	"context"

	"github.com/wudi/gopnik/profile"
)

// BatchInput is a single ordered entry of a batch run.
type BatchInput struct {
	Bytes   []byte
	Profile *profile.EffectiveProfile
}

// BatchOptions controls ProcessBatch's behavior: it accepts an ordered
// sequence of inputs bounded by the Processor's own max-in-flight limit,
// and failure of one document does not abort the batch unless FailFast
// is set.
type BatchOptions struct {
	// FailFast stops dispatching further inputs as soon as one
	// document's ProcessingResult.Success is false.
	FailFast bool
}

// BatchResult pairs a ProcessingResult with its position in the input
// sequence, since results may arrive out of order across workers.
type BatchResult struct {
	Index  int
	Result ProcessingResult
}

// ProcessBatch streams inputs through the Processor, honoring its own
// MaxInFlight bound for document-level concurrency, and returns results
// on the given channel in arrival order, not necessarily input order:
// each AuditRecord is self-contained, and ordering only needs to hold
// for the output pages within one document. The channel is closed once
// every input has been dispatched and its result delivered, or the
// batch stops early under FailFast.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []BatchInput, opts BatchOptions) <-chan BatchResult {
	out := make(chan BatchResult, len(inputs))

	go func() {
		defer close(out)

		batchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		type indexed struct {
			index int
			res   ProcessingResult
		}
		results := make(chan indexed, len(inputs))

		for i, in := range inputs {
			i, in := i, in
			go func() {
				res := p.Process(batchCtx, in.Bytes, in.Profile)
				select {
				case results <- indexed{index: i, res: res}:
				case <-batchCtx.Done():
				}
			}()
		}

		delivered := 0
		for delivered < len(inputs) {
			select {
			case r := <-results:
				delivered++
				out <- BatchResult{Index: r.index, Result: r.res}
				if opts.FailFast && !r.res.Success {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
