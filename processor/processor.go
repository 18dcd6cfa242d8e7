// Package processor orchestrates a single document through the
// pipeline: load, detect, fuse, redact, and audit, under a document-level
// worker pool plus an optional page-parallel mode within one document.
package processor

import (
	"bytes"
	"context"
	"image/png"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/wudi/gopnik/audit"
	"github.com/wudi/gopnik/cryptoprim"
	"github.com/wudi/gopnik/fusion"
	"github.com/wudi/gopnik/geometry"
	"github.com/wudi/gopnik/gopnikerr"
	"github.com/wudi/gopnik/keystore"
	"github.com/wudi/gopnik/loader"
	"github.com/wudi/gopnik/observability"
	"github.com/wudi/gopnik/pageview"
	"github.com/wudi/gopnik/pii"
	"github.com/wudi/gopnik/profile"
	"github.com/wudi/gopnik/raster"
	"github.com/wudi/gopnik/redact"
	"github.com/wudi/gopnik/textdetect"
	"github.com/wudi/gopnik/visualdetect"
)

// Config controls the concurrency and degradation behavior of a
// Processor.
type Config struct {
	// MaxInFlight bounds the number of documents processed concurrently
	// by this Processor. Zero means 1 (fully sequential).
	MaxInFlight int64
	// PageParallel enables running up to PageParallelism pages of a
	// single document concurrently rather than strictly sequentially.
	// Output pages are still muxed in ascending order regardless.
	PageParallel    bool
	PageParallelism int
	// PerPageDeadline, if nonzero, bounds detection+redaction for a
	// single page; exceeding it degrades the page to a full-page Solid
	// redaction unless StrictMode is set, in which case the document
	// fails.
	PerPageDeadline time.Duration
	StrictMode      bool
}

func (c Config) maxInFlight() int64 {
	if c.MaxInFlight <= 0 {
		return 1
	}
	return c.MaxInFlight
}

func (c Config) pageParallelism() int {
	if c.PageParallelism <= 0 {
		return 1
	}
	return c.PageParallelism
}

// Option configures a Processor at construction.
type Option func(*Processor)

// WithLogger attaches a logger; defaults to observability.NopLogger.
func WithLogger(l observability.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithToolVersion overrides the tool_version recorded in audit records.
func WithToolVersion(v string) Option {
	return func(p *Processor) { p.toolVersion = v }
}

// Processor wires the Loader, the Visual and Text Detectors, Fusion,
// Redaction, and the Audit Engine into the per-document pipeline, under
// bounded concurrency.
type Processor struct {
	Visual visualdetect.Detector
	Text   textdetect.Detector
	Keys   keystore.KeyStore
	Sink   audit.Sink

	cfg         Config
	logger      observability.Logger
	toolVersion string

	sem *semaphore.Weighted
	seq int64
}

// New returns a Processor. visual and text may be the package's Nop/
// pattern-only defaults when no external model is wired.
func New(visual visualdetect.Detector, text textdetect.Detector, keys keystore.KeyStore, sink audit.Sink, cfg Config, opts ...Option) *Processor {
	p := &Processor{
		Visual:      visual,
		Text:        text,
		Keys:        keys,
		Sink:        sink,
		cfg:         cfg,
		logger:      observability.NopLogger{},
		toolVersion: "gopnik/dev",
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sem = semaphore.NewWeighted(cfg.maxInFlight())
	return p
}

// Process runs the full pipeline for a single input document against
// eff. It acquires the Processor's document-level semaphore slot for its
// duration, applying the same backpressure bound across any number of
// concurrent callers (including ProcessBatch).
func (p *Processor) Process(ctx context.Context, input []byte, eff *profile.EffectiveProfile) ProcessingResult {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return ProcessingResult{Success: false, State: StateFailed, Errors: []ProcessingError{
			{Kind: string(gopnikerr.CodeCancelled), Message: "could not acquire a processing slot"},
		}}
	}
	defer p.sem.Release(1)

	r := &run{p: p, eff: eff, startedAt: time.Now()}
	return r.process(ctx, input)
}

// run carries the mutable state of a single document's pass through the
// pipeline; one is created per Process call.
type run struct {
	p         *Processor
	eff       *profile.EffectiveProfile
	startedAt time.Time

	state       State
	outputPages [][]byte
	pageFps     []string

	mu         sync.Mutex // guards detections/degraded, appended from concurrent pages in page-parallel mode
	detections []pii.Detection
	degraded   []redact.DegradedRedaction

	modelTags map[string]struct{}
}

func (r *run) transition(s State) {
	r.state = s
	r.p.logger.Debug("processor: state transition", observability.String("state", string(s)))
}

func (r *run) process(ctx context.Context, input []byte) ProcessingResult {
	r.transition(StateLoading)
	inputFingerprint := cryptoprim.SHA256Hex(input)

	handle, err := loader.Open(ctx, input)
	if err != nil {
		return r.fail(gopnikerr.CodeUnsupportedFormat, nil, "failed to open input document")
	}

	r.modelTags = make(map[string]struct{})
	r.modelTags[r.p.Visual.ModelTag()] = struct{}{}
	r.modelTags[r.p.Text.ModelTag()] = struct{}{}

	pageCount := handle.PageCount()
	r.outputPages = make([][]byte, pageCount)
	r.pageFps = make([]string, pageCount)

	r.transition(StateDetecting)
	if r.p.cfg.PageParallel {
		if err := r.processPagesParallel(ctx, handle, pageCount); err != nil {
			return r.fail(gopnikerr.CodeCancelled, nil, err.Error())
		}
	} else {
		for i := 0; i < pageCount; i++ {
			if err := ctx.Err(); err != nil {
				return r.fail(gopnikerr.CodeCancelled, nil, "cancelled before page "+strconv.Itoa(i))
			}
			if err := r.processPage(ctx, handle, i); err != nil {
				return r.fail(gopnikerr.CodeCancelled, &i, err.Error())
			}
		}
	}

	// Page-parallel mode commits pages out of order; restore the
	// deterministic ordering the AuditRecord's detection list requires
	// regardless of commit order.
	sort.Slice(r.detections, func(i, j int) bool {
		return geometry.Less(detectionOrder(r.detections[i]), detectionOrder(r.detections[j]))
	})

	r.transition(StateRedacting)
	r.transition(StateFinalizing)
	outputBytes := bytes.Join(r.outputPages, nil)
	outputFingerprint := cryptoprim.SHA256Hex(outputBytes)

	r.transition(StateAudited)
	rec, err := r.sign(ctx, inputFingerprint, outputFingerprint)
	if err != nil {
		return r.fail(gopnikerr.CodeSignatureFailed, nil, "failed to sign audit record")
	}
	if err := r.p.Sink.Put(ctx, rec); err != nil {
		return r.fail(gopnikerr.CodeResourcePressure, nil, "failed to persist audit record")
	}

	r.transition(StateDone)
	return ProcessingResult{
		DocumentID:    rec.DocumentID,
		Success:       true,
		State:         StateDone,
		OutputPages:   r.outputPages,
		AuditRecordID: rec.DocumentID,
	}
}

// processPagesParallel runs up to PageParallelism pages concurrently but
// only commits a page's output once every lower-indexed page has
// already committed, preserving page order in the output and in the
// per-page output fingerprints.
func (r *run) processPagesParallel(ctx context.Context, handle *loader.DocumentHandle, pageCount int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.p.cfg.pageParallelism())
	for i := 0; i < pageCount; i++ {
		i := i
		g.Go(func() error {
			return r.processPage(gctx, handle, i)
		})
	}
	return g.Wait()
}

// processPage builds the PageView for index i, runs the Visual and Text
// Detectors concurrently against the same read-only PageView, fuses,
// redacts, encodes, and releases the page.
func (r *run) processPage(ctx context.Context, handle *loader.DocumentHandle, i int) error {
	pv, err := handle.Page(i)
	if err != nil {
		if r.p.cfg.StrictMode {
			return err
		}
		r.degradePageDecodeFailure(i)
		return nil
	}

	pageCtx := ctx
	var cancel context.CancelFunc
	if d := r.p.cfg.PerPageDeadline; d > 0 {
		pageCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	dets, err := r.detectPage(pageCtx, pv)
	if err != nil {
		if r.p.cfg.StrictMode {
			pv.Release()
			return err
		}
		r.degradePageDeadline(pv, i)
		pv.Release()
		return nil
	}

	fused := fusion.Fuse(dets, r.eff)
	result, err := redact.Page(pv, fused, r.eff)
	if err != nil {
		return err
	}

	r.commitPage(i, result, fused)
	pv.Release()
	return nil
}

func (r *run) detectPage(ctx context.Context, pv pageview.PageView) ([]pii.Detection, error) {
	g, gctx := errgroup.WithContext(ctx)
	var visual, textual []pii.Detection
	g.Go(func() error {
		dets, err := r.p.Visual.Detect(gctx, pv)
		if err != nil {
			return err
		}
		visual = dets
		return nil
	})
	g.Go(func() error {
		dets, err := r.p.Text.Detect(gctx, pv)
		if err != nil {
			return err
		}
		textual = dets
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	all := make([]pii.Detection, 0, len(visual)+len(textual))
	all = append(all, visual...)
	all = append(all, textual...)
	return all, nil
}

func (r *run) commitPage(i int, result redact.Result, fused []pii.Detection) {
	var buf bytes.Buffer
	_ = png.Encode(&buf, result.Raster)
	r.outputPages[i] = buf.Bytes()
	r.pageFps[i] = result.OutputFingerprint

	r.mu.Lock()
	r.detections = append(r.detections, fused...)
	r.degraded = append(r.degraded, result.Degraded...)
	r.mu.Unlock()
}

// degradePageDecodeFailure handles an undecodable page: it is emitted as
// an empty placeholder and recorded as degraded, rather than dropped
// silently, unless StrictMode escalates it.
func (r *run) degradePageDecodeFailure(i int) {
	r.outputPages[i] = nil
	r.pageFps[i] = cryptoprim.SHA256Hex(nil)
	r.mu.Lock()
	r.degraded = append(r.degraded, redact.DegradedRedaction{
		Kind:   "",
		Reason: "page decode failed; emitted as a placeholder",
	})
	r.mu.Unlock()
}

// degradePageDeadline handles a per-page deadline overrun by painting
// the entire page Solid/black rather than dropping it, and recording a
// page-level degraded entry; the caller has already decided not to
// escalate via StrictMode.
func (r *run) degradePageDeadline(pv pageview.PageView, i int) {
	buf := raster.NewBuffer(pv.Raster)
	raster.Solid(buf, buf.Bounds(), [3]uint8{0, 0, 0})

	var out bytes.Buffer
	_ = png.Encode(&out, buf.Image())
	r.outputPages[i] = out.Bytes()
	r.pageFps[i] = cryptoprim.SHA256Hex(buf.Image().Pix)
	r.mu.Lock()
	r.degraded = append(r.degraded, redact.DegradedRedaction{
		Kind:   "",
		Reason: "per-page deadline exceeded",
	})
	r.mu.Unlock()
}

func (r *run) sign(ctx context.Context, inputFingerprint, outputFingerprint string) (audit.Record, error) {
	keyID, entry, err := r.p.Keys.Default(ctx)
	if err != nil {
		return audit.Record{}, err
	}
	r.p.logger.Debug("processor: signing with default key", observability.String("signer_key_id", keyID))
	engine := audit.New(entry.Signer, r.p.Sink, r.p.toolVersion)

	tags := make([]string, 0, len(r.modelTags))
	for t := range r.modelTags {
		tags = append(tags, t)
	}

	rec := engine.Build(audit.BuildInput{
		DocumentID:                audit.NewDocumentID(),
		InputFingerprint:          inputFingerprint,
		OutputFingerprint:         outputFingerprint,
		PerPageOutputFingerprints: r.pageFps,
		Profile:                   r.eff,
		Detections:                r.detections,
		DegradedRedactions:        r.degraded,
		Timestamps: audit.Timestamps{
			StartedAt:  r.startedAt.UTC().Format(time.RFC3339Nano),
			FinishedAt: time.Now().UTC().Format(time.RFC3339Nano),
			Sequence:   atomic.AddInt64(&r.p.seq, 1),
		},
		ModelTags: tags,
	})
	return engine.Sign(rec)
}

type detectionOrder pii.Detection

func (o detectionOrder) OrderPage() int                 { return o.PageIndex }
func (o detectionOrder) OrderBox() geometry.BoundingBox { return o.BBox }
func (o detectionOrder) OrderKind() string              { return string(o.Kind) }

func (r *run) fail(code gopnikerr.Code, page *int, message string) ProcessingResult {
	r.transition(StateFailed)
	return ProcessingResult{
		Success: false,
		State:   StateFailed,
		Errors:  []ProcessingError{{Kind: string(code), PageIndex: page, Message: message}},
	}
}
