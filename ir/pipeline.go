package ir

import (
	"context"
	"fmt"
	"io"

	"github.com/wudi/gopnik/filters"
	"github.com/wudi/gopnik/ir/decoded"
	"github.com/wudi/gopnik/ir/raw"
	"github.com/wudi/gopnik/observability"
	"github.com/wudi/gopnik/parser"
	"github.com/wudi/gopnik/recovery"
	"github.com/wudi/gopnik/security"
)

// Pipeline turns a PDF byte stream into a DecodedDocument: raw object parsing
// followed by filter/security decoding. The document loader stops here and
// hands the result to the extractor rather than building a full semantic
// document tree, since redaction only needs page geometry, text spans, and
// image assets.
type Pipeline struct {
	rawParser raw.Parser
	decoder   decoded.Decoder
	recovery  recovery.Strategy
	security  security.Handler
	logger    observability.Logger
}

// Option configures a Pipeline before its internal parser/decoder are built.
type Option func(*pipelineConfig)

type pipelineConfig struct {
	recovery recovery.Strategy
	security security.Handler
	logger   observability.Logger
}

// WithSecurityHandler installs a security.Handler for encrypted input.
func WithSecurityHandler(h security.Handler) Option {
	return func(c *pipelineConfig) { c.security = h }
}

// WithRecoveryStrategy installs the strategy consulted whenever the raw
// parser hits a malformed object or xref entry.
func WithRecoveryStrategy(s recovery.Strategy) Option {
	return func(c *pipelineConfig) { c.recovery = s }
}

// WithLogger attaches a logger; defaults to observability.NopLogger.
func WithLogger(l observability.Logger) Option {
	return func(c *pipelineConfig) { c.logger = l }
}

func defaultFilterPipeline() *filters.Pipeline {
	return filters.NewPipeline(
		[]filters.Decoder{
			filters.NewFlateDecoder(),
			filters.NewLZWDecoder(),
			filters.NewASCII85Decoder(),
			filters.NewASCIIHexDecoder(),
		},
		filters.Limits{},
	)
}

// NewDefault constructs a pipeline with an unencrypted decoder and a lenient
// recovery strategy: malformed objects are skipped with a warning rather
// than aborting the whole document, matching the per-page decode failure
// model the document loader relies on.
func NewDefault(opts ...Option) *Pipeline {
	cfg := pipelineConfig{
		recovery: recovery.NewLenientStrategy(),
		security: security.NoopHandler(),
		logger:   observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Pipeline{
		rawParser: parser.NewDocumentParser(parser.Config{Recovery: cfg.recovery}),
		decoder:   decoded.NewDecoder(defaultFilterPipeline(), cfg.security),
		recovery:  cfg.recovery,
		logger:    cfg.logger,
	}
}

// Parse runs Raw -> Decoded and returns the decoded document.
func (p *Pipeline) Parse(ctx context.Context, r io.ReaderAt) (*decoded.DecodedDocument, error) {
	rawDoc, err := p.rawParser.Parse(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("raw parsing failed: %w", err)
	}

	decodedDoc, err := p.decoder.Decode(ctx, rawDoc)
	if err != nil {
		return nil, fmt.Errorf("decoding failed: %w", err)
	}

	return decodedDoc, nil
}
