package source

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/telemetry"
)

type fallbackReportKey struct{}

// FallbackReport collects the failures a Fallback answered from the static
// catalog during one fetch. Callers that cache results use it to tell a
// stand-in from a real remote answer.
type FallbackReport struct {
	mu  sync.Mutex
	err error
}

// WithFallbackReport returns a context whose fetches record into the returned
// report.
func WithFallbackReport(ctx context.Context) (context.Context, *FallbackReport) {
	r := &FallbackReport{}
	return context.WithValue(ctx, fallbackReportKey{}, r), r
}

// Err returns the remote failures answered from the static catalog, or nil
// when every answer came from the remote backend.
func (r *FallbackReport) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *FallbackReport) add(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = errors.Join(r.err, err)
}

// Fallback wraps a remote backend. Transport failures, non-2xx statuses and
// malformed bodies are logged and answered from the static backend instead,
// so the catalog stays renderable through outages. Not-found lookups and
// caller cancellation pass through unchanged. A FallbackReport on the context
// records each substitution.
type Fallback struct {
	primary Source
	static  *Static
	logger  *slog.Logger

	fetches   metric.Int64Counter
	fallbacks metric.Int64Counter
}

// NewFallback creates a Fallback over primary.
func NewFallback(primary Source, static *Static, logger *slog.Logger) *Fallback {
	meter := telemetry.Meter("aitools/source")
	// Instrument errors are ignored: the SDK still returns a usable no-op instrument.
	fetches, _ := meter.Int64Counter("aitools.source.fetches",
		metric.WithDescription("Remote catalog fetches attempted"))
	fallbacks, _ := meter.Int64Counter("aitools.source.fallbacks",
		metric.WithDescription("Remote catalog fetches answered from the static catalog"))
	return &Fallback{
		primary:   primary,
		static:    static,
		logger:    logger,
		fetches:   fetches,
		fallbacks: fallbacks,
	}
}

// Name reports the primary backend's name.
func (f *Fallback) Name() string { return f.primary.Name() }

// FetchTools returns the primary's tools, or the static tools matching q.
func (f *Fallback) FetchTools(ctx context.Context, q model.Query) ([]model.Tool, error) {
	tools, err := f.primary.FetchTools(ctx, q)
	if !f.shouldFallback(ctx, "/tools", q.Key(), err) {
		return tools, err
	}
	return f.static.FetchTools(ctx, q)
}

// FetchToolByID returns the primary's record. On a remote failure the
// static catalog is searched instead, which may itself report ErrNotFound.
func (f *Fallback) FetchToolByID(ctx context.Context, id string) (model.Tool, error) {
	tool, err := f.primary.FetchToolByID(ctx, id)
	if !f.shouldFallback(ctx, "/tools/"+id, "", err) {
		return tool, err
	}
	return f.static.FetchToolByID(ctx, id)
}

// FetchCategories returns the primary's categories or the full enumeration.
func (f *Fallback) FetchCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := f.primary.FetchCategories(ctx)
	if !f.shouldFallback(ctx, "/categories", "", err) {
		return cats, err
	}
	return f.static.FetchCategories(ctx)
}

// FetchPricingOptions returns the primary's tiers or the full enumeration.
func (f *Fallback) FetchPricingOptions(ctx context.Context) ([]model.Pricing, error) {
	tiers, err := f.primary.FetchPricingOptions(ctx)
	if !f.shouldFallback(ctx, "/pricing-options", "", err) {
		return tiers, err
	}
	return f.static.FetchPricingOptions(ctx)
}

// shouldFallback records the attempt and reports whether err should be answered
// from the static catalog.
func (f *Fallback) shouldFallback(ctx context.Context, endpoint, queryKey string, err error) bool {
	backend := attribute.String("aitools.backend", f.primary.Name())
	f.fetches.Add(ctx, 1, metric.WithAttributes(backend))

	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	f.fallbacks.Add(ctx, 1, metric.WithAttributes(backend))
	if r, ok := ctx.Value(fallbackReportKey{}).(*FallbackReport); ok {
		r.add(err)
	}
	f.logger.WarnContext(ctx, "catalog fetch failed, serving static catalog",
		"backend", f.primary.Name(),
		"endpoint", endpoint,
		"query", queryKey,
		"error", err,
	)
	return true
}
