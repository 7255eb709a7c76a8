// Package catalog provides the read operations shared by the HTTP API and
// the MCP server.
//
// Every call goes through a per-query fetch cache, so identical concurrent
// reads collapse into one backend fetch and repeated reads are answered from
// memory until the entry goes stale.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/aitools/internal/fetchcache"
	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/query"
	"github.com/ashita-ai/aitools/internal/source"
	"github.com/ashita-ai/aitools/internal/telemetry"
)

// Page sizes used by the original listings.
const (
	ListingPageSize  = query.DefaultPageSize
	TrendingPageSize = 6
)

// Cache key prefixes. A key is a prefix plus, for tool lists, the query's
// canonical encoding, or for single tools, the id.
const (
	keyTools      = "/tools?"
	keyTool       = "/tools/"
	keyCategories = "/categories"
	keyPricing    = "/pricing-options"
)

// ErrUnknownKey is returned by Revalidate for a key no read has produced.
var ErrUnknownKey = fetchcache.ErrUnknownKey

// Config tunes the service.
type Config struct {
	// TTL is the freshness window of cached reads; zero keeps entries until
	// they are revalidated.
	TTL time.Duration

	// Idle evicts cache keys unread for this long; zero keeps them all.
	Idle time.Duration

	// PageSize is used by Page when the caller passes no size.
	PageSize int

	Now func() time.Time // defaults to time.Now
}

// Service answers catalog reads from a Source through fetch caches.
type Service struct {
	src      source.Source
	logger   *slog.Logger
	pageSize int

	tools      *fetchcache.Cache[[]model.Tool]
	tool       *fetchcache.Cache[model.Tool]
	categories *fetchcache.Cache[[]model.Category]
	pricing    *fetchcache.Cache[[]model.Pricing]

	revalidations metric.Int64Counter
}

// New creates a Service over src.
func New(src source.Source, cfg Config, logger *slog.Logger) *Service {
	opts := fetchcache.Options{TTL: cfg.TTL, Idle: cfg.Idle, Logger: logger, Now: cfg.Now}
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = ListingPageSize
	}

	meter := telemetry.Meter("aitools/catalog")
	revalidations, _ := meter.Int64Counter("aitools.catalog.revalidations",
		metric.WithDescription("Forced cache refreshes"))

	return &Service{
		src:           src,
		logger:        logger,
		pageSize:      pageSize,
		tools:         fetchcache.New[[]model.Tool](opts),
		tool:          fetchcache.New[model.Tool](opts),
		categories:    fetchcache.New[[]model.Category](opts),
		pricing:       fetchcache.New[[]model.Pricing](opts),
		revalidations: revalidations,
	}
}

// Close stops cache eviction.
func (s *Service) Close() error {
	return errors.Join(s.tools.Close(), s.tool.Close(), s.categories.Close(), s.pricing.Close())
}

// EvictIdle drops cache keys unread for longer than Config.Idle and returns
// how many were dropped.
func (s *Service) EvictIdle() int {
	return s.tools.EvictIdle() + s.tool.EvictIdle() + s.categories.EvictIdle() + s.pricing.EvictIdle()
}

// fromSource adapts a source call to the cache. An answer the source served
// from its static catalog is marked as a stand-in, so it never replaces a
// cached remote value.
func fromSource[T any](fetch func(ctx context.Context) (T, error)) fetchcache.Fetcher[T] {
	return func(ctx context.Context) (T, error) {
		ctx, report := source.WithFallbackReport(ctx)
		v, err := fetch(ctx)
		if err != nil {
			return v, err
		}
		if cause := report.Err(); cause != nil {
			return v, fetchcache.StandIn(cause)
		}
		return v, nil
	}
}

// Backend names the underlying source.
func (s *Service) Backend() string { return s.src.Name() }

// PageSize is the default listing page size.
func (s *Service) PageSize() int { return s.pageSize }

// ToolsKey is the cache key of a tool list query. Logically equal queries
// share a key.
func ToolsKey(q model.Query) string { return keyTools + q.Key() }

// ToolKey is the cache key of a single-tool lookup.
func ToolKey(id string) string { return keyTool + id }

// Tools returns the tools matching q. The slice is shared with the cache and
// must not be modified.
func (s *Service) Tools(ctx context.Context, q model.Query) ([]model.Tool, error) {
	q = q.Normalize()
	tools, err := s.tools.Get(ctx, ToolsKey(q), fromSource(func(ctx context.Context) ([]model.Tool, error) {
		return s.src.FetchTools(ctx, q)
	}))
	if err != nil {
		return nil, fmt.Errorf("catalog: tools: %w", err)
	}
	return tools, nil
}

// AllTools returns the whole catalog in the default order.
func (s *Service) AllTools(ctx context.Context) ([]model.Tool, error) {
	return s.Tools(ctx, model.Query{})
}

// TrendingTools returns the tools flagged as trending.
func (s *Service) TrendingTools(ctx context.Context) ([]model.Tool, error) {
	return s.Tools(ctx, model.Query{}.WithTrendingOnly(true))
}

// NewTools returns the tools flagged as new.
func (s *Service) NewTools(ctx context.Context) ([]model.Tool, error) {
	return s.Tools(ctx, model.Query{}.WithNewOnly(true))
}

// ToolsByCategory returns the tools in one category.
func (s *Service) ToolsByCategory(ctx context.Context, c model.Category) ([]model.Tool, error) {
	return s.Tools(ctx, model.Query{}.WithCategory(c))
}

// Tool returns one tool, or an error wrapping source.ErrNotFound.
func (s *Service) Tool(ctx context.Context, id string) (model.Tool, error) {
	tool, err := s.tool.Get(ctx, ToolKey(id), fromSource(func(ctx context.Context) (model.Tool, error) {
		return s.src.FetchToolByID(ctx, id)
	}))
	if err != nil {
		return model.Tool{}, fmt.Errorf("catalog: tool %q: %w", id, err)
	}
	return tool, nil
}

// Categories returns the categories the backend offers.
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.categories.Get(ctx, keyCategories, fromSource(s.src.FetchCategories))
	if err != nil {
		return nil, fmt.Errorf("catalog: categories: %w", err)
	}
	return cats, nil
}

// PricingOptions returns the pricing tiers the backend offers.
func (s *Service) PricingOptions(ctx context.Context) ([]model.Pricing, error) {
	tiers, err := s.pricing.Get(ctx, keyPricing, fromSource(s.src.FetchPricingOptions))
	if err != nil {
		return nil, fmt.Errorf("catalog: pricing options: %w", err)
	}
	return tiers, nil
}

// CategoryStats counts the whole catalog per category.
func (s *Service) CategoryStats(ctx context.Context) ([]model.CategoryStats, error) {
	tools, err := s.AllTools(ctx)
	if err != nil {
		return nil, err
	}
	return query.Stats(tools), nil
}

// Page returns one page of the listing's query. size < 1 uses the
// configured page size.
func (s *Service) Page(ctx context.Context, l model.Listing, size int) (model.Page[model.Tool], error) {
	if size < 1 {
		size = s.pageSize
	}
	tools, err := s.Tools(ctx, l.Query)
	if err != nil {
		return model.Page[model.Tool]{}, err
	}
	return query.Paginate(tools, l.Page, size), nil
}

// Status is the fetch state of one cache key.
type Status struct {
	Key       string    `json:"key"`
	HasData   bool      `json:"has_data"`
	IsLoading bool      `json:"is_loading"`
	IsError   bool      `json:"is_error"`
	StandIn   bool      `json:"stand_in,omitempty"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

func statusOf[T any](key string, st fetchcache.State[T]) Status {
	out := Status{
		Key:       key,
		HasData:   st.HasData,
		IsLoading: st.IsLoading,
		IsError:   st.IsError,
		StandIn:   st.StandIn,
		FetchedAt: st.FetchedAt,
	}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	return out
}

// Statuses reports every key read so far, tool lists first.
func (s *Service) Statuses() []Status {
	var out []Status
	out = appendStatuses(out, s.tools)
	out = appendStatuses(out, s.tool)
	out = appendStatuses(out, s.categories)
	out = appendStatuses(out, s.pricing)
	return out
}

func appendStatuses[T any](out []Status, c *fetchcache.Cache[T]) []Status {
	for _, k := range c.Keys() {
		if st, ok := c.Peek(k); ok {
			out = append(out, statusOf(k, st))
		}
	}
	return out
}

// Revalidate refetches key. On failure the previously cached value is kept
// and the error returned; the key's status reflects the failure either way.
func (s *Service) Revalidate(ctx context.Context, key string) (Status, error) {
	var (
		st  Status
		err error
	)
	switch {
	case strings.HasPrefix(key, keyTools):
		st, err = revalidate(ctx, s.tools, key)
	case strings.HasPrefix(key, keyTool):
		st, err = revalidate(ctx, s.tool, key)
	case key == keyCategories:
		st, err = revalidate(ctx, s.categories, key)
	case key == keyPricing:
		st, err = revalidate(ctx, s.pricing, key)
	default:
		return Status{}, fmt.Errorf("catalog: revalidate: %w: %q", ErrUnknownKey, key)
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.revalidations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	if err != nil {
		if !errors.Is(err, ErrUnknownKey) {
			s.logger.WarnContext(ctx, "catalog: revalidate failed, keeping previous value", "key", key, "error", err)
		}
		return st, fmt.Errorf("catalog: revalidate: %w", err)
	}
	return st, nil
}

func revalidate[T any](ctx context.Context, c *fetchcache.Cache[T], key string) (Status, error) {
	_, err := c.Revalidate(ctx, key)
	st, _ := c.Peek(key)
	return statusOf(key, st), err
}
