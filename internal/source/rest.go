package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/query"
)

// DefaultAPIURL is used when no catalog API URL is configured.
const DefaultAPIURL = "https://api.example.com"

// RESTConfig configures the catalog REST backend.
type RESTConfig struct {
	// BaseURL is the API root, e.g. "https://api.example.com".
	BaseURL string

	// APIKey, when set, is sent as a bearer token.
	APIKey string

	// HTTPClient is optional; a client with a 10-second timeout is used when nil.
	HTTPClient *http.Client
}

// REST reads tools from a catalog API whose responses are already in
// domain shape:
//
//	GET {base}/tools?category=&pricing=&search=&trending=&isNew=&sort=
//	GET {base}/tools/{id}
//	GET {base}/categories
//	GET {base}/pricing-options
//
// Responses may be bare JSON or wrapped in a {"data": ...} envelope.
type REST struct {
	baseURL string
	header  http.Header
	client  *http.Client
}

// NewREST creates a REST backend.
func NewREST(cfg RESTConfig) (*REST, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultAPIURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("source: invalid rest base URL %q: %w", base, err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	return &REST{
		baseURL: strings.TrimRight(base, "/"),
		header:  header,
		client:  client,
	}, nil
}

// Name returns "rest".
func (r *REST) Name() string { return BackendREST }

// FetchTools asks the API to filter by q, then normalises the records and
// re-applies q locally so every result honours the query and the enum
// invariants even when the server ignores a parameter.
func (r *REST) FetchTools(ctx context.Context, q model.Query) ([]model.Tool, error) {
	var tools []model.Tool
	if err := r.get(ctx, "/tools?"+q.Values().Encode(), &tools); err != nil {
		return nil, err
	}
	return query.Apply(normalizeAll(tools), q), nil
}

// FetchToolByID tries GET /tools/{id}. The API does not guarantee direct
// lookup, so a 404 (or a record with a different id) falls through to
// fetching the full list and searching it.
func (r *REST) FetchToolByID(ctx context.Context, id string) (model.Tool, error) {
	var tool model.Tool
	err := r.get(ctx, "/tools/"+url.PathEscape(id), &tool)
	switch {
	case err == nil && tool.ID == id:
		return tool.Normalize(), nil
	case err != nil && !IsNotFound(err) && !errors.Is(err, ErrMalformedResponse):
		return model.Tool{}, err
	}

	all, err := r.FetchTools(ctx, model.Query{})
	if err != nil {
		return model.Tool{}, err
	}
	return findByID(all, id)
}

// FetchCategories reads GET /categories, mapping foreign names onto the
// enumeration and dropping duplicates.
func (r *REST) FetchCategories(ctx context.Context) ([]model.Category, error) {
	var raw []string
	if err := r.get(ctx, "/categories", &raw); err != nil {
		return nil, err
	}
	out := make([]model.Category, 0, len(raw))
	seen := make(map[model.Category]bool, len(raw))
	for _, s := range raw {
		c, _ := model.ParseCategory(s)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// FetchPricingOptions reads GET /pricing-options with the same coercion as
// FetchCategories.
func (r *REST) FetchPricingOptions(ctx context.Context) ([]model.Pricing, error) {
	var raw []string
	if err := r.get(ctx, "/pricing-options", &raw); err != nil {
		return nil, err
	}
	out := make([]model.Pricing, 0, len(raw))
	seen := make(map[model.Pricing]bool, len(raw))
	for _, s := range raw {
		p, _ := model.ParsePricing(s)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *REST) get(ctx context.Context, path string, dest any) error {
	var raw json.RawMessage
	if err := getJSON(ctx, r.client, BackendREST, r.baseURL+path, r.header, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(unwrapEnvelope(raw), dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

// unwrapEnvelope returns the "data" member of a {"data": ...} object, or raw
// unchanged when it is not such an envelope.
func unwrapEnvelope(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil || len(env.Data) == 0 {
		return raw
	}
	return env.Data
}

func normalizeAll(tools []model.Tool) []model.Tool {
	out := make([]model.Tool, 0, len(tools))
	for _, t := range tools {
		if t.ID == "" {
			continue
		}
		out = append(out, t.Normalize())
	}
	return dedupe(out)
}
