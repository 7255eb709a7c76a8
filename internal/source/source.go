// Package source fetches catalog tools from a configured backend.
//
// Three backends satisfy the same Source contract: Static (an in-process
// list), REST (a catalog API that already speaks the domain shape) and
// GitHub (repository search, transformed into tools). Remote backends report
// failures honestly; the Fallback decorator turns those failures into the
// static list so callers always have something to render.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashita-ai/aitools/internal/model"
)

// Source produces read-only tool lists. Implementations must be safe for
// concurrent use.
type Source interface {
	// Name identifies the backend in logs and response metadata.
	Name() string

	// FetchTools returns the tools matching q. The zero Query matches all.
	FetchTools(ctx context.Context, q model.Query) ([]model.Tool, error)

	// FetchToolByID returns the tool with the given id, or ErrNotFound.
	FetchToolByID(ctx context.Context, id string) (model.Tool, error)

	// FetchCategories returns the categories the backend offers.
	FetchCategories(ctx context.Context) ([]model.Category, error)

	// FetchPricingOptions returns the pricing tiers the backend offers.
	FetchPricingOptions(ctx context.Context) ([]model.Pricing, error)
}

// Backend names accepted by New.
const (
	BackendStatic = "static"
	BackendREST   = "rest"
	BackendGitHub = "github"
)

// Config selects and configures a backend.
type Config struct {
	Backend string // "static", "rest" or "github"
	Mock    bool   // forces the static backend regardless of Backend

	APIURL string
	APIKey string

	GitHubURL     string
	GitHubToken   string
	GitHubPerPage int
	GitHubRPS     float64

	Timeout    time.Duration
	HTTPClient *http.Client // optional; built from Timeout when nil
}

// New builds the backend named by cfg. Remote backends come wrapped in
// Fallback so that outages degrade to the static catalog.
func New(cfg Config, logger *slog.Logger) (Source, error) {
	static := NewStatic(Seed())
	if cfg.Mock {
		logger.Info("catalog source: static (mock mode)")
		return static, nil
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	switch strings.ToLower(cfg.Backend) {
	case BackendStatic:
		logger.Info("catalog source: static")
		return static, nil

	case BackendREST, "":
		rest, err := NewREST(RESTConfig{
			BaseURL:    cfg.APIURL,
			APIKey:     cfg.APIKey,
			HTTPClient: client,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("catalog source: rest", "url", rest.baseURL, "auth", cfg.APIKey != "")
		return NewFallback(rest, static, logger), nil

	case BackendGitHub:
		gh, err := NewGitHub(GitHubConfig{
			BaseURL:    cfg.GitHubURL,
			Token:      cfg.GitHubToken,
			PerPage:    cfg.GitHubPerPage,
			RPS:        cfg.GitHubRPS,
			HTTPClient: client,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("catalog source: github", "url", gh.baseURL, "per_page", gh.perPage, "auth", cfg.GitHubToken != "")
		return NewFallback(gh, static, logger), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// dedupe drops records whose id was already seen, keeping the first.
func dedupe(tools []model.Tool) []model.Tool {
	seen := make(map[string]struct{}, len(tools))
	out := tools[:0:0]
	for _, t := range tools {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

func findByID(tools []model.Tool, id string) (model.Tool, error) {
	for _, t := range tools {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Tool{}, ErrNotFound
}
