package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/query"
)

// DefaultGitHubURL is the public GitHub REST API root.
const DefaultGitHubURL = "https://api.github.com"

const (
	defaultPerPage  = 30
	maxPerPage      = 100
	defaultBaseTerm = "topic:ai"
	defaultMinStars = 100
)

// categoryTopics narrows a single-category search to a representative topic.
var categoryTopics = map[model.Category]string{
	model.CategoryGenerativeAI:    "generative-ai",
	model.CategoryTextProcessing:  "nlp",
	model.CategoryImageGeneration: "image-generation",
	model.CategoryCodeAssistant:   "code-generation",
	model.CategoryAudioProcessing: "text-to-speech",
	model.CategoryVideoCreation:   "video-generation",
	model.CategoryDataAnalysis:    "data-analysis",
	model.CategoryChatBot:         "chatbot",
}

// GitHubConfig configures the repository search backend.
type GitHubConfig struct {
	BaseURL string // defaults to DefaultGitHubURL
	Token   string // optional; raises the search rate limit

	// PerPage is the per_page search parameter (1-100, default 30).
	PerPage int

	// BaseTerm is always part of the search, e.g. "topic:ai".
	BaseTerm string

	// MinStars filters out repositories at or below this star count
	// unless the query asks for trending repositories (default 100).
	MinStars int

	// RPS throttles outbound searches; 0 disables throttling.
	RPS float64

	HTTPClient *http.Client
	Rules      Rules            // defaults to DefaultRules
	Now        func() time.Time // defaults to time.Now
}

// GitHub treats repository search results as catalog tools. Topic, star and
// creation-date filters are pushed into the search query; every other
// predicate runs locally after the transform.
type GitHub struct {
	baseURL  string
	header   http.Header
	perPage  int
	baseTerm string
	minStars int
	client   *http.Client
	limiter  *rate.Limiter
	rules    Rules
	now      func() time.Time
}

// NewGitHub creates a repository search backend.
func NewGitHub(cfg GitHubConfig) (*GitHub, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultGitHubURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("source: invalid github base URL %q: %w", base, err)
	}

	perPage := cfg.PerPage
	switch {
	case perPage <= 0:
		perPage = defaultPerPage
	case perPage > maxPerPage:
		perPage = maxPerPage
	}

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	header.Set("X-GitHub-Api-Version", "2022-11-28")
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	g := &GitHub{
		baseURL:  strings.TrimRight(base, "/"),
		header:   header,
		perPage:  perPage,
		baseTerm: cfg.BaseTerm,
		minStars: cfg.MinStars,
		client:   cfg.HTTPClient,
		rules:    cfg.Rules,
		now:      cfg.Now,
	}
	if g.baseTerm == "" {
		g.baseTerm = defaultBaseTerm
	}
	if g.minStars <= 0 {
		g.minStars = defaultMinStars
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: 10 * time.Second}
	}
	if g.rules == nil {
		g.rules = DefaultRules
	}
	if g.now == nil {
		g.now = time.Now
	}
	if cfg.RPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return g, nil
}

// Name returns "github".
func (g *GitHub) Name() string { return BackendGitHub }

// FetchTools searches repositories for q and transforms the results.
func (g *GitHub) FetchTools(ctx context.Context, q model.Query) ([]model.Tool, error) {
	q = q.Normalize()
	now := g.now()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("source: github throttle: %w", err)
		}
	}

	var resp searchResponse
	if err := getJSON(ctx, g.client, BackendGitHub, g.searchURL(q, now), g.header, &resp); err != nil {
		return nil, err
	}

	tools := make([]model.Tool, 0, len(resp.Items))
	for _, item := range resp.Items {
		tools = append(tools, transformRepository(item, now, g.rules))
	}
	return query.Apply(dedupe(tools), q), nil
}

// FetchToolByID has no direct lookup: repository ids are not addressable
// through search, so it fetches the default listing and scans it.
func (g *GitHub) FetchToolByID(ctx context.Context, id string) (model.Tool, error) {
	all, err := g.FetchTools(ctx, model.Query{})
	if err != nil {
		return model.Tool{}, err
	}
	return findByID(all, id)
}

// FetchCategories returns the full enumeration; categories are inferred
// locally, so every one is reachable.
func (g *GitHub) FetchCategories(context.Context) ([]model.Category, error) {
	return model.Categories(), nil
}

// FetchPricingOptions returns the full enumeration. Repository tools are
// always Free.
func (g *GitHub) FetchPricingOptions(context.Context) ([]model.Pricing, error) {
	return model.PricingTiers(), nil
}

func (g *GitHub) searchURL(q model.Query, now time.Time) string {
	params := url.Values{}
	params.Set("q", SearchTerms(q, now, g.baseTerm, g.minStars))
	if q.Sort == model.SortNewest {
		params.Set("sort", "created")
	} else {
		params.Set("sort", "stars")
	}
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(g.perPage))
	return g.baseURL + "/search/repositories?" + params.Encode()
}

// searchPhrase quotes free text so qualifiers typed into it, such as
// stars:<5 or user:x, are searched for literally. Quotes inside the text
// cannot be escaped in the search syntax and are dropped.
func searchPhrase(s string) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, `"`, " ")), " ")
	if s == "" {
		return ""
	}
	return `"` + s + `"`
}

// SearchTerms builds the search q parameter for a normalised query.
func SearchTerms(q model.Query, now time.Time, baseTerm string, minStars int) string {
	terms := []string{baseTerm}
	if len(q.Categories) == 1 {
		if topic, ok := categoryTopics[q.Categories[0]]; ok {
			terms = append(terms, "topic:"+topic)
		}
	}
	if term := searchPhrase(q.Search); term != "" {
		terms = append(terms, term, "in:name,description,topics")
	}
	if q.TrendingOnly {
		terms = append(terms, fmt.Sprintf("stars:>%d", TrendingStars))
	} else {
		terms = append(terms, fmt.Sprintf("stars:>%d", minStars))
	}
	if q.NewOnly {
		terms = append(terms, "created:>"+now.Add(-NewWindow).UTC().Format("2006-01-02"))
	}
	return strings.Join(terms, " ")
}
