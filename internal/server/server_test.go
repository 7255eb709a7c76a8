package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/aitools/internal/mcp"
	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/ratelimit"
	"github.com/ashita-ai/aitools/internal/server"
	"github.com/ashita-ai/aitools/internal/service/catalog"
	"github.com/ashita-ai/aitools/internal/source"
	"github.com/ashita-ai/aitools/internal/testutil"
)

func newTestServer(t *testing.T, src source.Source, limiter ratelimit.Limiter) *httptest.Server {
	t.Helper()
	logger := testutil.TestLogger()
	svc := catalog.New(src, catalog.Config{}, logger)
	srv := server.New(server.ServerConfig{
		Service:   svc,
		Logger:    logger,
		Limiter:   limiter,
		MCPServer: mcp.New(svc, logger, "test").MCPServer(),
		Version:   "test",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newSeedServer(t *testing.T) *httptest.Server {
	return newTestServer(t, source.NewStatic(source.Seed()), nil)
}

type envelope[T any] struct {
	Data T                  `json:"data"`
	Meta model.ResponseMeta `json:"meta"`
}

func get[T any](t *testing.T, target string, wantStatus int) envelope[T] {
	t.Helper()
	resp, err := http.Get(target)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, wantStatus, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var env envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func getError(t *testing.T, method, target string, wantStatus int) model.APIError {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, wantStatus, resp.StatusCode)

	var apiErr model.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.NotEmpty(t, apiErr.Meta.RequestID)
	return apiErr
}

func names(tools []model.Tool) []string {
	out := make([]string, len(tools))
	for i, tl := range tools {
		out[i] = tl.Name
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newSeedServer(t)
	env := get[model.HealthResponse](t, ts.URL+"/health", http.StatusOK)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "test", env.Data.Version)
	assert.Equal(t, source.BackendStatic, env.Data.Backend)
	assert.NotEmpty(t, env.Meta.RequestID)
}

func TestListTools(t *testing.T) {
	ts := newSeedServer(t)

	env := get[model.Page[model.Tool]](t, ts.URL+"/v1/tools", http.StatusOK)
	assert.Equal(t, 8, env.Data.Total)
	assert.Equal(t, catalog.ListingPageSize, env.Data.PageSize)
	assert.Equal(t, "QuantumAI", env.Data.Items[0].Name)
	assert.Equal(t, source.BackendStatic, env.Meta.Backend)

	env = get[model.Page[model.Tool]](t, ts.URL+"/v1/tools?pricing=Freemium&pricing=Paid&category=Code+Assistant,Audio+Processing", http.StatusOK)
	assert.Equal(t, []string{"CodeSage", "AudioForge"}, names(env.Data.Items))

	env = get[model.Page[model.Tool]](t, ts.URL+"/v1/tools?sort=name&page=3&page_size=3", http.StatusOK)
	assert.Equal(t, []string{"TextSculptor", "VideoGen"}, names(env.Data.Items))
	assert.Equal(t, 3, env.Data.TotalPages)

	env = get[model.Page[model.Tool]](t, ts.URL+"/v1/tools?search=VISUAL&isNew=false", http.StatusOK)
	assert.ElementsMatch(t, []string{"ImageMaster AI", "DataLens"}, names(env.Data.Items))
}

func TestListToolsInvalidInput(t *testing.T) {
	ts := newSeedServer(t)
	for _, q := range []string{"category=Robotics", "pricing=cheap", "sort=stars", "trending=maybe", "page=x", "page_size=1.5"} {
		apiErr := getError(t, http.MethodGet, ts.URL+"/v1/tools?"+q, http.StatusBadRequest)
		assert.Equal(t, model.ErrCodeInvalidInput, apiErr.Error.Code, q)
	}
}

func TestTrendingAndNew(t *testing.T) {
	ts := newSeedServer(t)

	env := get[model.Page[model.Tool]](t, ts.URL+"/v1/tools/trending", http.StatusOK)
	assert.Equal(t, []string{"CodeSage"}, names(env.Data.Items))
	assert.Equal(t, catalog.TrendingPageSize, env.Data.PageSize)

	env = get[model.Page[model.Tool]](t, ts.URL+"/v1/tools/new", http.StatusOK)
	assert.Equal(t, []string{"QuantumAI"}, names(env.Data.Items))
}

func TestGetTool(t *testing.T) {
	ts := newSeedServer(t)

	env := get[model.Tool](t, ts.URL+"/v1/tools/tool-06", http.StatusOK)
	assert.Equal(t, "VideoGen", env.Data.Name)
	assert.Equal(t, model.CategoryVideoCreation, env.Data.Category)

	apiErr := getError(t, http.MethodGet, ts.URL+"/v1/tools/nope", http.StatusNotFound)
	assert.Equal(t, model.ErrCodeNotFound, apiErr.Error.Code)
}

func TestEnumerationsAndStats(t *testing.T) {
	ts := newSeedServer(t)

	cats := get[[]model.Category](t, ts.URL+"/v1/categories", http.StatusOK)
	assert.Equal(t, model.Categories(), cats.Data)

	tiers := get[[]model.Pricing](t, ts.URL+"/v1/pricing-options", http.StatusOK)
	assert.Equal(t, model.PricingTiers(), tiers.Data)

	stats := get[[]model.CategoryStats](t, ts.URL+"/v1/categories/stats", http.StatusOK)
	require.Len(t, stats.Data, 8)
	for _, s := range stats.Data {
		assert.Equal(t, 1, s.Count, s.Name)
	}
}

func TestCacheAndRevalidate(t *testing.T) {
	ts := newSeedServer(t)

	empty := get[[]catalog.Status](t, ts.URL+"/v1/cache", http.StatusOK)
	assert.Empty(t, empty.Data)

	get[model.Page[model.Tool]](t, ts.URL+"/v1/tools", http.StatusOK)
	statuses := get[[]catalog.Status](t, ts.URL+"/v1/cache", http.StatusOK)
	require.Len(t, statuses.Data, 1)
	key := statuses.Data[0].Key
	assert.True(t, statuses.Data[0].HasData)

	resp, err := http.Post(ts.URL+"/v1/revalidate?key="+url.QueryEscape(key), "", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var env envelope[catalog.Status]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, key, env.Data.Key)
	assert.False(t, env.Data.IsError)

	apiErr := getError(t, http.MethodPost, ts.URL+"/v1/revalidate?key=/bogus", http.StatusNotFound)
	assert.Equal(t, model.ErrCodeNotFound, apiErr.Error.Code)

	apiErr = getError(t, http.MethodPost, ts.URL+"/v1/revalidate", http.StatusBadRequest)
	assert.Equal(t, model.ErrCodeInvalidInput, apiErr.Error.Code)
}

// failingSource serves one successful list, then fails every refetch.
type failingSource struct {
	*source.Static
	calls int
}

func (f *failingSource) FetchTools(ctx context.Context, q model.Query) ([]model.Tool, error) {
	f.calls++
	if f.calls > 1 {
		return nil, &source.StatusError{StatusCode: http.StatusServiceUnavailable, Endpoint: "/tools"}
	}
	return f.Static.FetchTools(ctx, q)
}

func TestRevalidateFailureKeepsPreviousValue(t *testing.T) {
	ts := newTestServer(t, &failingSource{Static: source.NewStatic(source.Seed())}, nil)

	get[model.Page[model.Tool]](t, ts.URL+"/v1/tools", http.StatusOK)
	key := catalog.ToolsKey(model.Query{})

	apiErr := getError(t, http.MethodPost, ts.URL+"/v1/revalidate?key="+url.QueryEscape(key), http.StatusBadGateway)
	assert.Equal(t, model.ErrCodeUpstream, apiErr.Error.Code)

	env := get[model.Page[model.Tool]](t, ts.URL+"/v1/tools", http.StatusOK)
	assert.Equal(t, 8, env.Data.Total)
}

func TestRevalidateDuringOutageKeepsRemoteValue(t *testing.T) {
	var down atomic.Bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Tool{{ID: "remote-1", Name: "RemoteOnly", Rating: 4.5}})
	}))
	t.Cleanup(upstream.Close)

	src, err := source.New(source.Config{Backend: source.BackendREST, APIURL: upstream.URL}, testutil.TestLogger())
	require.NoError(t, err)
	ts := newTestServer(t, src, nil)

	env := get[model.Page[model.Tool]](t, ts.URL+"/v1/tools", http.StatusOK)
	assert.Equal(t, []string{"RemoteOnly"}, names(env.Data.Items))

	down.Store(true)
	key := catalog.ToolsKey(model.Query{})
	apiErr := getError(t, http.MethodPost, ts.URL+"/v1/revalidate?key="+url.QueryEscape(key), http.StatusBadGateway)
	assert.Equal(t, model.ErrCodeUpstream, apiErr.Error.Code)

	env = get[model.Page[model.Tool]](t, ts.URL+"/v1/tools", http.StatusOK)
	assert.Equal(t, []string{"RemoteOnly"}, names(env.Data.Items), "the static catalog does not replace cached remote data")

	// A query never read before still renders from the static catalog.
	env = get[model.Page[model.Tool]](t, ts.URL+"/v1/tools?sort=name", http.StatusOK)
	assert.Equal(t, 8, env.Data.Total)
}

func TestRateLimited(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(0.001, 2)
	t.Cleanup(func() { _ = limiter.Close() })
	ts := newTestServer(t, source.NewStatic(source.Seed()), limiter)

	get[[]model.Category](t, ts.URL+"/v1/categories", http.StatusOK)
	get[[]model.Category](t, ts.URL+"/v1/categories", http.StatusOK)
	apiErr := getError(t, http.MethodGet, ts.URL+"/v1/categories", http.StatusTooManyRequests)
	assert.Equal(t, model.ErrCodeRateLimited, apiErr.Error.Code)

	// Health checks bypass the limiter.
	get[model.HealthResponse](t, ts.URL+"/health", http.StatusOK)
}

func TestUnknownRoute(t *testing.T) {
	ts := newSeedServer(t)
	resp, err := http.Get(ts.URL + "/v2/nothing")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestMCPOverHTTP(t *testing.T) {
	ts := newSeedServer(t)

	c, err := mcpclient.NewStreamableHttpClient(ts.URL + "/mcp")
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	initResult, err := c.Initialize(ctx, mcplib.InitializeRequest{
		Params: mcplib.InitializeParams{
			ClientInfo: mcplib.Implementation{Name: "test-client", Version: "1.0"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "aitools", initResult.ServerInfo.Name)
	assert.Equal(t, "test", initResult.ServerInfo.Version)

	toolsResult, err := c.ListTools(ctx, mcplib.ListToolsRequest{})
	require.NoError(t, err)
	toolNames := make(map[string]bool)
	for _, tool := range toolsResult.Tools {
		toolNames[tool.Name] = true
	}
	assert.True(t, toolNames["aitools_search"], "expected aitools_search tool")
	assert.True(t, toolNames["aitools_get"], "expected aitools_get tool")
	assert.True(t, toolNames["aitools_categories"], "expected aitools_categories tool")

	getResult, err := c.CallTool(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "aitools_get",
			Arguments: map[string]any{"id": "tool-02"},
		},
	})
	require.NoError(t, err)
	require.False(t, getResult.IsError, "get tool returned error: %v", getResult.Content)
	require.NotEmpty(t, getResult.Content)
	tc, ok := getResult.Content[0].(mcplib.TextContent)
	require.True(t, ok)
	assert.Contains(t, tc.Text, "ImageMaster AI")
}
