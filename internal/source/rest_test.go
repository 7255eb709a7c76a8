package source_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/source"
)

func remoteTools() []model.Tool {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []model.Tool{
		{ID: "r-1", Name: "Beta", Category: model.CategoryChatBot, Pricing: model.PricingFree, Rating: 4.1, LastUpdated: day},
		{ID: "r-2", Name: "Alpha", Category: model.CategoryChatBot, Pricing: model.PricingPaid, Rating: 4.9, LastUpdated: day},
		{ID: "r-3", Name: "Gamma", Category: model.CategoryDataAnalysis, Pricing: model.PricingFree, Rating: 3.5, LastUpdated: day},
	}
}

func TestRESTFetchToolsEncodesQuery(t *testing.T) {
	var gotQuery, gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tools", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_ = json.NewEncoder(w).Encode(remoteTools())
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
	require.NoError(t, err)

	q := model.Query{}.
		WithCategory(model.CategoryChatBot).
		WithSearch("a").
		WithTrendingOnly(false).
		WithSort(model.SortName)
	tools, err := rest.FetchTools(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "category=Chat+Bot&search=a&sort=name", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, []string{"Alpha", "Beta"}, names(tools), "results are re-filtered and sorted locally")
}

func TestRESTOmitsAuthWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	tools, err := rest.FetchTools(context.Background(), model.Query{})
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestRESTAcceptsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": remoteTools()})
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	tools, err := rest.FetchTools(context.Background(), model.Query{})
	require.NoError(t, err)
	assert.Len(t, tools, 3)
}

func TestRESTNormalizesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"x-1","name":"Odd","category":"Quantum Knitting","pricing":"Pay-What-You-Want","rating":9.5,"lastUpdated":"2024-01-15"},
			{"id":"x-1","name":"Duplicate","category":"Chat Bot","pricing":"Free","rating":4,"lastUpdated":"2024-01-15"},
			{"id":"","name":"Anonymous","category":"Chat Bot","pricing":"Free","rating":4,"lastUpdated":"2024-01-15"}
		]`))
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	tools, err := rest.FetchTools(context.Background(), model.Query{})
	require.NoError(t, err)

	require.Len(t, tools, 1)
	assert.Equal(t, "Odd", tools[0].Name)
	assert.Equal(t, model.FallbackCategory, tools[0].Category)
	assert.Equal(t, model.FallbackPricing, tools[0].Pricing)
	assert.Equal(t, 5.0, tools[0].Rating)
}

func TestRESTStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = rest.FetchTools(context.Background(), model.Query{})

	var se *source.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "/tools", se.Endpoint)
	assert.Contains(t, se.Body, "upstream down")
	assert.False(t, source.IsNotFound(err))
}

func TestRESTFetchToolByIDDirect(t *testing.T) {
	var listCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tools/r-2":
			_ = json.NewEncoder(w).Encode(remoteTools()[1])
		case "/tools":
			listCalls.Add(1)
			_ = json.NewEncoder(w).Encode(remoteTools())
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	tool, err := rest.FetchToolByID(context.Background(), "r-2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", tool.Name)
	assert.Zero(t, listCalls.Load())
}

func TestRESTFetchToolByIDFallsThroughToList(t *testing.T) {
	var listCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tools" {
			listCalls.Add(1)
			_ = json.NewEncoder(w).Encode(remoteTools())
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	tool, err := rest.FetchToolByID(context.Background(), "r-3")
	require.NoError(t, err)
	assert.Equal(t, "Gamma", tool.Name)
	assert.Equal(t, int32(1), listCalls.Load())

	_, err = rest.FetchToolByID(context.Background(), "r-404")
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestRESTFetchToolByIDIgnoresMismatchedRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tools" {
			_ = json.NewEncoder(w).Encode(remoteTools())
			return
		}
		// Some APIs answer every sub-path with the first record.
		_ = json.NewEncoder(w).Encode(remoteTools()[0])
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	tool, err := rest.FetchToolByID(context.Background(), "r-3")
	require.NoError(t, err)
	assert.Equal(t, "Gamma", tool.Name)
}

func TestRESTEnumerationsAreCoerced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/categories":
			_, _ = w.Write([]byte(`["chat-bot","Chat Bot","Underwater Basketry"]`))
		case "/pricing-options":
			_, _ = w.Write([]byte(`{"data":["free","Enterprise","Enterprise"]}`))
		}
	}))
	defer srv.Close()

	rest, err := source.NewREST(source.RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	cats, err := rest.FetchCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Category{model.CategoryChatBot, model.FallbackCategory}, cats)

	tiers, err := rest.FetchPricingOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Pricing{model.PricingFree, model.PricingEnterprise}, tiers)
}

func TestNewRESTRejectsBadURL(t *testing.T) {
	_, err := source.NewREST(source.RESTConfig{BaseURL: "::"})
	assert.Error(t, err)
}
