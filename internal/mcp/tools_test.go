package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/aitools/internal/service/catalog"
	"github.com/ashita-ai/aitools/internal/source"
	"github.com/ashita-ai/aitools/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := testutil.TestLogger()
	svc := catalog.New(source.NewStatic(source.Seed()), catalog.Config{}, logger)
	return New(svc, logger, "test")
}

func toolRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// parseToolText extracts the first TextContent text from a CallToolResult.
func parseToolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no TextContent found in tool result")
	return ""
}

type searchResponse struct {
	Items []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Pricing  string `json:"pricing"`
		Trending bool   `json:"trending"`
	} `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	Summary    string `json:"summary"`
}

func search(t *testing.T, s *Server, args map[string]any) searchResponse {
	t.Helper()
	result, err := s.handleSearch(context.Background(), toolRequest("aitools_search", args))
	require.NoError(t, err)
	require.False(t, result.IsError, "search should succeed: %s", parseToolText(t, result))

	var resp searchResponse
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &resp))
	return resp
}

func TestHandleSearchWholeCatalog(t *testing.T) {
	resp := search(t, newTestServer(t), nil)
	assert.Equal(t, 8, resp.Total)
	assert.Len(t, resp.Items, 8)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, catalog.ListingPageSize, resp.PageSize)
	assert.Equal(t, "QuantumAI", resp.Items[0].Name, "rating order by default")
	assert.Contains(t, resp.Summary, "the whole catalog")
}

func TestHandleSearchFilters(t *testing.T) {
	s := newTestServer(t)

	resp := search(t, s, map[string]any{"pricing": "freemium"})
	require.Len(t, resp.Items, 3)
	assert.Equal(t, []string{"CodeSage", "TextSculptor", "SmartChat"},
		[]string{resp.Items[0].Name, resp.Items[1].Name, resp.Items[2].Name})

	resp = search(t, s, map[string]any{"trending": true})
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "CodeSage", resp.Items[0].Name)
	assert.True(t, resp.Items[0].Trending)

	resp = search(t, s, map[string]any{"category": "Chat Bot, Code Assistant", "sort": "name"})
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "CodeSage", resp.Items[0].Name)
	assert.Equal(t, "SmartChat", resp.Items[1].Name)

	resp = search(t, s, map[string]any{"search": "podcast"})
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "AudioForge", resp.Items[0].Name)
}

func TestHandleSearchPaging(t *testing.T) {
	s := newTestServer(t)

	resp := search(t, s, map[string]any{"page": 2, "page_size": 3, "sort": "name"})
	assert.Equal(t, 8, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "ImageMaster AI", resp.Items[0].Name)
	assert.Contains(t, resp.Summary, "Showing 4-6 of 8")

	resp = search(t, s, map[string]any{"page": 9, "page_size": 3})
	assert.Empty(t, resp.Items)
	assert.Contains(t, resp.Summary, "past the last page")

	resp = search(t, s, map[string]any{"page_size": 500})
	assert.Equal(t, maxSearchPageSize, resp.PageSize)
}

func TestHandleSearchRejectsUnknownFilter(t *testing.T) {
	s := newTestServer(t)
	for _, args := range []map[string]any{
		{"category": "Robotics"},
		{"pricing": "cheap"},
		{"sort": "stars"},
	} {
		result, err := s.handleSearch(context.Background(), toolRequest("aitools_search", args))
		require.NoError(t, err)
		assert.True(t, result.IsError, "args %v", args)
	}
}

func TestHandleSearchNoMatches(t *testing.T) {
	resp := search(t, newTestServer(t), map[string]any{"search": "zzz"})
	assert.Zero(t, resp.Total)
	assert.NotNil(t, resp.Items)
	assert.Equal(t, `No tools match "zzz".`, resp.Summary)
}

func TestHandleGet(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGet(context.Background(), toolRequest("aitools_get", map[string]any{"id": "tool-05"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var tool struct {
		Name     string   `json:"name"`
		Features []string `json:"features"`
		Usage    struct {
			Users int64 `json:"users"`
		} `json:"usageStats"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &tool))
	assert.Equal(t, "AudioForge", tool.Name)
	assert.NotEmpty(t, tool.Features)
	assert.Positive(t, tool.Usage.Users)
}

func TestHandleGetErrors(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGet(context.Background(), toolRequest("aitools_get", map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), `"missing"`)

	result, err = s.handleGet(context.Background(), toolRequest("aitools_get", map[string]any{"id": "  "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "id is required", parseToolText(t, result))
}

func TestHandleCategories(t *testing.T) {
	result, err := newTestServer(t).handleCategories(context.Background(), toolRequest("aitools_categories", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp struct {
		Categories []struct {
			Name     string `json:"name"`
			Count    int    `json:"count"`
			Trending int    `json:"trending"`
			New      int    `json:"new"`
		} `json:"categories"`
		Backend string `json:"backend"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &resp))
	require.Len(t, resp.Categories, 8)
	assert.Equal(t, "Generative AI", resp.Categories[0].Name)
	assert.Equal(t, 1, resp.Categories[0].New)
	assert.Equal(t, source.BackendStatic, resp.Backend)

	total := 0
	for _, c := range resp.Categories {
		total += c.Count
	}
	assert.Equal(t, 8, total)
}
