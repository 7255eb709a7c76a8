package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/aitools/internal/source"
)

func TestParseToolURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		wantID    string
		wantError bool
		errSubstr string
	}{
		{name: "simple id", uri: "aitools://tool/tool-01", wantID: "tool-01"},
		{name: "numeric id", uri: "aitools://tool/123456", wantID: "123456"},
		{name: "empty id", uri: "aitools://tool/", wantError: true, errSubstr: "empty id"},
		{name: "wrong scheme", uri: "other://tool/x", wantError: true, errSubstr: "invalid tool URI"},
		{name: "nested path", uri: "aitools://tool/a/b", wantError: true, errSubstr: "invalid tool URI"},
		{name: "empty string", uri: "", wantError: true, errSubstr: "invalid tool URI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := parseToolURI(tt.uri)
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
				assert.Empty(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func readRequest(uri string) mcplib.ReadResourceRequest {
	return mcplib.ReadResourceRequest{Params: mcplib.ReadResourceParams{URI: uri}}
}

func resourceText(t *testing.T, contents []mcplib.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok, "expected TextResourceContents")
	assert.Equal(t, "application/json", tc.MIMEType)
	return tc.Text
}

func TestToolResource(t *testing.T) {
	s := newTestServer(t)

	contents, err := s.handleToolResource(context.Background(), readRequest("aitools://tool/tool-03"))
	require.NoError(t, err)

	var tool struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(resourceText(t, contents)), &tool))
	assert.Equal(t, "SmartChat", tool.Name)

	_, err = s.handleToolResource(context.Background(), readRequest("aitools://tool/missing"))
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestTrendingAndCategoriesResources(t *testing.T) {
	s := newTestServer(t)

	contents, err := s.handleTrendingResource(context.Background(), readRequest(uriTrending))
	require.NoError(t, err)
	var trending []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resourceText(t, contents)), &trending))
	require.Len(t, trending, 1)
	assert.Equal(t, "CodeSage", trending[0]["name"])

	contents, err = s.handleCategoriesResource(context.Background(), readRequest(uriCategories))
	require.NoError(t, err)
	var stats []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resourceText(t, contents)), &stats))
	assert.Len(t, stats, 8)
}
