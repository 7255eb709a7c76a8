package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	uriCategories = "aitools://categories"
	uriTrending   = "aitools://tools/trending"
	uriToolPrefix = "aitools://tool/"
)

func (s *Server) registerResources() {
	// aitools://categories: category counts over the whole catalog.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriCategories,
			"Categories",
			mcplib.WithResourceDescription("Every category with its tool, trending and new counts"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleCategoriesResource,
	)

	// aitools://tools/trending: the trending tools.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriTrending,
			"Trending Tools",
			mcplib.WithResourceDescription("Tools currently flagged as trending, best rated first"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleTrendingResource,
	)

	// aitools://tool/{id}: one tool in full.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			uriToolPrefix+"{id}",
			"Tool",
			mcplib.WithTemplateDescription("Full record of one catalog tool"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleToolResource,
	)
}

func (s *Server) handleCategoriesResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	stats, err := s.svc.CategoryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: categories: %w", err)
	}
	return jsonContents(request.Params.URI, stats)
}

func (s *Server) handleTrendingResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	tools, err := s.svc.TrendingTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: trending tools: %w", err)
	}
	items := make([]map[string]any, len(tools))
	for i, t := range tools {
		items[i] = compactTool(t)
	}
	return jsonContents(request.Params.URI, items)
}

func (s *Server) handleToolResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	id, err := parseToolURI(uri)
	if err != nil {
		return nil, err
	}

	tool, err := s.svc.Tool(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mcp: tool: %w", err)
	}
	return jsonContents(uri, tool)
}

// parseToolURI extracts the id from aitools://tool/{id}.
func parseToolURI(uri string) (string, error) {
	id, ok := strings.CutPrefix(uri, uriToolPrefix)
	if !ok {
		return "", fmt.Errorf("mcp: invalid tool URI: %s", uri)
	}
	if id == "" {
		return "", errors.New("mcp: invalid tool URI: empty id")
	}
	if strings.Contains(id, "/") {
		return "", fmt.Errorf("mcp: invalid tool URI: %s", uri)
	}
	return id, nil
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

