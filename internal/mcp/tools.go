package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/aitools/internal/ctxutil"
	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/source"
)

// maxSearchPageSize caps page_size for aitools_search.
const maxSearchPageSize = 50

func enumList[T ~string](vs []T) string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return strings.Join(out, ", ")
}

func (s *Server) registerTools() {
	// aitools_search: filtered, sorted and paged catalog listing.
	s.mcpServer.AddTool(
		mcplib.NewTool("aitools_search",
			mcplib.WithDescription(`Search the AI tool catalog.

WHEN TO USE: When you need to recommend or compare AI tools for a task,
e.g. "a free code assistant" or "trending image generators".

Filters combine with AND. category and pricing accept a comma separated
list and match any member. Search text matches name, description and tags
case-insensitively.

WHAT YOU GET BACK:
- items: compact tool records for the requested page
- total, page, page_size, total_pages: paging metadata

EXAMPLE: category="Code Assistant", pricing="Free,Freemium", sort="rating"`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("search",
				mcplib.Description("Free text matched against name, description and tags"),
			),
			mcplib.WithString("category",
				mcplib.Description("Comma separated categories. One of: "+enumList(model.Categories())),
			),
			mcplib.WithString("pricing",
				mcplib.Description("Comma separated pricing tiers. One of: "+enumList(model.PricingTiers())),
			),
			mcplib.WithBoolean("trending",
				mcplib.Description("Only tools flagged as trending"),
			),
			mcplib.WithBoolean("new",
				mcplib.Description("Only tools flagged as new"),
			),
			mcplib.WithString("sort",
				mcplib.Description("Sort order"),
				mcplib.Enum(string(model.SortRating), string(model.SortUsers), string(model.SortNewest), string(model.SortName)),
				mcplib.DefaultString(string(model.DefaultSort)),
			),
			mcplib.WithNumber("page",
				mcplib.Description("1-based page number"),
				mcplib.Min(1),
				mcplib.DefaultNumber(1),
			),
			mcplib.WithNumber("page_size",
				mcplib.Description("Tools per page"),
				mcplib.Min(1),
				mcplib.Max(maxSearchPageSize),
			),
		),
		s.handleSearch,
	)

	// aitools_get: one tool in full.
	s.mcpServer.AddTool(
		mcplib.NewTool("aitools_get",
			mcplib.WithDescription(`Get the full record of one AI tool by id.

WHEN TO USE: After aitools_search, to read a tool's features, tags, usage
figures and link before recommending it.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("id",
				mcplib.Description("Tool id as returned by aitools_search"),
				mcplib.Required(),
			),
		),
		s.handleGet,
	)

	// aitools_categories: per-category counts.
	s.mcpServer.AddTool(
		mcplib.NewTool("aitools_categories",
			mcplib.WithDescription(`List every catalog category with its tool count and how many
of those tools are trending or new.

WHEN TO USE: To get an overview of the catalog before searching.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.handleCategories,
	)
}

// searchQuery maps tool arguments onto the URL parameter names model.ParseQuery
// accepts, so MCP and HTTP validate filters identically.
func searchQuery(request mcplib.CallToolRequest) (model.Query, error) {
	v := url.Values{}
	for _, name := range []string{"search", "category", "pricing", "sort"} {
		if s := request.GetString(name, ""); s != "" {
			v.Set(name, s)
		}
	}
	if request.GetBool("trending", false) {
		v.Set("trending", "true")
	}
	if request.GetBool("new", false) {
		v.Set("isNew", "true")
	}
	return model.ParseQuery(v)
}

func (s *Server) handleSearch(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	q, err := searchQuery(request)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	size := request.GetInt("page_size", 0)
	if size > maxSearchPageSize {
		size = maxSearchPageSize
	}
	listing := model.NewListing(q).WithPage(request.GetInt("page", 1))

	page, err := s.svc.Page(ctx, listing, size)
	if err != nil {
		s.logFailure(ctx, "aitools_search", err)
		return errorResult(fmt.Sprintf("search failed: %v", err)), nil
	}

	items := make([]map[string]any, len(page.Items))
	for i, t := range page.Items {
		items[i] = compactTool(t)
	}
	resultData, _ := json.MarshalIndent(map[string]any{
		"items":       items,
		"total":       page.Total,
		"page":        page.Page,
		"page_size":   page.PageSize,
		"total_pages": page.TotalPages,
		"summary":     searchSummary(q, page),
	}, "", "  ")

	return textResult(string(resultData)), nil
}

func (s *Server) handleGet(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("id", ""))
	if id == "" {
		return errorResult("id is required"), nil
	}

	tool, err := s.svc.Tool(ctx, id)
	if errors.Is(err, source.ErrNotFound) {
		return errorResult("no tool with id " + strconv.Quote(id)), nil
	}
	if err != nil {
		s.logFailure(ctx, "aitools_get", err)
		return errorResult(fmt.Sprintf("lookup failed: %v", err)), nil
	}

	resultData, _ := json.MarshalIndent(tool, "", "  ")
	return textResult(string(resultData)), nil
}

func (s *Server) handleCategories(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	stats, err := s.svc.CategoryStats(ctx)
	if err != nil {
		s.logFailure(ctx, "aitools_categories", err)
		return errorResult(fmt.Sprintf("category stats failed: %v", err)), nil
	}

	resultData, _ := json.MarshalIndent(map[string]any{
		"categories": stats,
		"backend":    s.svc.Backend(),
	}, "", "  ")
	return textResult(string(resultData)), nil
}

// logFailure records a tool error against the HTTP request that carried it.
func (s *Server) logFailure(ctx context.Context, tool string, err error) {
	s.logger.WarnContext(ctx, "mcp: tool call failed",
		"tool", tool,
		"error", err,
		"request_id", ctxutil.RequestIDFromContext(ctx),
	)
}
