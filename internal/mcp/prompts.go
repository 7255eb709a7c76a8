package mcp

import (
	"context"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	// find-tool: walks the agent through narrowing the catalog to a shortlist.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("find-tool",
			mcplib.WithPromptDescription("Find AI tools that fit a described need"),
			mcplib.WithArgument("need",
				mcplib.ArgumentDescription("What the tool should do, e.g. \"summarise meeting notes\""),
				mcplib.RequiredArgument(),
			),
			mcplib.WithArgument("budget",
				mcplib.ArgumentDescription("Optional pricing constraint, e.g. \"Free\" or \"Free,Freemium\""),
			),
		),
		s.handleFindToolPrompt,
	)

	// compare-tools: side-by-side comparison of named tools.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("compare-tools",
			mcplib.WithPromptDescription("Compare several catalog tools side by side"),
			mcplib.WithArgument("ids",
				mcplib.ArgumentDescription("Comma separated tool ids"),
				mcplib.RequiredArgument(),
			),
		),
		s.handleCompareToolsPrompt,
	)
}

func (s *Server) handleFindToolPrompt(_ context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	need := strings.TrimSpace(request.Params.Arguments["need"])
	if need == "" {
		return nil, fmt.Errorf("need argument is required")
	}
	budget := strings.TrimSpace(request.Params.Arguments["budget"])

	pricingStep := "Leave pricing unset unless the user mentions cost."
	if budget != "" {
		pricingStep = fmt.Sprintf("Set pricing=%q.", budget)
	}

	return &mcplib.GetPromptResult{
		Description: "Find AI tools for: " + need,
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Find AI tools for this need: %s

1. CALL aitools_categories to see which categories hold tools.

2. CALL aitools_search with the category that best fits the need and a short
   search term taken from it. %s

3. If fewer than three tools come back, drop the search term and search the
   category alone, then try a neighbouring category.

4. CALL aitools_get for the two or three best candidates and compare their
   features, pricing and rating before answering.`, need, pricingStep),
				},
			},
		},
	}, nil
}

func (s *Server) handleCompareToolsPrompt(_ context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	var ids []string
	for _, id := range strings.Split(request.Params.Arguments["ids"], ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) < 2 {
		return nil, fmt.Errorf("ids argument needs at least two tool ids")
	}

	var b strings.Builder
	b.WriteString("Compare these AI tools.\n\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "- CALL aitools_get with id=%q\n", id)
	}
	b.WriteString("\nThen present a table with name, category, pricing, rating, users and ")
	b.WriteString("the features each one has that the others lack. Close with a one-line ")
	b.WriteString("recommendation per pricing tier.")

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Compare %d tools", len(ids)),
		Messages: []mcplib.PromptMessage{
			{
				Role:    mcplib.RoleUser,
				Content: mcplib.TextContent{Type: "text", Text: b.String()},
			},
		},
	}, nil
}
