package mcp

import (
	"fmt"
	"strings"

	"github.com/ashita-ai/aitools/internal/model"
)

// maxDescriptionLen bounds descriptions in search results. aitools_get
// returns the full text.
const maxDescriptionLen = 160

// compactTool returns the fields an agent needs to pick a tool from a list.
// Logo, features and the timestamp are left to aitools_get.
func compactTool(t model.Tool) map[string]any {
	m := map[string]any{
		"id":          t.ID,
		"name":        t.Name,
		"description": truncate(t.Description, maxDescriptionLen),
		"category":    t.Category,
		"pricing":     t.Pricing,
		"rating":      t.Rating,
		"users":       t.Usage.Users,
	}
	if len(t.Tags) > 0 {
		m["tags"] = t.Tags
	}
	if t.IsTrending {
		m["trending"] = true
	}
	if t.IsNew {
		m["new"] = true
	}
	return m
}

// searchSummary is a one-line, human-readable account of a search page.
func searchSummary(q model.Query, page model.Page[model.Tool]) string {
	if page.Total == 0 {
		return "No tools match " + describeQuery(q) + "."
	}
	if len(page.Items) == 0 {
		return fmt.Sprintf("%d tools match %s; page %d is past the last page (%d).",
			page.Total, describeQuery(q), page.Page, page.TotalPages)
	}
	first := (page.Page-1)*page.PageSize + 1
	last := first + len(page.Items) - 1
	return fmt.Sprintf("Showing %d-%d of %d tools matching %s, sorted by %s.",
		first, last, page.Total, describeQuery(q), q.Sort)
}

func describeQuery(q model.Query) string {
	var parts []string
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("%q", q.Search))
	}
	if len(q.Categories) > 0 {
		parts = append(parts, "category "+enumList(q.Categories))
	}
	if len(q.Pricing) > 0 {
		parts = append(parts, "pricing "+enumList(q.Pricing))
	}
	if q.TrendingOnly {
		parts = append(parts, "trending")
	}
	if q.NewOnly {
		parts = append(parts, "new")
	}
	if len(parts) == 0 {
		return "the whole catalog"
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
