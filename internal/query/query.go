// Package query filters, orders and pages tool lists. Every function is pure:
// inputs are never modified and results only ever contain input records.
package query

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ashita-ai/aitools/internal/model"
)

// DefaultPageSize matches the main tools listing.
const DefaultPageSize = 9

// Apply returns the tools matching every active predicate of q, ordered by
// q's sort key. Ties keep their input order.
func Apply(tools []model.Tool, q model.Query) []model.Tool {
	q = q.Normalize()
	needle := strings.ToLower(q.Search)

	out := make([]model.Tool, 0, len(tools))
	for _, t := range tools {
		if Matches(t, q, needle) {
			out = append(out, t)
		}
	}
	Sort(out, q.Sort)
	return out
}

// Matches reports whether t satisfies every predicate in q. needle is the
// lower-cased search text; pass "" to skip the text predicate. q is expected
// to be normalised.
func Matches(t model.Tool, q model.Query, needle string) bool {
	if len(q.Categories) > 0 && !slices.Contains(q.Categories, t.Category) {
		return false
	}
	if len(q.Pricing) > 0 && !slices.Contains(q.Pricing, t.Pricing) {
		return false
	}
	if q.TrendingOnly && !t.IsTrending {
		return false
	}
	if q.NewOnly && !t.IsNew {
		return false
	}
	if needle != "" && !matchesText(t, needle) {
		return false
	}
	return true
}

func matchesText(t model.Tool, needle string) bool {
	if strings.Contains(strings.ToLower(t.Name), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Sort orders tools in place by key using a stable sort. Unknown keys fall
// back to model.DefaultSort.
func Sort(tools []model.Tool, key model.SortKey) {
	if !key.Valid() {
		key = model.DefaultSort
	}
	var cmp func(a, b model.Tool) int
	switch key {
	case model.SortUsers:
		cmp = func(a, b model.Tool) int { return compareDesc(a.Usage.Users, b.Usage.Users) }
	case model.SortNewest:
		cmp = func(a, b model.Tool) int { return b.LastUpdated.Compare(a.LastUpdated) }
	case model.SortName:
		// Collators keep internal buffers, so each sort gets its own.
		col := collate.New(language.English)
		cmp = func(a, b model.Tool) int { return col.CompareString(a.Name, b.Name) }
	default:
		cmp = func(a, b model.Tool) int { return compareDesc(a.Rating, b.Rating) }
	}
	slices.SortStableFunc(tools, cmp)
}

func compareDesc[T int64 | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// Paginate returns the 1-based page of items. A page index below 1 selects
// the first page and a size below 1 uses DefaultPageSize. Pages past the end
// are empty, never an error.
func Paginate[T any](items []T, page, size int) model.Page[T] {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	total := len(items)
	p := model.Page[T]{
		Items:      []T{},
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * size
	end := min(start+size, total)
	p.Items = slices.Clone(items[start:end])
	return p
}

// Stats counts tools per category, including trending and new subsets.
// Every category appears, in declaration order, even when its count is zero.
func Stats(tools []model.Tool) []model.CategoryStats {
	cats := model.Categories()
	idx := make(map[model.Category]int, len(cats))
	stats := make([]model.CategoryStats, len(cats))
	for i, c := range cats {
		idx[c] = i
		stats[i].Name = c
	}
	for _, t := range tools {
		i, ok := idx[t.Category]
		if !ok {
			continue
		}
		stats[i].Count++
		if t.IsTrending {
			stats[i].Trending++
		}
		if t.IsNew {
			stats[i].New++
		}
	}
	return stats
}
