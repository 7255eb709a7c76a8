package model

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// SortKey selects the ordering applied after filtering.
type SortKey string

const (
	SortRating SortKey = "rating"
	SortUsers  SortKey = "users"
	SortNewest SortKey = "newest"
	SortName   SortKey = "name"
)

// DefaultSort is used when a query names no sort or an unknown one.
const DefaultSort = SortRating

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortRating, SortUsers, SortNewest, SortName:
		return true
	}
	return false
}

// Query describes a filter and a sort order. Treat it as a value: the With*
// methods return modified copies and never touch the receiver's slices.
//
// Categories and Pricing are facet sets: a tool matches a facet when it
// matches any member, and an empty set disables the facet.
type Query struct {
	Categories   []Category `json:"category,omitempty"`
	Pricing      []Pricing  `json:"pricing,omitempty"`
	Search       string     `json:"search,omitempty"`
	TrendingOnly bool       `json:"trending,omitempty"`
	NewOnly      bool       `json:"isNew,omitempty"`
	Sort         SortKey    `json:"sort,omitempty"`
}

// WithCategory returns a copy filtered to exactly one category.
func (q Query) WithCategory(c Category) Query {
	q.Categories = []Category{c}
	return q
}

// WithCategories returns a copy filtered to the given category set.
func (q Query) WithCategories(cs ...Category) Query {
	q.Categories = slices.Clone(cs)
	return q
}

// ToggleCategory adds c to the category set, or removes it when present.
func (q Query) ToggleCategory(c Category) Query {
	if i := slices.Index(q.Categories, c); i >= 0 {
		q.Categories = slices.Delete(slices.Clone(q.Categories), i, i+1)
		return q
	}
	q.Categories = append(slices.Clone(q.Categories), c)
	return q
}

// WithPricing returns a copy filtered to the given pricing tiers.
func (q Query) WithPricing(ps ...Pricing) Query {
	q.Pricing = slices.Clone(ps)
	return q
}

// TogglePricing adds p to the pricing set, or removes it when present.
func (q Query) TogglePricing(p Pricing) Query {
	if i := slices.Index(q.Pricing, p); i >= 0 {
		q.Pricing = slices.Delete(slices.Clone(q.Pricing), i, i+1)
		return q
	}
	q.Pricing = append(slices.Clone(q.Pricing), p)
	return q
}

// WithSearch returns a copy with the given free-text search.
func (q Query) WithSearch(s string) Query {
	q.Search = s
	return q
}

// WithTrendingOnly returns a copy with the trending predicate set to v.
func (q Query) WithTrendingOnly(v bool) Query {
	q.TrendingOnly = v
	return q
}

// WithNewOnly returns a copy with the new predicate set to v.
func (q Query) WithNewOnly(v bool) Query {
	q.NewOnly = v
	return q
}

// WithSort returns a copy ordered by k.
func (q Query) WithSort(k SortKey) Query {
	q.Sort = k
	return q
}

// Normalize returns the canonical form of q: facet sets sorted and
// de-duplicated, all-blank search text cleared, and the sort defaulted. Two logically
// equal queries have identical normalised forms.
func (q Query) Normalize() Query {
	q.Categories = sortedUnique(q.Categories)
	q.Pricing = sortedUnique(q.Pricing)
	if strings.TrimSpace(q.Search) == "" {
		q.Search = ""
	}
	if !q.Sort.Valid() {
		q.Sort = DefaultSort
	}
	return q
}

func sortedUnique[T ~string](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// Values encodes the normalised query as URL parameters using the names the
// catalog REST API understands: category, pricing, search, trending, isNew
// and sort. Facet parameters repeat once per member.
func (q Query) Values() url.Values {
	q = q.Normalize()
	v := url.Values{}
	for _, c := range q.Categories {
		v.Add("category", string(c))
	}
	for _, p := range q.Pricing {
		v.Add("pricing", string(p))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.TrendingOnly {
		v.Set("trending", "true")
	}
	if q.NewOnly {
		v.Set("isNew", "true")
	}
	v.Set("sort", string(q.Sort))
	return v
}

// Key is the deterministic cache key for q. Parameter order, facet order,
// duplicate facet members and search-text case do not affect it.
func (q Query) Key() string {
	v := q.Values()
	if s := v.Get("search"); s != "" {
		v.Set("search", strings.ToLower(s))
	}
	return v.Encode()
}

// ParseQuery decodes URL parameters produced by Values (or typed by a user)
// into a Query. Category and pricing may repeat or be comma separated.
// Unknown enum members are rejected rather than coerced, since a filter on a
// fallback value would silently return the wrong tools.
func ParseQuery(v url.Values) (Query, error) {
	var q Query
	for _, raw := range splitList(v["category"]) {
		c, ok := ParseCategory(raw)
		if !ok {
			return Query{}, fmt.Errorf("unknown category %q", raw)
		}
		q.Categories = append(q.Categories, c)
	}
	for _, raw := range splitList(v["pricing"]) {
		p, ok := ParsePricing(raw)
		if !ok {
			return Query{}, fmt.Errorf("unknown pricing %q", raw)
		}
		q.Pricing = append(q.Pricing, p)
	}
	q.Search = v.Get("search")

	var err error
	if q.TrendingOnly, err = parseFlag(v, "trending"); err != nil {
		return Query{}, err
	}
	if q.NewOnly, err = parseFlag(v, "isNew"); err != nil {
		return Query{}, err
	}

	if s := v.Get("sort"); s != "" {
		k := SortKey(strings.ToLower(s))
		if !k.Valid() {
			return Query{}, fmt.Errorf("unknown sort %q", s)
		}
		q.Sort = k
	}
	return q.Normalize(), nil
}

func splitList(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseFlag(v url.Values, name string) (bool, error) {
	s := v.Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", name, s)
	}
	return b, nil
}

// Page is one slice of an ordered result list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// Listing is the browsing state of a paged list: the active query and the
// 1-based page index. Any change to the query resets the page to 1.
type Listing struct {
	Query Query
	Page  int
}

// NewListing starts a listing for q at page 1.
func NewListing(q Query) Listing {
	return Listing{Query: q, Page: 1}
}

// WithQuery replaces the query. The page resets to 1 unless q is logically
// equal to the current query.
func (l Listing) WithQuery(q Query) Listing {
	if q.Key() == l.Query.Key() {
		l.Query = q
		return l
	}
	return Listing{Query: q, Page: 1}
}

// WithPage moves to page n (values below 1 select page 1).
func (l Listing) WithPage(n int) Listing {
	if n < 1 {
		n = 1
	}
	l.Page = n
	return l
}
