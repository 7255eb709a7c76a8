// Package model defines the catalog's domain types: tools, their closed
// category and pricing enumerations, queries, and API envelopes.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Category is one of a closed set of tool categories.
type Category string

const (
	CategoryGenerativeAI    Category = "Generative AI"
	CategoryTextProcessing  Category = "Text Processing"
	CategoryImageGeneration Category = "Image Generation"
	CategoryCodeAssistant   Category = "Code Assistant"
	CategoryAudioProcessing Category = "Audio Processing"
	CategoryVideoCreation   Category = "Video Creation"
	CategoryDataAnalysis    Category = "Data Analysis"
	CategoryChatBot         Category = "Chat Bot"
)

// FallbackCategory is assigned when a foreign category cannot be mapped.
const FallbackCategory = CategoryGenerativeAI

var categories = []Category{
	CategoryGenerativeAI,
	CategoryTextProcessing,
	CategoryImageGeneration,
	CategoryCodeAssistant,
	CategoryAudioProcessing,
	CategoryVideoCreation,
	CategoryDataAnalysis,
	CategoryChatBot,
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Valid reports whether c is a member of the enumeration.
func (c Category) Valid() bool {
	for _, v := range categories {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCategory maps a foreign string onto the enumeration. Matching ignores
// case, surrounding space, and '-'/'_' separators, so "code-assistant" and
// "Code Assistant" both resolve. Unmappable input yields FallbackCategory and false.
func ParseCategory(s string) (Category, bool) {
	norm := normalizeEnum(s)
	for _, c := range categories {
		if normalizeEnum(string(c)) == norm {
			return c, true
		}
	}
	return FallbackCategory, false
}

// Pricing is one of a closed set of pricing tiers.
type Pricing string

const (
	PricingFree         Pricing = "Free"
	PricingFreemium     Pricing = "Freemium"
	PricingPaid         Pricing = "Paid"
	PricingEnterprise   Pricing = "Enterprise"
	PricingContactSales Pricing = "Contact Sales"
)

// FallbackPricing is assigned when a foreign pricing tier cannot be mapped.
const FallbackPricing = PricingFree

var pricingTiers = []Pricing{
	PricingFree,
	PricingFreemium,
	PricingPaid,
	PricingEnterprise,
	PricingContactSales,
}

// PricingTiers returns every pricing tier in declaration order.
func PricingTiers() []Pricing {
	return append([]Pricing(nil), pricingTiers...)
}

// Valid reports whether p is a member of the enumeration.
func (p Pricing) Valid() bool {
	for _, v := range pricingTiers {
		if p == v {
			return true
		}
	}
	return false
}

// ParsePricing maps a foreign string onto the enumeration using the same
// normalisation as ParseCategory. Unmappable input yields FallbackPricing and false.
func ParsePricing(s string) (Pricing, bool) {
	norm := normalizeEnum(s)
	for _, p := range pricingTiers {
		if normalizeEnum(string(p)) == norm {
			return p, true
		}
	}
	return FallbackPricing, false
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// Rating bounds.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// ClampRating forces r into [MinRating, MaxRating].
func ClampRating(r float64) float64 {
	switch {
	case math.IsNaN(r):
		return MinRating
	case r < MinRating:
		return MinRating
	case r > MaxRating:
		return MaxRating
	}
	return r
}

// Usage holds a tool's adoption figures.
type Usage struct {
	Users    int64 `json:"users"`
	APICalls int64 `json:"apiCalls"`
}

// Tool is a read-only catalog entry. Values returned by a source must not be
// mutated; use Clone when a modified copy is needed.
type Tool struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Logo        string    `json:"logo"`
	Category    Category  `json:"category"`
	Tags        []string  `json:"tags"`
	Rating      float64   `json:"rating"`
	Usage       Usage     `json:"usageStats"`
	Pricing     Pricing   `json:"pricing"`
	Features    []string  `json:"features"`
	URL         string    `json:"url"`
	IsNew       bool      `json:"isNew,omitempty"`
	IsTrending  bool      `json:"isTrending,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Clone returns a deep copy of t.
func (t Tool) Clone() Tool {
	t.Tags = append([]string(nil), t.Tags...)
	t.Features = append([]string(nil), t.Features...)
	return t
}

// Normalize coerces foreign enum values, clamps the rating and floors usage
// counters at zero. It returns the normalised copy.
func (t Tool) Normalize() Tool {
	t = t.Clone()
	if !t.Category.Valid() {
		t.Category, _ = ParseCategory(string(t.Category))
	}
	if !t.Pricing.Valid() {
		t.Pricing, _ = ParsePricing(string(t.Pricing))
	}
	t.Rating = ClampRating(t.Rating)
	if t.Usage.Users < 0 {
		t.Usage.Users = 0
	}
	if t.Usage.APICalls < 0 {
		t.Usage.APICalls = 0
	}
	return t
}

// CategoryStats summarises the tools in one category.
type CategoryStats struct {
	Name     Category `json:"name"`
	Count    int      `json:"count"`
	Trending int      `json:"trending"`
	New      int      `json:"new"`
}

// UnmarshalJSON accepts lastUpdated either as RFC 3339 or as a bare
// YYYY-MM-DD date, which is how hand-maintained catalogs usually write it.
func (t *Tool) UnmarshalJSON(data []byte) error {
	type toolAlias Tool
	aux := struct {
		*toolAlias
		LastUpdated string `json:"lastUpdated"`
	}{toolAlias: (*toolAlias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.LastUpdated == "" {
		t.LastUpdated = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if ts, err := time.Parse(layout, aux.LastUpdated); err == nil {
			t.LastUpdated = ts
			return nil
		}
	}
	return fmt.Errorf("model: invalid lastUpdated %q", aux.LastUpdated)
}
