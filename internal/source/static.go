package source

import (
	"context"

	"github.com/ashita-ai/aitools/internal/model"
	"github.com/ashita-ai/aitools/internal/query"
)

// Static serves a fixed in-process list. Filtering and ordering happen
// entirely in the query engine.
type Static struct {
	tools []model.Tool
}

// NewStatic creates a backend over a private copy of tools. Duplicate ids
// after the first are dropped.
func NewStatic(tools []model.Tool) *Static {
	owned := make([]model.Tool, 0, len(tools))
	for _, t := range tools {
		owned = append(owned, t.Normalize())
	}
	return &Static{tools: dedupe(owned)}
}

// Name returns "static".
func (s *Static) Name() string { return BackendStatic }

// FetchTools applies q to the fixed list.
func (s *Static) FetchTools(_ context.Context, q model.Query) ([]model.Tool, error) {
	return cloneAll(query.Apply(s.tools, q)), nil
}

// FetchToolByID looks up a tool by id, returning ErrNotFound on a miss.
func (s *Static) FetchToolByID(_ context.Context, id string) (model.Tool, error) {
	t, err := findByID(s.tools, id)
	if err != nil {
		return model.Tool{}, err
	}
	return t.Clone(), nil
}

// FetchCategories returns the full category enumeration.
func (s *Static) FetchCategories(context.Context) ([]model.Category, error) {
	return model.Categories(), nil
}

// FetchPricingOptions returns the full pricing enumeration.
func (s *Static) FetchPricingOptions(context.Context) ([]model.Pricing, error) {
	return model.PricingTiers(), nil
}

// Len returns the number of tools held.
func (s *Static) Len() int { return len(s.tools) }

func cloneAll(tools []model.Tool) []model.Tool {
	out := make([]model.Tool, len(tools))
	for i, t := range tools {
		out[i] = t.Clone()
	}
	return out
}
