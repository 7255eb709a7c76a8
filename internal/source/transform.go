package source

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"time"

	"github.com/ashita-ai/aitools/internal/model"
)

// Thresholds used when deriving tool flags from repository data.
const (
	// NewWindow is how recently a repository must have been created to count as new.
	NewWindow = 30 * 24 * time.Hour

	// TrendingStars is the star count a repository must exceed to count as trending.
	TrendingStars = 1000

	// DefaultRating is assigned to repositories without stars.
	DefaultRating = 4.0

	maxTags = 5
)

// FallbackLogos are used for repositories whose owner has no avatar.
var FallbackLogos = []string{
	"/tool-logos/default-1.svg",
	"/tool-logos/default-2.svg",
	"/tool-logos/default-3.svg",
	"/tool-logos/default-4.svg",
}

// searchResponse is the repository search envelope.
type searchResponse struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []repository `json:"items"`
}

type repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     *string   `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Homepage        *string   `json:"homepage"`
	Language        *string   `json:"language"`
	Topics          []string  `json:"topics"`
	StargazersCount int64     `json:"stargazers_count"`
	ForksCount      int64     `json:"forks_count"`
	OpenIssuesCount int64     `json:"open_issues_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
	Owner           struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
	License *struct {
		SPDXID string `json:"spdx_id"`
		Name   string `json:"name"`
	} `json:"license"`
}

// RatingFromStars maps a popularity count onto the rating scale:
// clamp(log10(stars) * 0.8, 3.0, 5.0), or
// DefaultRating when stars is not positive.
func RatingFromStars(stars int64) float64 {
	if stars <= 0 {
		return DefaultRating
	}
	r := math.Log10(float64(stars)) * 0.8
	return math.Max(3.0, math.Min(5.0, r))
}

// transformRepository maps one search result onto a Tool.
func transformRepository(r repository, now time.Time, rules Rules) model.Tool {
	id := "gh-" + strconv.FormatInt(r.ID, 10)
	if r.ID == 0 {
		id = "gh-" + r.FullName
	}

	desc := deref(r.Description)
	lang := deref(r.Language)

	logo := r.Owner.AvatarURL
	if logo == "" {
		logo = fallbackLogo(id)
	}

	tags := r.Topics
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	tags = append([]string(nil), tags...)
	if len(tags) == 0 && lang != "" {
		tags = []string{lang}
	}

	lastUpdated := r.UpdatedAt
	if r.PushedAt.After(lastUpdated) {
		lastUpdated = r.PushedAt
	}
	if lastUpdated.IsZero() {
		lastUpdated = r.CreatedAt
	}

	return model.Tool{
		ID:          id,
		Name:        r.Name,
		Description: desc,
		Logo:        logo,
		Category:    rules.Infer(Signals{Topics: r.Topics, Description: desc, Language: lang}),
		Tags:        tags,
		Rating:      RatingFromStars(r.StargazersCount),
		Usage:       model.Usage{Users: max(r.StargazersCount, 0), APICalls: max(r.ForksCount, 0)},
		Pricing:     model.PricingFree,
		Features:    repositoryFeatures(r, lang),
		URL:         r.HTMLURL,
		IsNew:       !r.CreatedAt.IsZero() && r.CreatedAt.After(now.Add(-NewWindow)),
		IsTrending:  r.StargazersCount > TrendingStars,
		LastUpdated: lastUpdated,
	}
}

func repositoryFeatures(r repository, lang string) []string {
	var out []string
	if lang != "" {
		out = append(out, "Written in "+lang)
	}
	if r.License != nil && r.License.SPDXID != "" && r.License.SPDXID != "NOASSERTION" {
		out = append(out, r.License.SPDXID+" licensed")
	}
	out = append(out, fmt.Sprintf("%d stars, %d forks", r.StargazersCount, r.ForksCount))
	if home := deref(r.Homepage); home != "" {
		out = append(out, "Project site: "+home)
	}
	return out
}

// fallbackLogo picks a placeholder by hashing the tool id, so the choice is
// spread across the set but stable between fetches.
func fallbackLogo(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return FallbackLogos[h.Sum32()%uint32(len(FallbackLogos))]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
