// Package assets finds supporting image assets for an article: the model
// proposes real, citable images and a SERP search backs it up when the
// proposals do not survive validation.
package assets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"wordsmith/internal/core"
	"wordsmith/internal/llm"
	"wordsmith/internal/logger"
	"wordsmith/internal/search"
)

// TextGenerator is the slice of the LLM adapter the finder needs.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, opts llm.Options, out any) error
}

// ImageSearcher is the SERP fallback contract, satisfied by the image
// router.
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string, q search.ImageQuery) ([]search.ImageHit, *search.RouteReport, error)
}

// Limits bounds one finder run.
type Limits struct {
	MaxResults int // Final cap after diversity filtering; default 8
	PerDomain  int // Max assets per hosting domain; default 2
}

// Finder locates candidate image assets for a keyword.
type Finder struct {
	gen      TextGenerator
	searcher ImageSearcher
	limits   Limits
}

// NewFinder creates a finder. searcher may be nil when no SERP provider
// is configured; the finder then has no fallback.
func NewFinder(gen TextGenerator, searcher ImageSearcher, limits Limits) *Finder {
	if limits.MaxResults <= 0 {
		limits.MaxResults = 8
	}
	if limits.PerDomain <= 0 {
		limits.PerDomain = 2
	}
	return &Finder{gen: gen, searcher: searcher, limits: limits}
}

var candidateSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"assets": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"url":         {Type: genai.TypeString},
					"title":       {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"source_site": {Type: genai.TypeString},
					"kind":        {Type: genai.TypeString, Enum: []string{"photo", "illustration", "infographic", "chart", "diagram"}},
				},
				Required: []string{"url", "title", "kind"},
			},
		},
	},
	Required: []string{"assets"},
}

// Find returns validated, diverse assets for the keyword. The model pass
// runs first; the SERP fallback fires only when zero proposals survive
// validation. An empty result with a nil error means the article simply
// gets no found assets.
func (f *Finder) Find(ctx context.Context, keyword string, batch *core.BatchContext) ([]core.FoundAsset, error) {
	proposed, err := f.propose(ctx, keyword, batch)
	if err != nil {
		logger.Warn("asset proposal failed, falling back to search", "keyword", keyword, "error", err.Error())
	}

	usable := f.diversify(validate(proposed))
	if len(usable) > 0 {
		return usable, nil
	}

	if f.searcher == nil {
		return nil, nil
	}

	hits, report, err := f.searcher.SearchImages(ctx, keyword, search.ImageQuery{
		Max:      f.limits.MaxResults * 2,
		Language: batch.Input.Language,
		Market:   batch.Input.Market,
	})
	if err != nil {
		return nil, fmt.Errorf("asset search fallback: %w", err)
	}
	if report != nil && report.Switched {
		logger.Info("asset search served by fallback provider", "detail", report.Describe())
	}

	return f.diversify(validate(fromHits(hits))), nil
}

// propose asks the model for real, existing images relevant to the
// keyword, grounded so it can actually look.
func (f *Finder) propose(ctx context.Context, keyword string, batch *core.BatchContext) ([]core.FoundAsset, error) {
	var out struct {
		Assets []core.FoundAsset `json:"assets"`
	}

	prompt := buildProposalPrompt(keyword, batch)
	err := f.gen.GenerateJSON(ctx, prompt, candidateSchema, llm.Options{EnableWebSearch: true}, &out)
	if err != nil {
		return nil, err
	}
	return out.Assets, nil
}

func buildProposalPrompt(keyword string, batch *core.BatchContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find real, existing images on the public web that would illustrate an article about %q", keyword)
	if batch.Company.Industry != "" {
		fmt.Fprintf(&b, " for a company in the %s industry", batch.Company.Industry)
	}
	b.WriteString(".\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Only direct URLs to image files that exist right now. Never invent URLs.\n")
	b.WriteString("- Prefer diagrams, charts and infographics over decorative stock photos.\n")
	b.WriteString("- Prefer openly licensed sources (Wikimedia Commons, government sites, vendor documentation).\n")
	fmt.Fprintf(&b, "- At most %d results.\n", 12)
	b.WriteString("\nReturn a JSON object with an \"assets\" array.")
	return b.String()
}

// fromHits converts SERP hits into the asset shape.
func fromHits(hits []search.ImageHit) []core.FoundAsset {
	assets := make([]core.FoundAsset, 0, len(hits))
	for _, h := range hits {
		assets = append(assets, core.FoundAsset{
			URL:        h.URL,
			Title:      h.Title,
			SourceSite: h.Source,
			Kind:       core.AssetPhoto,
			Width:      h.Width,
			Height:     h.Height,
			License:    h.License,
		})
	}
	return assets
}
