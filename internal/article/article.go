// Package article turns one scheduled keyword into a structured draft
// using the grounded text model, with a paid text-SERP research fallback
// when grounding is unavailable.
package article

import (
	"context"
	"time"

	"google.golang.org/genai"

	"wordsmith/internal/config"
	"wordsmith/internal/core"
	"wordsmith/internal/llm"
	"wordsmith/internal/logger"
	"wordsmith/internal/search"
)

// TextGenerator is the slice of the LLM adapter the generator needs.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, opts llm.Options, out any) error
}

// TextSearcher is the research fallback contract, satisfied by the paid
// text SERP adapter.
type TextSearcher interface {
	Search(ctx context.Context, query string, q search.TextQuery) ([]search.TextHit, error)
	IsConfigured() bool
}

// Generator produces article drafts.
type Generator struct {
	gen      TextGenerator
	searcher TextSearcher // Optional; nil disables the research fallback
}

// NewGenerator creates an article generator. searcher may be nil.
func NewGenerator(gen TextGenerator, searcher TextSearcher) *Generator {
	return &Generator{gen: gen, searcher: searcher}
}

var sectionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"heading": {Type: genai.TypeString},
		"body":    {Type: genai.TypeString, Description: "HTML fragment: <p>, <ul>, <ol>, <strong>, <em>, <a> only"},
		"subsections": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"heading": {Type: genai.TypeString},
					"body":    {Type: genai.TypeString},
				},
				Required: []string{"heading", "body"},
			},
		},
	},
	Required: []string{"heading", "body"},
}

var qaSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"question": {Type: genai.TypeString},
		"answer":   {Type: genai.TypeString},
	},
	Required: []string{"question", "answer"},
}

var articleSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"headline":         {Type: genai.TypeString},
		"meta_description": {Type: genai.TypeString, Description: "At most 160 characters"},
		"lead":             {Type: genai.TypeString, Description: "Opening paragraph, plain text"},
		"sections":         {Type: genai.TypeArray, Items: sectionSchema},
		"faq":              {Type: genai.TypeArray, Items: qaSchema},
		"paa":              {Type: genai.TypeArray, Items: qaSchema},
		"citations": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"n":     {Type: genai.TypeInteger},
					"title": {Type: genai.TypeString},
					"url":   {Type: genai.TypeString},
				},
				Required: []string{"n", "title", "url"},
			},
		},
		"comparison_table": {Type: genai.TypeString, Description: "HTML table fragment, empty unless the topic compares options"},
	},
	Required: []string{"headline", "meta_description", "lead", "sections"},
}

// Generate produces the draft for one job. The first attempt runs with
// web-search grounding; when the grounded path is unavailable or out of
// quota and the paid SERP is configured, the keyword is researched there
// and a second, ungrounded attempt carries the research notes instead.
func (g *Generator) Generate(ctx context.Context, job core.ArticleJob, batch *core.BatchContext) (core.ArticleOutput, error) {
	opts := llm.Options{
		EnableWebSearch: true,
		Timeout:         config.Duration("llm.grounded_timeout"),
	}

	var out core.ArticleOutput
	err := g.gen.GenerateJSON(ctx, BuildPrompt(job, batch, nil), articleSchema, opts, &out)
	if err == nil {
		finish(&out, job, batch)
		return out, nil
	}

	if !failover(err) || g.searcher == nil || !g.searcher.IsConfigured() {
		return core.ArticleOutput{}, err
	}

	logger.Warn("grounded generation unavailable, researching via paid SERP",
		"keyword", job.Spec.Keyword, "error", err.Error())

	hits, searchErr := g.searcher.Search(ctx, job.Spec.Keyword, search.TextQuery{
		Max:      10,
		Language: batch.Input.Language,
		Market:   batch.Input.Market,
	})
	if searchErr != nil {
		// Research failed too; the original generation error is the story.
		return core.ArticleOutput{}, err
	}

	opts.EnableWebSearch = false
	if err := g.gen.GenerateJSON(ctx, BuildPrompt(job, batch, hits), articleSchema, opts, &out); err != nil {
		return core.ArticleOutput{}, err
	}
	finish(&out, job, batch)
	return out, nil
}

// failover reports whether the grounded path should be abandoned for the
// research fallback. Mirrors the SERP router policy.
func failover(err error) bool {
	switch core.KindOf(err) {
	case core.KindQuotaExhausted, core.KindProviderUnavailable:
		return true
	}
	return false
}

// finish fills the fields the model does not own.
func finish(out *core.ArticleOutput, job core.ArticleJob, batch *core.BatchContext) {
	out.Href = job.Href
	if out.PublishedAt.IsZero() {
		out.PublishedAt = time.Now().UTC()
	}
	if out.Author == "" && len(batch.Company.Authors) > 0 {
		out.Author = batch.Company.Authors[0].Name
	}
}
