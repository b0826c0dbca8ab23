// Package company resolves the structured company profile that anchors
// every article in a batch.
package company

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"wordsmith/internal/core"
	"wordsmith/internal/llm"
	"wordsmith/internal/logger"
)

// TextGenerator is the slice of the LLM adapter the resolver needs.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, opts llm.Options, out any) error
}

// Resolver builds a CompanyContext from a company URL using a grounded
// LLM call. The result is resolved once per batch and read-only after.
type Resolver struct {
	gen TextGenerator
}

// NewResolver creates a resolver over the given text generator.
func NewResolver(gen TextGenerator) *Resolver {
	return &Resolver{gen: gen}
}

// contextSchema forces the profile shape. Arrays of strings for products,
// nested author objects, everything else plain strings.
var contextSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":            {Type: genai.TypeString},
		"industry":        {Type: genai.TypeString},
		"description":     {Type: genai.TypeString},
		"products":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"target_audience": {Type: genai.TypeString},
		"tone":            {Type: genai.TypeString},
		"visual_identity": {Type: genai.TypeString},
		"authors": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name": {Type: genai.TypeString},
					"role": {Type: genai.TypeString},
					"bio":  {Type: genai.TypeString},
				},
			},
		},
	},
	Required: []string{"name", "industry", "description"},
}

// Resolve researches the company behind companyURL and returns its
// profile. A failure here is fatal to the batch: articles cannot be
// written without company context.
func (r *Resolver) Resolve(ctx context.Context, companyURL string) (core.CompanyContext, error) {
	var profile core.CompanyContext

	prompt := buildPrompt(companyURL)
	err := r.gen.GenerateJSON(ctx, prompt, contextSchema, llm.Options{EnableWebSearch: true}, &profile)
	if err != nil {
		return core.CompanyContext{}, fmt.Errorf("company context resolution: %w", err)
	}

	applyDefaults(&profile, companyURL)
	logger.Info("company context resolved",
		"company", profile.Name, "industry", profile.Industry, "products", len(profile.Products))
	return profile, nil
}

func buildPrompt(companyURL string) string {
	var b strings.Builder
	b.WriteString("Research the company behind the website ")
	b.WriteString(companyURL)
	b.WriteString(" using web search and return a JSON profile of it.\n\n")
	b.WriteString("Fields:\n")
	b.WriteString("- name: the official company name\n")
	b.WriteString("- industry: the primary industry, a short noun phrase\n")
	b.WriteString("- description: 2-3 sentences on what the company does and for whom\n")
	b.WriteString("- products: main products or services, short names\n")
	b.WriteString("- target_audience: who the company sells to\n")
	b.WriteString("- tone: the voice of the company's published content (e.g. professional, friendly, technical)\n")
	b.WriteString("- visual_identity: brand colors and imagery style if discoverable, else empty\n")
	b.WriteString("- authors: people the company publishes content under, if any are visible\n\n")
	b.WriteString("Use only information attributable to the company's own site or reputable coverage. ")
	b.WriteString("Leave a field empty rather than guessing.")
	return b.String()
}

// applyDefaults fills the fields the model may leave blank so downstream
// prompts always have something to anchor on.
func applyDefaults(profile *core.CompanyContext, companyURL string) {
	profile.URL = companyURL
	if profile.Name == "" {
		profile.Name = hostName(companyURL)
	}
	if profile.Industry == "" {
		profile.Industry = "general"
	}
	if profile.Tone == "" {
		profile.Tone = "professional"
	}
	if profile.TargetAudience == "" {
		profile.TargetAudience = "prospective customers"
	}
}

// hostName derives a displayable name from the URL host: strip the www
// prefix and the last dot-suffix, title-case the remainder.
func hostName(companyURL string) string {
	u, err := url.Parse(companyURL)
	if err != nil || u.Host == "" {
		return companyURL
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if idx := strings.LastIndex(host, "."); idx > 0 {
		host = host[:idx]
	}
	if host == "" {
		return u.Host
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
