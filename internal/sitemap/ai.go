package sitemap

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"wordsmith/internal/core"
	"wordsmith/internal/llm"
)

// JSONGenerator is the slice of the LLM adapter the classifier needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, opts llm.Options, out any) error
}

// LLMClassifier labels URLs the pattern and heuristic passes could not.
type LLMClassifier struct {
	gen JSONGenerator
}

// NewLLMClassifier creates the AI label pass over the given generator.
func NewLLMClassifier(gen JSONGenerator) *LLMClassifier {
	return &LLMClassifier{gen: gen}
}

var labelSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"labels": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"url": {Type: genai.TypeString},
					"label": {Type: genai.TypeString, Enum: []string{
						"blog", "product", "service", "docs", "resource",
						"company", "legal", "contact", "landing", "tool", "other",
					}},
				},
				Required: []string{"url", "label"},
			},
		},
	},
	Required: []string{"labels"},
}

// ClassifyURLs asks the model to label the given URLs by their likely
// page type.
func (c *LLMClassifier) ClassifyURLs(ctx context.Context, urls []string) (map[string]core.PageLabel, error) {
	var b strings.Builder
	b.WriteString("Classify each URL by the type of page it most likely is. ")
	b.WriteString("Choose exactly one label per URL from: blog, product, service, docs, resource, company, legal, contact, landing, tool, other.\n\n")
	for _, u := range urls {
		fmt.Fprintf(&b, "- %s\n", u)
	}

	var out struct {
		Labels []struct {
			URL   string `json:"url"`
			Label string `json:"label"`
		} `json:"labels"`
	}
	if err := c.gen.GenerateJSON(ctx, b.String(), labelSchema, llm.Options{}, &out); err != nil {
		return nil, err
	}

	labels := make(map[string]core.PageLabel, len(out.Labels))
	for _, entry := range out.Labels {
		labels[entry.URL] = core.PageLabel(entry.Label)
	}
	return labels, nil
}
