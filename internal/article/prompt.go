package article

import (
	"fmt"
	"strings"

	"wordsmith/internal/core"
	"wordsmith/internal/search"
)

// maxInternalLinks caps how many blog URLs from the sitemap the prompt
// offers as internal link candidates.
const maxInternalLinks = 10

// BuildPrompt assembles the generation prompt for one job. research is
// nil on the grounded path; on the fallback path it carries the paid
// SERP results the model should draw facts from.
func BuildPrompt(job core.ArticleJob, batch *core.BatchContext, research []search.TextHit) string {
	var b strings.Builder
	company := batch.Company
	input := batch.Input

	fmt.Fprintf(&b, "Write a long-form article targeting the keyword %q.\n\n", job.Spec.Keyword)

	b.WriteString("## Company\n")
	fmt.Fprintf(&b, "Published by %s (%s).", company.Name, company.URL)
	if company.Description != "" {
		fmt.Fprintf(&b, " %s", company.Description)
	}
	b.WriteString("\n")
	if len(company.Products) > 0 {
		fmt.Fprintf(&b, "Products and services: %s.\n", strings.Join(company.Products, ", "))
	}
	if company.TargetAudience != "" {
		fmt.Fprintf(&b, "Audience: %s.\n", company.TargetAudience)
	}
	fmt.Fprintf(&b, "Voice: %s.\n", company.Tone)
	for key, value := range company.VoicePersona {
		fmt.Fprintf(&b, "%s: %s\n", key, value)
	}

	b.WriteString("\n## Requirements\n")
	fmt.Fprintf(&b, "- Language: %s, market: %s.\n", input.Language, input.Market)
	fmt.Fprintf(&b, "- Target length: about %d words. Depth beats padding.\n", job.WordCountTarget)
	b.WriteString("- Structure: a lead paragraph, then sections with descriptive headings; use subsections where a topic splits naturally.\n")
	b.WriteString("- Section bodies are HTML fragments using only <p>, <ul>, <ol>, <li>, <strong>, <em> and <a>.\n")
	b.WriteString("- Include a FAQ of 3-5 genuinely asked questions and a People-Also-Ask block of 2-4 shorter ones.\n")
	b.WriteString("- Cite factual claims with numbered markers like [1] in the body and matching citations entries. Cite only sources you actually consulted.\n")
	b.WriteString("- Add a comparison table only when the topic compares concrete options; otherwise leave it empty.\n")
	b.WriteString("- Never fabricate statistics, quotes or URLs.\n")

	if links := internalLinks(batch); len(links) > 0 {
		b.WriteString("\n## Internal link candidates\n")
		b.WriteString("Link to these existing pages where genuinely relevant (at most 3):\n")
		for _, link := range links {
			fmt.Fprintf(&b, "- %s\n", link)
		}
	}

	if input.BatchInstructions != "" {
		b.WriteString("\n## Batch instructions\n")
		b.WriteString(input.BatchInstructions)
		b.WriteString("\n")
	}
	if job.Spec.Instructions != "" {
		b.WriteString("\n## Keyword instructions\n")
		b.WriteString(job.Spec.Instructions)
		b.WriteString("\n")
	}

	if len(research) > 0 {
		b.WriteString("\n## Research notes\n")
		b.WriteString("Web search is unavailable; base factual claims on these search results and cite them:\n")
		for _, hit := range research {
			fmt.Fprintf(&b, "- [%d] %s: %s", hit.Rank, hit.Title, hit.URL)
			if hit.Snippet != "" {
				fmt.Fprintf(&b, " (%s)", hit.Snippet)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// internalLinks returns blog-labelled sitemap URLs as link candidates.
func internalLinks(batch *core.BatchContext) []string {
	links := batch.Sitemap.PagesWithLabel(core.LabelBlog)
	if len(links) > maxInternalLinks {
		links = links[:maxInternalLinks]
	}
	return links
}
