// Package quality runs the observational checks over a finished article.
// It never mutates the article; it only reports.
package quality

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"wordsmith/internal/core"
)

// Checker evaluates rendered articles.
type Checker struct {
	forbidDashes bool
}

// NewChecker creates a checker. forbidDashes adds em/en-dashes in
// visible text to the critical set.
func NewChecker(forbidDashes bool) *Checker {
	return &Checker{forbidDashes: forbidDashes}
}

// Report is the check outcome. Critical findings must be zero for a
// clean article; warnings are advisory.
type Report struct {
	Critical []string `json:"critical,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// StageReport folds the findings into a stage report. The checker is
// observational, so even critical findings yield warn, never fail.
func (r *Report) StageReport() core.StageReport {
	if len(r.Critical) == 0 && len(r.Warnings) == 0 {
		return core.NewStageReport("quality", core.StageOK, "")
	}
	var parts []string
	for _, c := range r.Critical {
		parts = append(parts, "critical: "+c)
	}
	parts = append(parts, r.Warnings...)
	return core.NewStageReport("quality", core.StageWarn, strings.Join(parts, "; "))
}

var (
	citationMarker = regexp.MustCompile(`\[\d+\]`)
	stopwordEnding = regexp.MustCompile(`(?i)\b(of|by|the|and|with|for|to|in|on|at|from|a|an)[.,;:]?$`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Check runs every category over the article and its rendered HTML.
func (c *Checker) Check(out *core.ArticleOutput, html string) *Report {
	report := &Report{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		report.Critical = append(report.Critical, fmt.Sprintf("rendered HTML unparseable: %v", err))
		return report
	}

	c.checkVisibleText(doc, report)
	c.checkStructure(doc, report)
	checkCitationList(out, report)
	checkDoubleEncoding(html, report)
	checkMeta(doc, report)
	checkBlocks(out, report)

	return report
}

// checkVisibleText inspects user-visible text: markdown leftovers,
// placeholder tokens, stray citation markers and forbidden dashes.
func (c *Checker) checkVisibleText(doc *goquery.Document, report *Report) {
	visible := doc.Clone()
	visible.Find("script, style").Remove()
	text := visible.Find("body").Text()

	if strings.Contains(text, "**") {
		report.Critical = append(report.Critical, "raw markdown bold in visible text")
	}
	if strings.Contains(text, "UNVERIFIED") {
		report.Critical = append(report.Critical, "UNVERIFIED token in visible text")
	}
	if c.forbidDashes && strings.ContainsAny(text, "—–") {
		report.Critical = append(report.Critical, "em/en-dash in visible text")
	}

	// Markers are legitimate only inside citation regions: the sources
	// block, the citation reference links and JSON-LD (already excluded
	// with the scripts). A bare marker anywhere else is critical.
	if doc.Find("article sup.citation").Length() == 0 {
		report.Warnings = append(report.Warnings, "no citations referenced in body text")
	}

	outside := visible.Clone()
	outside.Find("section.citations, sup.citation").Remove()
	if markers := citationMarker.FindAllString(outside.Find("article").Text(), -1); len(markers) > 0 {
		report.Critical = append(report.Critical,
			fmt.Sprintf("%d bare citation markers outside citation regions", len(markers)))
	}
}

// checkStructure looks for duplicate paragraphs, truncated list items
// and empty block elements in the rendered page.
func (c *Checker) checkStructure(doc *goquery.Document, report *Report) {
	seen := make(map[string]bool)
	doc.Find("article p").Each(func(_ int, p *goquery.Selection) {
		key := whitespaceRun.ReplaceAllString(strings.TrimSpace(p.Text()), " ")
		if key == "" {
			report.Critical = append(report.Critical, "empty paragraph element")
			return
		}
		if seen[key] {
			report.Critical = append(report.Critical, fmt.Sprintf("duplicate paragraph: %q", clip(key)))
		}
		seen[key] = true
	})

	doc.Find("article li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if text == "" {
			report.Critical = append(report.Critical, "empty list item")
			return
		}
		words := strings.Fields(text)
		if len(words) < 5 && stopwordEnding.MatchString(text) {
			report.Critical = append(report.Critical, fmt.Sprintf("truncated list item: %q", clip(text)))
		}
	})

	doc.Find("article ul, article ol").Each(func(_ int, list *goquery.Selection) {
		if list.Find("li").Length() == 0 {
			report.Critical = append(report.Critical, "empty list element")
		}
	})
}

// checkCitationList asserts the 1..n contiguity contract.
func checkCitationList(out *core.ArticleOutput, report *Report) {
	for i, src := range out.Citations {
		if src.N != i+1 {
			report.Critical = append(report.Critical,
				fmt.Sprintf("citation list not contiguous: position %d holds n=%d", i, src.N))
			return
		}
	}
}

func checkDoubleEncoding(html string, report *Report) {
	if strings.Contains(html, "&amp;amp;") {
		report.Critical = append(report.Critical, "double-encoded entity in output")
	}
}

// checkMeta covers the warning category: OG tags, date format, ToC and
// FAQ presence.
func checkMeta(doc *goquery.Document, report *Report) {
	for _, property := range []string{"og:title", "og:description"} {
		if doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).Length() == 0 {
			report.Warnings = append(report.Warnings, "missing "+property+" tag")
		}
	}

	published, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content")
	if !ok {
		report.Warnings = append(report.Warnings, "missing article:published_time tag")
	} else if _, err := time.Parse(time.RFC3339, published); err != nil {
		report.Warnings = append(report.Warnings, "published time not ISO-8601")
	}
}

func checkBlocks(out *core.ArticleOutput, report *Report) {
	if len(out.TOC) < 3 {
		report.Warnings = append(report.Warnings, "table of contents shorter than 3 entries")
	}
	if len(out.FAQ) == 0 {
		report.Warnings = append(report.Warnings, "no FAQ block")
	}
}

func clip(s string) string {
	if len(s) > 60 {
		return s[:60]
	}
	return s
}
