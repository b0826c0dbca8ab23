package quality

import (
	"strings"
	"testing"

	"wordsmith/internal/core"
)

func cleanArticle() *core.ArticleOutput {
	return &core.ArticleOutput{
		Headline: "Solar Panels",
		Citations: []core.Source{
			{N: 1, Title: "Report", URL: "https://example.com/report"},
			{N: 2, Title: "Study", URL: "https://example.com/study"},
		},
		TOC: []core.TOCEntry{
			{Label: "Costs", Anchor: "costs"},
			{Label: "Savings", Anchor: "savings"},
			{Label: "Outlook", Anchor: "outlook"},
		},
		FAQ: []core.QA{{Question: "Q", Answer: "A"}},
	}
}

func cleanHTML() string {
	return `<!DOCTYPE html><html><head>
<meta property="og:title" content="Solar Panels">
<meta property="og:description" content="desc">
<meta property="article:published_time" content="2026-03-14T09:30:00Z">
<script type="application/ld+json">{"@type":"Article","note":"[1] markers here are data"}</script>
</head><body><article>
<h1>Solar Panels</h1>
<p>Panels cost money <sup class="citation"><a href="#source-1">[1]</a></sup>.</p>
<p>Bills shrink over time with ownership.</p>
<ul><li>complete item of reasonable length here</li></ul>
<section class="citations"><ol>
<li id="source-1"><a href="https://example.com/report">Report</a></li>
<li id="source-2"><a href="https://example.com/study">Study</a></li>
</ol></section>
</article></body></html>`
}

func TestCheckCleanArticle(t *testing.T) {
	report := NewChecker(true).Check(cleanArticle(), cleanHTML())
	if len(report.Critical) != 0 {
		t.Errorf("clean article produced critical findings: %v", report.Critical)
	}
	stage := report.StageReport()
	if stage.Status == core.StageFail {
		t.Errorf("quality is observational, must not fail: %+v", stage)
	}
}

func TestCheckCriticalFindings(t *testing.T) {
	html := `<html><body><article>
<p>Raw **bold** leftover — with a dash.</p>
<p>Duplicated line of text.</p>
<p>Duplicated line of text.</p>
<p>Bare marker [3] outside regions.</p>
<ul><li>cut off by the</li></ul>
<ul></ul>
<p>Tom &amp;amp; Jerry.</p>
<p>UNVERIFIED claim.</p>
</article></body></html>`
	article := &core.ArticleOutput{Citations: []core.Source{{N: 2, Title: "Gap", URL: "u"}}}

	report := NewChecker(true).Check(article, html)

	wantFindings := []string{
		"raw markdown bold",
		"em/en-dash",
		"duplicate paragraph",
		"bare citation markers",
		"truncated list item",
		"empty list element",
		"double-encoded entity",
		"UNVERIFIED token",
		"citation list not contiguous",
	}
	joined := strings.Join(report.Critical, " | ")
	for _, want := range wantFindings {
		if !strings.Contains(joined, want) {
			t.Errorf("missing critical finding %q in: %s", want, joined)
		}
	}
}

func TestCheckDashesAllowedWhenNotForbidden(t *testing.T) {
	html := `<html><body><article><p>An em-dash — here.</p></article></body></html>`
	report := NewChecker(false).Check(&core.ArticleOutput{}, html)
	for _, c := range report.Critical {
		if strings.Contains(c, "dash") {
			t.Errorf("dashes must pass when not forbidden: %v", report.Critical)
		}
	}
}

func TestCheckWarnings(t *testing.T) {
	html := `<html><head></head><body><article>
<p>Body with no citations at all in it.</p>
</article></body></html>`
	article := &core.ArticleOutput{TOC: []core.TOCEntry{{Label: "One", Anchor: "one"}}}

	report := NewChecker(false).Check(article, html)
	joined := strings.Join(report.Warnings, " | ")
	for _, want := range []string{
		"og:title",
		"og:description",
		"article:published_time",
		"table of contents shorter",
		"no FAQ block",
		"no citations referenced",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing warning %q in: %s", want, joined)
		}
	}
}

func TestCheckJSONLDMarkersIgnored(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{"citation":"[1] [2] [3]"}</script>
</head><body><article><p>Plain body text here.</p></article></body></html>`

	report := NewChecker(false).Check(&core.ArticleOutput{}, html)
	for _, c := range report.Critical {
		if strings.Contains(c, "marker") {
			t.Errorf("JSON-LD markers must not count: %v", report.Critical)
		}
	}
}
