package sitemap

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

// aiSampleMax caps how many unmatched URLs the optional AI pass sees.
const aiSampleMax = 50

// patternRules map path prefixes/segments to labels. First match wins;
// rules are ordered from most to least specific.
var patternRules = []struct {
	segments []string
	label    core.PageLabel
}{
	{[]string{"blog", "news", "articles", "insights", "posts", "magazine"}, core.LabelBlog},
	{[]string{"products", "product", "shop", "store", "pricing", "plans"}, core.LabelProduct},
	{[]string{"services", "service", "solutions"}, core.LabelService},
	{[]string{"docs", "documentation", "api", "developers", "reference", "changelog"}, core.LabelDocs},
	{[]string{"resources", "guides", "whitepapers", "ebooks", "case-studies", "library", "downloads", "webinars", "glossary"}, core.LabelResource},
	{[]string{"about", "about-us", "team", "careers", "jobs", "company", "press", "partners"}, core.LabelCompany},
	{[]string{"privacy", "terms", "legal", "imprint", "impressum", "cookies", "cookie-policy", "gdpr"}, core.LabelLegal},
	{[]string{"contact", "contact-us", "support"}, core.LabelContact},
	{[]string{"lp", "landing", "campaign", "promo"}, core.LabelLanding},
	{[]string{"tools", "tool", "calculator", "calculators", "generator", "templates"}, core.LabelTool},
}

// datedPath matches /2024/05/ style archive paths, a strong blog signal.
var datedPath = regexp.MustCompile(`/(19|20)\d{2}/\d{1,2}/`)

// classify labels every URL: pattern fast path first, structural
// heuristics second, then the optional AI pass over whatever remains.
// URLs still unmatched default to "other" with low confidence.
func (c *Crawler) classify(ctx context.Context, urls []string) core.SitemapData {
	data := core.SitemapData{
		Pages:  make([]core.SitemapPage, 0, len(urls)),
		Counts: make(map[core.PageLabel]int),
	}

	var unmatched []int
	for _, raw := range urls {
		page := core.SitemapPage{URL: raw, Label: core.LabelOther, Confidence: 0.2}
		if label, conf, ok := classifyByPattern(raw); ok {
			page.Label, page.Confidence = label, conf
		} else if label, conf, ok := classifyByHeuristic(raw); ok {
			page.Label, page.Confidence = label, conf
		} else {
			unmatched = append(unmatched, len(data.Pages))
		}
		data.Pages = append(data.Pages, page)
	}

	if c.classifier != nil && len(unmatched) > 0 {
		c.classifyByAI(ctx, &data, unmatched)
	}

	for _, page := range data.Pages {
		data.Counts[page.Label]++
	}
	return data
}

// classifyByPattern checks the first two path segments against the rules.
func classifyByPattern(rawURL string) (core.PageLabel, float64, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return core.LabelOther, 0, false
	}
	if u.Path == "" || u.Path == "/" {
		return core.LabelLanding, 0.9, true
	}

	segments := strings.Split(strings.Trim(strings.ToLower(u.Path), "/"), "/")
	if len(segments) > 2 {
		segments = segments[:2]
	}
	for _, seg := range segments {
		for _, rule := range patternRules {
			for _, match := range rule.segments {
				if seg == match {
					return rule.label, 0.9, true
				}
			}
		}
	}
	return core.LabelOther, 0, false
}

// classifyByHeuristic handles URLs without a labelled path segment using
// structural signals: dated archive paths and long hyphenated slugs read
// as editorial content.
func classifyByHeuristic(rawURL string) (core.PageLabel, float64, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return core.LabelOther, 0, false
	}
	path := strings.ToLower(u.Path)

	if datedPath.MatchString(path) {
		return core.LabelBlog, 0.7, true
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	last := segments[len(segments)-1]
	if strings.Count(last, "-") >= 3 {
		return core.LabelBlog, 0.5, true
	}
	return core.LabelOther, 0, false
}

// classifyByAI sends a sample of unmatched URLs to the configured
// classifier and applies whatever labels come back. Failure is silent
// by contract: the defaults stand.
func (c *Crawler) classifyByAI(ctx context.Context, data *core.SitemapData, unmatched []int) {
	sample := unmatched
	if len(sample) > aiSampleMax {
		sample = sample[:aiSampleMax]
	}
	urls := make([]string, 0, len(sample))
	for _, idx := range sample {
		urls = append(urls, data.Pages[idx].URL)
	}

	labels, err := c.classifier.ClassifyURLs(ctx, urls)
	if err != nil {
		logger.Warn("AI label pass failed, keeping defaults", "error", err.Error())
		return
	}
	for _, idx := range sample {
		if label, ok := labels[data.Pages[idx].URL]; ok && label != "" {
			data.Pages[idx].Label = label
			data.Pages[idx].Confidence = 0.6
		}
	}
}
