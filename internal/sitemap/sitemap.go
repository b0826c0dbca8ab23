// Package sitemap crawls a company site's sitemaps and classifies the
// discovered URLs by a fixed label taxonomy.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

// Limits bounds a crawl.
type Limits struct {
	MaxURLs  int           // After deduplication; default 2000
	MaxDepth int           // Sitemap-index recursion depth; default 3
	Budget   time.Duration // Total crawl time; default 60s
	CacheTTL time.Duration // Host-keyed result cache; 0 disables
}

// DefaultLimits returns the crawl limits from the external contract.
func DefaultLimits() Limits {
	return Limits{MaxURLs: 2000, MaxDepth: 3, Budget: 60 * time.Second, CacheTTL: 5 * time.Minute}
}

// TitleClassifier is the optional AI pass for URLs the pattern and
// heuristic classifiers cannot label.
type TitleClassifier interface {
	ClassifyURLs(ctx context.Context, urls []string) (map[string]core.PageLabel, error)
}

// Crawler fetches and classifies sitemaps. It is safe for concurrent use.
type Crawler struct {
	client     *http.Client
	limits     Limits
	classifier TitleClassifier // Optional; nil disables the AI pass
	userAgent  string

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	data    core.SitemapData
	expires time.Time
}

// NewCrawler creates a crawler with the given limits. A nil classifier
// disables the AI sampling pass; unmatched URLs then default to "other".
func NewCrawler(limits Limits, classifier TitleClassifier) *Crawler {
	if limits.MaxURLs <= 0 {
		limits.MaxURLs = 2000
	}
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = 3
	}
	if limits.Budget <= 0 {
		limits.Budget = 60 * time.Second
	}
	return &Crawler{
		client:     &http.Client{Timeout: 15 * time.Second},
		limits:     limits,
		classifier: classifier,
		userAgent:  "wordsmith-crawler/1.0",
		cache:      make(map[string]cacheEntry),
	}
}

// Crawl discovers, deduplicates and classifies the site's URLs. Fetch
// failures are warnings, never fatal: the crawler degrades to an empty
// result. The returned warnings feed the shared-phase stage report.
func (c *Crawler) Crawl(ctx context.Context, baseURL string) (core.SitemapData, []string) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return emptyData(), []string{fmt.Sprintf("invalid base URL %q", baseURL)}
	}

	if cached, ok := c.cached(base.Host); ok {
		logger.Debug("sitemap cache hit", "host", base.Host)
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.limits.Budget)
	defer cancel()

	var warnings []string

	candidates := c.sitemapCandidates(ctx, base, &warnings)

	// Probe in order and stop at the first candidate that yields URLs;
	// the conventional paths are fallbacks, not supplements.
	seen := make(map[string]bool)
	var urls []string
	for _, loc := range candidates {
		c.collect(ctx, loc, 0, seen, &urls, &warnings)
		if len(urls) > 0 {
			break
		}
	}
	if len(urls) > c.limits.MaxURLs {
		urls = urls[:c.limits.MaxURLs]
	}

	data := c.classify(ctx, urls)
	c.store(base.Host, data)
	logger.Info("sitemap crawl finished", "host", base.Host, "urls", len(data.Pages), "warnings", len(warnings))
	return data, warnings
}

// sitemapCandidates returns sitemap locations in probe order: robots.txt
// Sitemap directives first, then the two conventional paths.
func (c *Crawler) sitemapCandidates(ctx context.Context, base *url.URL, warnings *[]string) []string {
	var candidates []string

	robotsURL := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}
	body, err := c.fetch(ctx, robotsURL.String())
	if err == nil {
		if robots, err := robotstxt.FromBytes(body); err == nil {
			candidates = append(candidates, robots.Sitemaps...)
		}
	} else {
		*warnings = append(*warnings, fmt.Sprintf("robots.txt: %v", err))
	}

	for _, path := range []string{"/sitemap.xml", "/sitemap_index.xml"} {
		u := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: path}
		candidates = append(candidates, u.String())
	}
	return dedupeStrings(candidates)
}

// sitemapXML covers both flavors: an index nests <sitemap> entries, a
// urlset nests <url> entries.
type sitemapXML struct {
	XMLName  xml.Name `xml:""`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// collect fetches one sitemap, recursing into index entries up to the
// depth limit.
func (c *Crawler) collect(ctx context.Context, loc string, depth int, seen map[string]bool, urls *[]string, warnings *[]string) {
	if depth >= c.limits.MaxDepth || len(*urls) >= c.limits.MaxURLs {
		return
	}
	if ctx.Err() != nil {
		return
	}

	body, err := c.fetch(ctx, loc)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("sitemap %s: %v", loc, err))
		return
	}

	var sm sitemapXML
	if err := xml.Unmarshal(body, &sm); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("sitemap %s: parse: %v", loc, err))
		return
	}

	for _, child := range sm.Sitemaps {
		c.collect(ctx, strings.TrimSpace(child.Loc), depth+1, seen, urls, warnings)
		if len(*urls) >= c.limits.MaxURLs {
			return
		}
	}

	for _, entry := range sm.URLs {
		canonical := Canonicalize(strings.TrimSpace(entry.Loc))
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		*urls = append(*urls, canonical)
		if len(*urls) >= c.limits.MaxURLs {
			return
		}
	}
}

func (c *Crawler) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

// Canonicalize normalizes a URL for deduplication: lowercase scheme and
// host, fragment stripped, trailing slash stripped except at the root.
func Canonicalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	return u.String()
}

func (c *Crawler) cached(host string) (core.SitemapData, bool) {
	if c.limits.CacheTTL <= 0 {
		return core.SitemapData{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[host]
	if !ok || time.Now().After(entry.expires) {
		return core.SitemapData{}, false
	}
	return entry.data, true
}

func (c *Crawler) store(host string, data core.SitemapData) {
	if c.limits.CacheTTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[host] = cacheEntry{data: data, expires: time.Now().Add(c.limits.CacheTTL)}
}

func emptyData() core.SitemapData {
	return core.SitemapData{Counts: map[core.PageLabel]int{}}
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
