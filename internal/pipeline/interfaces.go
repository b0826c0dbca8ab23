package pipeline

import (
	"context"

	"wordsmith/internal/assets"
	"wordsmith/internal/core"
	"wordsmith/internal/quality"
	"wordsmith/internal/visual"
)

// Each stage is consumed through a narrow interface so the orchestrator
// never depends on a concrete provider and tests can swap any stage.

// SitemapCrawler discovers and classifies the company's URLs. Crawl
// failures degrade: the crawler returns an empty result plus warnings,
// never an error.
type SitemapCrawler interface {
	Crawl(ctx context.Context, baseURL string) (core.SitemapData, []string)
}

// CompanyResolver builds the company profile. Its failure is fatal to
// the batch.
type CompanyResolver interface {
	Resolve(ctx context.Context, companyURL string) (core.CompanyContext, error)
}

// ArticleGenerator produces the structured draft for one job.
type ArticleGenerator interface {
	Generate(ctx context.Context, job core.ArticleJob, batch *core.BatchContext) (core.ArticleOutput, error)
}

// AssetFinder locates supporting image assets for a keyword.
type AssetFinder interface {
	Find(ctx context.Context, keyword string, batch *core.BatchContext) ([]core.FoundAsset, error)
}

// AssetRecreator synthesizes brand-styled versions of found assets.
type AssetRecreator interface {
	Recreate(ctx context.Context, company core.CompanyContext, found []core.FoundAsset) []assets.RecreatedAsset
}

// ImageGenerator produces one slot image.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, slot core.SlotName) (visual.SlotImage, error)
}

// PostProcessor cleans the draft in place.
type PostProcessor interface {
	Process(out *core.ArticleOutput) core.StageReport
}

// Renderer serializes a cleaned article.
type Renderer interface {
	HTML(out *core.ArticleOutput, language string) (string, error)
	Markdown(html string) (string, error)
	JSON(out *core.ArticleOutput) ([]byte, error)
}

// QualityChecker evaluates the finished article.
type QualityChecker interface {
	Check(out *core.ArticleOutput, html string) *quality.Report
}

// CostTracker tallies provider usage for the batch report.
type CostTracker interface {
	Record(provider string, perThousand float64, n int)
	TotalUSD() float64
	Breakdown() string
}
