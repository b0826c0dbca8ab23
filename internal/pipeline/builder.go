package pipeline

import (
	"wordsmith/internal/article"
	"wordsmith/internal/assets"
	"wordsmith/internal/company"
	"wordsmith/internal/config"
	"wordsmith/internal/core"
	"wordsmith/internal/cost"
	"wordsmith/internal/llm"
	"wordsmith/internal/logger"
	"wordsmith/internal/post"
	"wordsmith/internal/quality"
	"wordsmith/internal/render"
	"wordsmith/internal/search"
	"wordsmith/internal/sitemap"
	"wordsmith/internal/visual"
)

// Billing rates fed to the cost tracker, per thousand successful calls.
const (
	textRate   = 2.50
	imageRate  = 40.0
	assetsRate = 2.50
)

// Builder assembles a pipeline. Every stage has a config-driven default;
// tests override individual stages through the With methods.
type Builder struct {
	outputDir string

	crawler   SitemapCrawler
	resolver  CompanyResolver
	articles  ArticleGenerator
	assets    AssetFinder
	recreator AssetRecreator
	images    ImageGenerator
	post      PostProcessor
	renderer  Renderer
	quality   QualityChecker
	costs     CostTracker
	newID     func() string
}

// NewBuilder creates a builder writing output under dir.
func NewBuilder(dir string) *Builder {
	return &Builder{outputDir: dir}
}

func (b *Builder) WithCrawler(c SitemapCrawler) *Builder      { b.crawler = c; return b }
func (b *Builder) WithResolver(r CompanyResolver) *Builder    { b.resolver = r; return b }
func (b *Builder) WithArticles(a ArticleGenerator) *Builder   { b.articles = a; return b }
func (b *Builder) WithAssets(a AssetFinder) *Builder          { b.assets = a; return b }
func (b *Builder) WithRecreator(r AssetRecreator) *Builder    { b.recreator = r; return b }
func (b *Builder) WithImages(i ImageGenerator) *Builder       { b.images = i; return b }
func (b *Builder) WithPostProcessor(p PostProcessor) *Builder { b.post = p; return b }
func (b *Builder) WithRenderer(r Renderer) *Builder           { b.renderer = r; return b }
func (b *Builder) WithQuality(q QualityChecker) *Builder      { b.quality = q; return b }
func (b *Builder) WithCosts(c CostTracker) *Builder           { b.costs = c; return b }
func (b *Builder) WithIDFunc(fn func() string) *Builder       { b.newID = fn; return b }

// Build fills the unset stages from configuration and live providers,
// then wires the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.costs == nil {
		b.costs = cost.NewTracker()
	}
	if b.newID == nil {
		b.newID = newBatchID
	}

	var textLLM *llm.Client
	needsLLM := b.resolver == nil || b.articles == nil || b.assets == nil ||
		(b.crawler == nil && config.Bool("sitemap.ai_classifier"))
	if needsLLM {
		var err error
		textLLM, err = llm.NewClient(config.String("llm.model"))
		if err != nil {
			return nil, err
		}
	}

	if b.crawler == nil {
		var classifier sitemap.TitleClassifier
		if config.Bool("sitemap.ai_classifier") {
			classifier = sitemap.NewLLMClassifier(textLLM)
		}
		b.crawler = sitemap.NewCrawler(sitemap.Limits{
			MaxURLs:  config.Int("sitemap.max_urls"),
			MaxDepth: config.Int("sitemap.max_depth"),
			Budget:   config.Duration("sitemap.budget"),
			CacheTTL: config.Duration("sitemap.cache_ttl"),
		}, classifier)
	}

	if b.resolver == nil {
		b.resolver = company.NewResolver(textLLM)
	}

	if b.articles == nil {
		b.articles = &meteredArticles{
			inner:    article.NewGenerator(textLLM, search.NewTaskSERPText()),
			costs:    b.costs,
			provider: textLLM.Name(),
			rate:     textRate,
		}
	}

	if b.assets == nil {
		var providers []search.ImageProvider
		for _, name := range config.Strings("serp.image_providers") {
			p, err := search.NewImageProvider(search.ProviderType(name))
			if err != nil {
				return nil, core.Wrap(core.KindInputInvalid, err, "serp.image_providers entry %q", name)
			}
			providers = append(providers, p)
		}
		router := search.NewImageRouter(providers...)
		finder := assets.NewFinder(textLLM, router, assets.Limits{
			MaxResults: config.Int("assets.max_results"),
			PerDomain:  config.Int("assets.per_domain"),
		})
		b.assets = &meteredAssets{inner: finder, costs: b.costs, provider: textLLM.Name(), rate: assetsRate}
	}

	imageClient := visual.NewClient()
	if b.images == nil {
		if imageClient.IsConfigured() {
			b.images = &meteredImages{
				inner:    visual.NewGenerator(imageClient),
				costs:    b.costs,
				provider: imageClient.Name(),
				rate:     imageRate,
			}
		} else {
			logger.Warn("image LLM not configured, slot images disabled")
		}
	}

	if b.recreator == nil && config.Bool("assets.recreate_in_brand_style") {
		if imageClient.IsConfigured() {
			b.recreator = assets.NewRecreator(imageClient)
		} else {
			logger.Warn("image LLM not configured, brand-style recreation disabled")
		}
	}

	if b.post == nil {
		b.post = post.NewProcessor(config.Strings("citations.pinned_urls"))
	}

	if b.renderer == nil {
		renderer, err := render.NewRenderer()
		if err != nil {
			return nil, core.Wrap(core.KindIO, err, "build renderer")
		}
		b.renderer = renderer
	}

	if b.quality == nil {
		b.quality = quality.NewChecker(config.Bool("quality.forbid_dashes"))
	}

	return &Pipeline{
		crawler:        b.crawler,
		resolver:       b.resolver,
		articles:       b.articles,
		assets:         b.assets,
		recreator:      b.recreator,
		images:         b.images,
		post:           b.post,
		renderer:       b.renderer,
		quality:        b.quality,
		costs:          b.costs,
		writer:         NewWriter(b.outputDir),
		articleTimeout: config.Duration("batch.article_timeout"),
		batchTimeout:   config.Duration("batch.timeout"),
		newID:          b.newID,
	}, nil
}
