// Package pipeline orchestrates a batch: shared context first, then a
// bounded fan-out of independent article workers.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

// imageSlots is the generation order; the slots themselves are
// independent and run in parallel.
var imageSlots = []core.SlotName{core.SlotHero, core.SlotMid, core.SlotBottom}

// Pipeline wires the stages together. Build one with the Builder.
type Pipeline struct {
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
	writer    *Writer

	articleTimeout time.Duration
	batchTimeout   time.Duration
	newID          func() string
}

// Run executes one batch. The returned error is non-nil only for fatal
// conditions where nothing was attempted (bad shared context,
// cancellation before admission); partial failures are reported through
// the batch report and its exit code.
func (p *Pipeline) Run(ctx context.Context, input core.BatchInput) (*core.BatchReport, error) {
	report := &core.BatchReport{
		BatchID:   p.newID(),
		StartedAt: time.Now().UTC(),
	}

	runCtx := ctx
	if p.batchTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.batchTimeout)
		defer cancel()
	}

	jobs := BuildJobs(input, p.newID)
	report.ArticlesTotal = len(jobs)

	batch, fatal := p.sharedPhase(runCtx, input, report)
	if fatal != nil {
		p.finish(report, jobs, nil)
		return report, fatal
	}

	if runCtx.Err() != nil {
		p.finish(report, jobs, nil)
		return report, core.Wrap(core.KindCancelled, runCtx.Err(), "batch cancelled before any article started")
	}

	results := p.articlePhase(runCtx, jobs, batch)
	p.finish(report, jobs, results)
	return report, nil
}

// sharedPhase runs the sitemap crawl and company resolution in
// parallel. Crawl trouble degrades to a warning; resolution failure is
// fatal.
func (p *Pipeline) sharedPhase(ctx context.Context, input core.BatchInput, report *core.BatchReport) (*core.BatchContext, error) {
	var (
		sitemapData core.SitemapData
		warnings    []string
		company     core.CompanyContext
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		sitemapData, warnings = p.crawler.Crawl(gctx, input.CompanyURL)
		status, detail := core.StageOK, ""
		if len(warnings) > 0 {
			status, detail = core.StageWarn, strings.Join(warnings, "; ")
		}
		stage := core.NewStageReport("sitemap", status, detail)
		stage.Duration = time.Since(start).Seconds()
		report.SharedStages = append(report.SharedStages, stage)
		return nil
	})

	var resolveStage core.StageReport
	g.Go(func() error {
		start := time.Now()
		var err error
		company, err = p.resolver.Resolve(gctx, input.CompanyURL)
		if err != nil {
			resolveStage = core.NewStageReport("company", core.StageFail, err.Error())
			resolveStage.Duration = time.Since(start).Seconds()
			return err
		}
		resolveStage = core.NewStageReport("company", core.StageOK, "")
		resolveStage.Duration = time.Since(start).Seconds()
		return nil
	})

	err := g.Wait()
	report.SharedStages = append(report.SharedStages, resolveStage)
	if err != nil {
		logger.Error("company resolution failed, aborting batch", "error", err.Error())
		return nil, err
	}

	return &core.BatchContext{Input: input, Company: company, Sitemap: sitemapData}, nil
}

// articlePhase fans the jobs out over at most MaxParallel workers.
// Workers never cancel each other; cancellation of the batch context
// stops admission and lets running workers wind down.
func (p *Pipeline) articlePhase(ctx context.Context, jobs []core.ArticleJob, batch *core.BatchContext) []core.ArticleResult {
	results := make([]core.ArticleResult, len(jobs))
	sem := semaphore.NewWeighted(int64(batch.Input.MaxParallel))

	done := make(chan int, len(jobs))
	running := 0
	for i, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = skippedResult(job)
			continue
		}
		running++
		go func(i int, job core.ArticleJob) {
			defer sem.Release(1)
			results[i] = p.runArticle(ctx, job, batch)
			done <- i
		}(i, job)
	}
	for ; running > 0; running-- {
		<-done
	}
	return results
}

func skippedResult(job core.ArticleJob) core.ArticleResult {
	return core.ArticleResult{
		JobID:   job.JobID,
		Keyword: job.Spec.Keyword,
		Slug:    job.Slug,
		Status:  core.ArticleSkipped,
	}
}

// runArticle runs the strictly sequential per-article stages.
func (p *Pipeline) runArticle(ctx context.Context, job core.ArticleJob, batch *core.BatchContext) core.ArticleResult {
	result := core.ArticleResult{
		JobID:   job.JobID,
		Keyword: job.Spec.Keyword,
		Slug:    job.Slug,
	}

	artCtx := ctx
	if p.articleTimeout > 0 {
		var cancel context.CancelFunc
		artCtx, cancel = context.WithTimeout(ctx, p.articleTimeout)
		defer cancel()
	}

	fail := func(stage string, err error) core.ArticleResult {
		result.Status = core.ArticleFailed
		if core.IsKind(err, core.KindCancelled) || ctx.Err() != nil {
			result.Status = core.ArticleCancelled
		}
		result.Error = err.Error()
		result.ErrorKind = core.KindOf(err)
		result.Stages = append(result.Stages, core.NewStageReport(stage, core.StageFail, err.Error()))
		logger.Warn("article failed", "keyword", job.Spec.Keyword, "stage", stage, "error", err.Error())
		return result
	}

	// Draft.
	start := time.Now()
	out, err := p.articles.Generate(artCtx, job, batch)
	if err != nil {
		return fail("generate", err)
	}
	stage := core.NewStageReport("generate", core.StageOK, "")
	stage.Duration = time.Since(start).Seconds()
	result.Stages = append(result.Stages, stage)

	// Supporting assets; failure here never fails the article.
	found, err := p.assets.Find(artCtx, job.Spec.Keyword, batch)
	if err != nil {
		result.Stages = append(result.Stages, core.NewStageReport("assets", core.StageWarn, err.Error()))
	} else {
		result.Stages = append(result.Stages, core.NewStageReport("assets", core.StageOK, fmt.Sprintf("%d assets", len(found))))
		if p.recreator != nil && !batch.Input.SkipImages {
			found = append(found, p.recreateAssets(artCtx, job, batch, found)...)
		}
	}

	// Slot images.
	if !batch.Input.SkipImages && p.images != nil {
		result.Stages = append(result.Stages, p.generateImages(artCtx, job, batch, &out))
	}

	// Cleanup.
	result.Stages = append(result.Stages, p.post.Process(&out))

	// Serialization.
	html, err := p.renderer.HTML(&out, batch.Input.Language)
	if err != nil {
		return fail("render", err)
	}
	if err := p.writeArtifacts(job, batch, &out, html, found); err != nil {
		return fail("write", err)
	}

	// Observational checks.
	result.Stages = append(result.Stages, p.quality.Check(&out, html).StageReport())

	result.Status = core.ArticleOK
	result.OutputDir = p.writer.ArticleDir(job.Slug)
	logger.Info("article finished", "keyword", job.Spec.Keyword, "slug", job.Slug)
	return result
}

// recreateAssets renders brand-styled versions of the found charts and
// diagrams to disk and reports them as additional assets.
func (p *Pipeline) recreateAssets(ctx context.Context, job core.ArticleJob, batch *core.BatchContext, found []core.FoundAsset) []core.FoundAsset {
	var extra []core.FoundAsset
	for i, rec := range p.recreator.Recreate(ctx, batch.Company, found) {
		path, err := p.writer.WriteRecreatedAsset(job.Slug, i+1, rec.PNG)
		if err != nil {
			logger.Warn("failed to write recreated asset", "slug", job.Slug, "error", err.Error())
			continue
		}
		asset := rec.Asset
		asset.URL = path
		extra = append(extra, asset)
	}
	return extra
}

// generateImages fills the three slots, at most three generations in
// flight. A failed slot is omitted from the article, never rendered
// broken.
func (p *Pipeline) generateImages(ctx context.Context, job core.ArticleJob, batch *core.BatchContext, out *core.ArticleOutput) core.StageReport {
	type slotResult struct {
		slot core.SlotName
		path string
		err  error
	}
	results := make([]slotResult, len(imageSlots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(imageSlots))
	for i, slot := range imageSlots {
		g.Go(func() error {
			img, err := p.images.Generate(gctx, imagePrompt(job, batch, slot), slot)
			if err != nil {
				results[i] = slotResult{slot: slot, err: err}
				return nil
			}
			path, err := p.writer.WriteImage(job.Slug, slot, img.PNG)
			results[i] = slotResult{slot: slot, path: path, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var notes []string
	for _, r := range results {
		if r.err != nil {
			notes = append(notes, fmt.Sprintf("%s: %v", r.slot, r.err))
			continue
		}
		out.Images = append(out.Images, core.ImageSlot{
			Slot: r.slot,
			URL:  r.path,
			Alt:  fmt.Sprintf("%s illustration for %s", r.slot, job.Spec.Keyword),
		})
	}

	if len(notes) > 0 {
		return core.NewStageReport("images", core.StageWarn, strings.Join(notes, "; "))
	}
	return core.NewStageReport("images", core.StageOK, "")
}

func imagePrompt(job core.ArticleJob, batch *core.BatchContext, slot core.SlotName) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Editorial illustration for an article about %s.", job.Spec.Keyword)
	if batch.Company.Industry != "" {
		fmt.Fprintf(&b, " Industry: %s.", batch.Company.Industry)
	}
	if batch.Company.VisualIdentity != "" {
		fmt.Fprintf(&b, " Brand style: %s.", batch.Company.VisualIdentity)
	}
	if slot == core.SlotHero {
		b.WriteString(" Wide banner composition.")
	}
	b.WriteString(" No text, no watermarks.")
	return b.String()
}

// writeArtifacts writes the article's export files per the requested
// formats, plus the found-asset list when present.
func (p *Pipeline) writeArtifacts(job core.ArticleJob, batch *core.BatchContext, out *core.ArticleOutput, html string, found []core.FoundAsset) error {
	for _, format := range batch.Input.ExportFormats {
		switch format {
		case "html":
			if err := p.writer.WriteArticleFile(job.Slug, "index.html", []byte(html)); err != nil {
				return err
			}
		case "markdown":
			markdown, err := p.renderer.Markdown(html)
			if err != nil {
				return err
			}
			if err := p.writer.WriteArticleFile(job.Slug, "article.md", []byte(markdown)); err != nil {
				return err
			}
		case "json":
			data, err := p.renderer.JSON(out)
			if err != nil {
				return err
			}
			if err := p.writer.WriteArticleFile(job.Slug, "article.json", data); err != nil {
				return err
			}
		}
	}

	if len(found) > 0 {
		assetData, err := json.MarshalIndent(found, "", "  ")
		if err != nil {
			return core.Wrap(core.KindIO, err, "encode assets")
		}
		if err := p.writer.WriteArticleFile(job.Slug, "assets.json", assetData); err != nil {
			return err
		}
	}
	return nil
}

// finish fills the aggregate counters and writes the batch-level files.
// nil results means nothing ran; every job is reported as skipped.
func (p *Pipeline) finish(report *core.BatchReport, jobs []core.ArticleJob, results []core.ArticleResult) {
	if results == nil {
		results = make([]core.ArticleResult, len(jobs))
		for i, job := range jobs {
			results[i] = skippedResult(job)
		}
	}
	report.Results = results

	for _, result := range results {
		switch result.Status {
		case core.ArticleOK:
			report.ArticlesSuccessful++
		case core.ArticleFailed:
			report.ArticlesFailed++
		case core.ArticleCancelled:
			report.ArticlesCancelled++
		default:
			report.ArticlesSkipped++
		}
	}

	report.FinishedAt = time.Now().UTC()
	report.WallTime = report.FinishedAt.Sub(report.StartedAt).Seconds()
	if p.costs != nil {
		report.EstimatedCostUSD = p.costs.TotalUSD()
		report.Summary = fmt.Sprintf("%d/%d articles succeeded; %s",
			report.ArticlesSuccessful, report.ArticlesTotal, p.costs.Breakdown())
	} else {
		report.Summary = fmt.Sprintf("%d/%d articles succeeded",
			report.ArticlesSuccessful, report.ArticlesTotal)
	}

	if p.writer != nil {
		if err := p.writer.WriteBatchReport(report); err != nil {
			logger.Error("failed to write batch report", "error", err.Error())
		}
		if err := p.writer.WriteSummary(report); err != nil {
			logger.Error("failed to write summary", "error", err.Error())
		}
	}
}

func newBatchID() string { return uuid.NewString() }
