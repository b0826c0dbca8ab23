package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"wordsmith/internal/assets"
	"wordsmith/internal/core"
	"wordsmith/internal/quality"
	"wordsmith/internal/visual"
)

type stubCrawler struct {
	data     core.SitemapData
	warnings []string
}

func (s *stubCrawler) Crawl(ctx context.Context, baseURL string) (core.SitemapData, []string) {
	return s.data, s.warnings
}

type stubResolver struct {
	company core.CompanyContext
	err     error
}

func (s *stubResolver) Resolve(ctx context.Context, companyURL string) (core.CompanyContext, error) {
	return s.company, s.err
}

type stubArticles struct {
	mu      sync.Mutex
	calls   int
	running int
	peak    int
	delay   time.Duration
	block   bool
	fail    map[string]error
}

func (s *stubArticles) Generate(ctx context.Context, job core.ArticleJob, batch *core.BatchContext) (core.ArticleOutput, error) {
	s.mu.Lock()
	s.calls++
	s.running++
	if s.running > s.peak {
		s.peak = s.running
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}()

	if s.block {
		<-ctx.Done()
		return core.ArticleOutput{}, core.Wrap(core.KindCancelled, ctx.Err(), "generation cancelled")
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err := s.fail[job.Spec.Keyword]; err != nil {
		return core.ArticleOutput{}, err
	}
	return core.ArticleOutput{
		Headline: "About " + job.Spec.Keyword,
		Lead:     "<p>Lead paragraph.</p>",
		Sections: []core.Section{{Heading: "Overview", Body: "<p>Body.</p>"}},
	}, nil
}

type stubFinder struct {
	found []core.FoundAsset
	err   error
}

func (s *stubFinder) Find(ctx context.Context, keyword string, batch *core.BatchContext) ([]core.FoundAsset, error) {
	return s.found, s.err
}

type stubRecreator struct {
	recreated []assets.RecreatedAsset
}

func (s *stubRecreator) Recreate(ctx context.Context, company core.CompanyContext, found []core.FoundAsset) []assets.RecreatedAsset {
	return s.recreated
}

type stubImages struct {
	err error
}

func (s *stubImages) Generate(ctx context.Context, prompt string, slot core.SlotName) (visual.SlotImage, error) {
	if s.err != nil {
		return visual.SlotImage{}, s.err
	}
	return visual.SlotImage{Slot: slot, PNG: []byte("png-bytes")}, nil
}

type stubPost struct{}

func (stubPost) Process(out *core.ArticleOutput) core.StageReport {
	return core.NewStageReport("post", core.StageOK, "")
}

type stubRenderer struct{}

func (stubRenderer) HTML(out *core.ArticleOutput, language string) (string, error) {
	return "<html><body><h1>" + out.Headline + "</h1></body></html>", nil
}

func (stubRenderer) Markdown(html string) (string, error) { return "# markdown", nil }

func (stubRenderer) JSON(out *core.ArticleOutput) ([]byte, error) {
	return json.Marshal(out)
}

type stubQuality struct {
	report quality.Report
}

func (s *stubQuality) Check(out *core.ArticleOutput, html string) *quality.Report {
	return &s.report
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "id-" + string(rune('a'+n-1))
	}
}

func testInput(keywords ...string) core.BatchInput {
	specs := make([]core.KeywordSpec, len(keywords))
	for i, kw := range keywords {
		specs[i] = core.KeywordSpec{Keyword: kw}
	}
	input := core.BatchInput{
		Keywords:   specs,
		CompanyURL: "https://acme.example.com",
		SkipImages: true,
	}
	if err := ValidateBatchInput(&input); err != nil {
		panic(err)
	}
	return input
}

func testPipeline(t *testing.T, gen *stubArticles) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := NewBuilder(dir).
		WithCrawler(&stubCrawler{}).
		WithResolver(&stubResolver{company: core.CompanyContext{Name: "Acme", Industry: "technology"}}).
		WithArticles(gen).
		WithAssets(&stubFinder{}).
		WithImages(&stubImages{}).
		WithPostProcessor(stubPost{}).
		WithRenderer(stubRenderer{}).
		WithQuality(&stubQuality{}).
		WithIDFunc(sequentialIDs()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p, dir
}

func TestRunWritesArtifactsInInputOrder(t *testing.T) {
	p, dir := testPipeline(t, &stubArticles{})

	report, err := p.Run(context.Background(), testInput("solar panels", "heat pumps", "ev chargers"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ExitCode() != 0 {
		t.Fatalf("exit code = %d, want 0", report.ExitCode())
	}
	if report.ArticlesSuccessful != 3 {
		t.Fatalf("successful = %d, want 3", report.ArticlesSuccessful)
	}

	wantSlugs := []string{"solar-panels", "heat-pumps", "ev-chargers"}
	for i, result := range report.Results {
		if result.Slug != wantSlugs[i] {
			t.Errorf("result %d slug = %q, want %q", i, result.Slug, wantSlugs[i])
		}
		for _, name := range []string{"index.html", "article.md", "article.json"} {
			path := filepath.Join(dir, result.Slug, name)
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing artifact %s: %v", path, err)
			}
		}
	}
	for _, name := range []string{"batch.json", "summary.md"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing batch file %s: %v", name, err)
		}
	}
}

func TestRunPartialFailureIsolatesArticles(t *testing.T) {
	gen := &stubArticles{fail: map[string]error{
		"heat pumps": core.Errf(core.KindInvalidOutput, "draft did not match schema"),
	}}
	p, dir := testPipeline(t, gen)

	report, err := p.Run(context.Background(), testInput("solar panels", "heat pumps", "ev chargers"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", report.ExitCode())
	}
	if report.ArticlesSuccessful != 2 || report.ArticlesFailed != 1 {
		t.Fatalf("successful/failed = %d/%d, want 2/1", report.ArticlesSuccessful, report.ArticlesFailed)
	}

	failed := report.Results[1]
	if failed.Status != core.ArticleFailed {
		t.Fatalf("status = %q, want fail", failed.Status)
	}
	if failed.ErrorKind != core.KindInvalidOutput {
		t.Errorf("error kind = %q, want invalid_output", failed.ErrorKind)
	}
	if _, err := os.Stat(filepath.Join(dir, "heat-pumps")); !os.IsNotExist(err) {
		t.Errorf("failed article left an output directory")
	}
}

func TestRunBoundsParallelism(t *testing.T) {
	gen := &stubArticles{delay: 30 * time.Millisecond}
	p, _ := testPipeline(t, gen)

	input := testInput("one", "two", "three", "four", "five", "six")
	input.MaxParallel = 2

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.peak > 2 {
		t.Errorf("peak concurrent generations = %d, want <= 2", gen.peak)
	}
	if gen.calls != 6 {
		t.Errorf("calls = %d, want 6", gen.calls)
	}
}

func TestRunCrawlWarningsDoNotAbort(t *testing.T) {
	p, _ := testPipeline(t, &stubArticles{})
	p.crawler = &stubCrawler{warnings: []string{"sitemap fetch failed: connection refused"}}

	report, err := p.Run(context.Background(), testInput("solar panels"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ArticlesSuccessful != 1 {
		t.Fatalf("successful = %d, want 1", report.ArticlesSuccessful)
	}

	var found bool
	for _, stage := range report.SharedStages {
		if stage.StageID == "sitemap" && stage.Status == core.StageWarn {
			found = true
		}
	}
	if !found {
		t.Errorf("missing warn sitemap stage, got %+v", report.SharedStages)
	}
}

func TestRunResolverFailureIsFatal(t *testing.T) {
	p, _ := testPipeline(t, &stubArticles{})
	p.resolver = &stubResolver{err: core.Errf(core.KindProviderUnavailable, "model overloaded")}

	report, err := p.Run(context.Background(), testInput("solar panels", "heat pumps"))
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if !core.IsKind(err, core.KindProviderUnavailable) {
		t.Errorf("error kind = %q, want provider_unavailable", core.KindOf(err))
	}
	if report.ArticlesSkipped != 2 {
		t.Errorf("skipped = %d, want 2", report.ArticlesSkipped)
	}
	if report.ArticlesSuccessful != 0 {
		t.Errorf("successful = %d, want 0", report.ArticlesSuccessful)
	}
}

func TestRunCancelledBeforeAdmission(t *testing.T) {
	p, _ := testPipeline(t, &stubArticles{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, testInput("solar panels", "heat pumps"))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !core.IsKind(err, core.KindCancelled) {
		t.Errorf("error kind = %q, want cancelled", core.KindOf(err))
	}
	if report.ArticlesSkipped != 2 {
		t.Errorf("skipped = %d, want 2", report.ArticlesSkipped)
	}
}

func TestRunCancelMidBatch(t *testing.T) {
	gen := &stubArticles{block: true}
	p, _ := testPipeline(t, gen)

	input := testInput("one", "two", "three")
	input.MaxParallel = 1

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	report, err := p.Run(ctx, input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ArticlesCancelled != 1 {
		t.Errorf("cancelled = %d, want 1", report.ArticlesCancelled)
	}
	if report.ArticlesSkipped != 2 {
		t.Errorf("skipped = %d, want 2", report.ArticlesSkipped)
	}
	if report.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", report.ExitCode())
	}
}

func TestRunAssetFailureIsWarningOnly(t *testing.T) {
	p, _ := testPipeline(t, &stubArticles{})
	p.assets = &stubFinder{err: core.Errf(core.KindProviderUnavailable, "all SERP providers down")}

	report, err := p.Run(context.Background(), testInput("solar panels"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ArticlesSuccessful != 1 {
		t.Fatalf("successful = %d, want 1", report.ArticlesSuccessful)
	}

	var warned bool
	for _, stage := range report.Results[0].Stages {
		if stage.StageID == "assets" && stage.Status == core.StageWarn {
			warned = true
		}
	}
	if !warned {
		t.Errorf("missing warn assets stage, got %+v", report.Results[0].Stages)
	}
}

func TestRunWritesAssetList(t *testing.T) {
	p, dir := testPipeline(t, &stubArticles{})
	p.assets = &stubFinder{found: []core.FoundAsset{
		{URL: "https://upload.wikimedia.org/chart.png", Title: "Capacity chart", Kind: core.AssetChart},
	}}

	if _, err := p.Run(context.Background(), testInput("solar panels")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "solar-panels", "assets.json"))
	if err != nil {
		t.Fatalf("read assets.json: %v", err)
	}
	var listed []core.FoundAsset
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("decode assets.json: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Capacity chart" {
		t.Errorf("assets.json = %+v", listed)
	}
}

func TestRunRecreatesAssetsInBrandStyle(t *testing.T) {
	p, dir := testPipeline(t, &stubArticles{})
	p.assets = &stubFinder{found: []core.FoundAsset{
		{URL: "https://upload.wikimedia.org/chart.png", Title: "Capacity chart", Kind: core.AssetChart},
	}}
	p.recreator = &stubRecreator{recreated: []assets.RecreatedAsset{
		{
			Asset: core.FoundAsset{Title: "Capacity chart", Kind: core.AssetChart, Recreated: true},
			PNG:   []byte("recreated-png"),
		},
	}}

	input := testInput("solar panels")
	input.SkipImages = false
	p.images = nil

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("Run: %v", err)
	}

	png, err := os.ReadFile(filepath.Join(dir, "solar-panels", "images", "recreated-1.png"))
	if err != nil {
		t.Fatalf("read recreated asset: %v", err)
	}
	if string(png) != "recreated-png" {
		t.Errorf("recreated bytes = %q", png)
	}

	data, err := os.ReadFile(filepath.Join(dir, "solar-panels", "assets.json"))
	if err != nil {
		t.Fatalf("read assets.json: %v", err)
	}
	var listed []core.FoundAsset
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("decode assets.json: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("assets.json entries = %d, want 2", len(listed))
	}
	if !listed[1].Recreated || listed[1].URL != "images/recreated-1.png" {
		t.Errorf("recreated entry = %+v", listed[1])
	}
}

func TestRunGeneratesSlotImages(t *testing.T) {
	p, dir := testPipeline(t, &stubArticles{})

	input := testInput("solar panels")
	input.SkipImages = false

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, slot := range []string{"hero", "mid", "bottom"} {
		path := filepath.Join(dir, "solar-panels", "images", slot+".png")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s image: %v", slot, err)
		}
	}
}

func TestRunImageFailureDegradesToWarning(t *testing.T) {
	p, _ := testPipeline(t, &stubArticles{})
	p.images = &stubImages{err: core.Errf(core.KindProviderUnavailable, "image backend down")}

	input := testInput("solar panels")
	input.SkipImages = false

	report, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ArticlesSuccessful != 1 {
		t.Fatalf("successful = %d, want 1", report.ArticlesSuccessful)
	}

	var warned bool
	for _, stage := range report.Results[0].Stages {
		if stage.StageID == "images" && stage.Status == core.StageWarn {
			warned = true
		}
	}
	if !warned {
		t.Errorf("missing warn images stage, got %+v", report.Results[0].Stages)
	}
}

func TestRunExportFormatSubset(t *testing.T) {
	p, dir := testPipeline(t, &stubArticles{})

	input := testInput("solar panels")
	input.ExportFormats = []string{"json"}

	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "solar-panels", "article.json")); err != nil {
		t.Errorf("missing article.json: %v", err)
	}
	for _, name := range []string{"index.html", "article.md"} {
		if _, err := os.Stat(filepath.Join(dir, "solar-panels", name)); !os.IsNotExist(err) {
			t.Errorf("unexpected artifact %s", name)
		}
	}
}

func TestValidateBatchInput(t *testing.T) {
	tests := []struct {
		name    string
		input   core.BatchInput
		wantErr bool
	}{
		{
			name:    "no keywords",
			input:   core.BatchInput{CompanyURL: "https://acme.example.com"},
			wantErr: true,
		},
		{
			name: "blank keyword",
			input: core.BatchInput{
				Keywords:   []core.KeywordSpec{{Keyword: "  "}},
				CompanyURL: "https://acme.example.com",
			},
			wantErr: true,
		},
		{
			name: "relative company url",
			input: core.BatchInput{
				Keywords:   []core.KeywordSpec{{Keyword: "solar"}},
				CompanyURL: "/about",
			},
			wantErr: true,
		},
		{
			name: "ftp scheme",
			input: core.BatchInput{
				Keywords:   []core.KeywordSpec{{Keyword: "solar"}},
				CompanyURL: "ftp://acme.example.com",
			},
			wantErr: true,
		},
		{
			name: "unknown export format",
			input: core.BatchInput{
				Keywords:      []core.KeywordSpec{{Keyword: "solar"}},
				CompanyURL:    "https://acme.example.com",
				ExportFormats: []string{"pdf"},
			},
			wantErr: true,
		},
		{
			name: "valid",
			input: core.BatchInput{
				Keywords:   []core.KeywordSpec{{Keyword: "solar"}},
				CompanyURL: "https://acme.example.com",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatchInput(&tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !core.IsKind(err, core.KindInputInvalid) {
					t.Errorf("kind = %q, want input_invalid", core.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateBatchInputFillsDefaults(t *testing.T) {
	input := core.BatchInput{
		Keywords:   []core.KeywordSpec{{Keyword: "solar"}},
		CompanyURL: "https://acme.example.com",
		Market:     "de",
	}
	if err := ValidateBatchInput(&input); err != nil {
		t.Fatalf("ValidateBatchInput: %v", err)
	}
	if input.Language != "en" || input.Market != "DE" {
		t.Errorf("language/market = %q/%q", input.Language, input.Market)
	}
	if input.DefaultWordCount != 1500 || input.MaxParallel != 4 {
		t.Errorf("defaults = %d/%d", input.DefaultWordCount, input.MaxParallel)
	}
	if len(input.ExportFormats) != 3 {
		t.Errorf("export formats = %v", input.ExportFormats)
	}
}

func TestParseBatchInputRejectsUnknownFields(t *testing.T) {
	payload := `{"keywords":[{"keyword":"solar"}],"company_url":"https://acme.example.com","mystery":1}`
	if _, err := ParseBatchInput(strings.NewReader(payload)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestBuildJobsUniqueSlugs(t *testing.T) {
	input := core.BatchInput{
		Keywords: []core.KeywordSpec{
			{Keyword: "Solar Panels"},
			{Keyword: "solar panels"},
			{Keyword: "solar-panels", WordCount: 900},
		},
		CompanyURL:       "https://acme.example.com",
		DefaultWordCount: 1500,
	}
	jobs := BuildJobs(input, sequentialIDs())

	wantSlugs := []string{"solar-panels", "solar-panels-2", "solar-panels-3"}
	for i, job := range jobs {
		if job.Slug != wantSlugs[i] {
			t.Errorf("job %d slug = %q, want %q", i, job.Slug, wantSlugs[i])
		}
		if job.Href != "/"+wantSlugs[i] {
			t.Errorf("job %d href = %q", i, job.Href)
		}
	}
	if jobs[0].WordCountTarget != 1500 {
		t.Errorf("job 0 target = %d, want batch default", jobs[0].WordCountTarget)
	}
	if jobs[2].WordCountTarget != 900 {
		t.Errorf("job 2 target = %d, want per-keyword override", jobs[2].WordCountTarget)
	}
}
