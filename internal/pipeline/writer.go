package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wordsmith/internal/core"
)

// Writer owns the output tree: one directory per article slug plus the
// batch-level report files. Directories are created lazily on first
// write, so failed articles leave no directory behind.
type Writer struct {
	root string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// Root returns the output root directory.
func (w *Writer) Root() string { return w.root }

// ArticleDir returns the directory for one slug without creating it.
func (w *Writer) ArticleDir(slug string) string {
	return filepath.Join(w.root, slug)
}

// WriteArticleFile writes one file under the slug's directory.
func (w *Writer) WriteArticleFile(slug, name string, data []byte) error {
	dir := w.ArticleDir(slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.Wrap(core.KindIO, err, "create article directory")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return core.Wrap(core.KindIO, err, "write %s", name)
	}
	return nil
}

// WriteImage stores a slot PNG under images/ and returns the relative
// path for use in the rendered article.
func (w *Writer) WriteImage(slug string, slot core.SlotName, png []byte) (string, error) {
	dir := filepath.Join(w.ArticleDir(slug), "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", core.Wrap(core.KindIO, err, "create images directory")
	}
	name := fmt.Sprintf("%s.png", slot)
	if err := os.WriteFile(filepath.Join(dir, name), png, 0o644); err != nil {
		return "", core.Wrap(core.KindIO, err, "write %s image", slot)
	}
	return filepath.ToSlash(filepath.Join("images", name)), nil
}

// WriteRecreatedAsset stores a brand-styled asset PNG under images/ and
// returns its relative path.
func (w *Writer) WriteRecreatedAsset(slug string, idx int, png []byte) (string, error) {
	dir := filepath.Join(w.ArticleDir(slug), "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", core.Wrap(core.KindIO, err, "create images directory")
	}
	name := fmt.Sprintf("recreated-%d.png", idx)
	if err := os.WriteFile(filepath.Join(dir, name), png, 0o644); err != nil {
		return "", core.Wrap(core.KindIO, err, "write recreated asset")
	}
	return filepath.ToSlash(filepath.Join("images", name)), nil
}

// WriteBatchReport writes batch.json at the output root.
func (w *Writer) WriteBatchReport(report *core.BatchReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return core.Wrap(core.KindIO, err, "encode batch report")
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return core.Wrap(core.KindIO, err, "create output root")
	}
	if err := os.WriteFile(filepath.Join(w.root, "batch.json"), data, 0o644); err != nil {
		return core.Wrap(core.KindIO, err, "write batch.json")
	}
	return nil
}

// WriteSummary writes the human-readable summary.md at the output root.
func (w *Writer) WriteSummary(report *core.BatchReport) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return core.Wrap(core.KindIO, err, "create output root")
	}
	if err := os.WriteFile(filepath.Join(w.root, "summary.md"), []byte(renderSummary(report)), 0o644); err != nil {
		return core.Wrap(core.KindIO, err, "write summary.md")
	}
	return nil
}

// renderSummary builds the markdown batch summary.
func renderSummary(report *core.BatchReport) string {
	var b strings.Builder
	b.WriteString("# Batch summary\n\n")
	fmt.Fprintf(&b, "- Started: %s\n", report.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Wall time: %.1fs\n", report.WallTime)
	fmt.Fprintf(&b, "- Articles: %d total, %d succeeded, %d failed, %d cancelled, %d skipped\n",
		report.ArticlesTotal, report.ArticlesSuccessful, report.ArticlesFailed,
		report.ArticlesCancelled, report.ArticlesSkipped)
	if report.EstimatedCostUSD > 0 {
		fmt.Fprintf(&b, "- Estimated cost: $%.4f\n", report.EstimatedCostUSD)
	}
	b.WriteString("\n| Keyword | Slug | Status | Notes |\n|---|---|---|---|\n")
	for _, result := range report.Results {
		note := result.Error
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", result.Keyword, result.Slug, result.Status, note)
	}
	return b.String()
}
