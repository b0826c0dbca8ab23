package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wordsmith/internal/config"
	"wordsmith/internal/core"
	"wordsmith/internal/logger"
	"wordsmith/internal/pipeline"
)

// Exit codes: 0 every article succeeded, 1 partial failure, 2 fatal
// batch error (bad input, company resolution failed, cancelled before
// any article started).
const (
	exitOK      = 0
	exitPartial = 1
	exitFatal   = 2
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "generate <batch.json>",
		Short: "Generate articles for a batch of keywords",
		Long: `Generate runs the full pipeline for one batch request: sitemap crawl
and company resolution up front, then one bounded worker per keyword
producing the article draft, supporting assets, slot images, and the
HTML, Markdown and JSON exports.

Pass "-" to read the batch request from stdin.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runGenerate(args[0], outputDir))
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "output", "output directory for the batch")
	return cmd
}

func runGenerate(path, outputDir string) int {
	input, err := readBatchInput(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFatal
	}

	p, err := pipeline.NewBuilder(outputDir).Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFatal
	}

	ctx, stop := signalContext()
	defer stop()

	report, runErr := p.Run(ctx, input)
	printReport(report)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		return exitFatal
	}
	return report.ExitCode()
}

func readBatchInput(path string) (core.BatchInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return core.BatchInput{}, core.Wrap(core.KindInputInvalid, err, "open batch request")
		}
		defer f.Close()
		r = f
	}
	return pipeline.ParseBatchInput(r)
}

// signalContext cancels on the first interrupt and force-exits after
// the grace period so a wedged provider cannot hold the process.
func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sig:
		case <-ctx.Done():
			return
		}
		logger.Warn("interrupt received, letting running articles wind down")
		cancel()

		grace := config.Duration("batch.cancel_grace")
		if grace <= 0 {
			grace = 30 * time.Second
		}
		select {
		case <-sig:
		case <-time.After(grace):
		}
		logger.Error("forced shutdown")
		os.Exit(exitFatal)
	}()

	return ctx, func() { signal.Stop(sig); cancel() }
}

func printReport(report *core.BatchReport) {
	fmt.Printf("batch %s: %d articles, %d ok, %d failed, %d cancelled, %d skipped (%.1fs)\n",
		report.BatchID, report.ArticlesTotal, report.ArticlesSuccessful,
		report.ArticlesFailed, report.ArticlesCancelled, report.ArticlesSkipped,
		report.WallTime)
	for _, result := range report.Results {
		line := fmt.Sprintf("  %-10s %s", result.Status, result.Keyword)
		if result.Error != "" {
			line += " (" + result.Error + ")"
		}
		fmt.Println(line)
	}
	if report.EstimatedCostUSD > 0 {
		fmt.Printf("estimated cost: $%.4f\n", report.EstimatedCostUSD)
	}
}
