package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/chronia/internal/model"
	"github.com/ppiankov/chronia/internal/pipeline"
	"github.com/ppiankov/chronia/internal/worker"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Scan multiple URLs from a file in parallel",
	Long: `Batch processes multiple URLs concurrently:
- Read URLs from input file (one per line, # for comments)
- Fetch pages in parallel, politely paced per domain
- Write one report per URL in each requested format
- Print a merged summary of dates by confidence

Example:
  chronia batch urls.txt
  chronia batch urls.txt --concurrency 8 --output-dir ./timelines
  chronia batch urls.txt --formats json,md,html --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	def := model.DefaultConfig().Concurrency
	batchCmd.Flags().Int("concurrency", def.Workers, "number of concurrent workers")
	batchCmd.Flags().Float64("rps", def.RequestsPerSecond, "requests per second per domain")
	batchCmd.Flags().String("output-dir", "./chronia-reports", "output directory for reports")
	batchCmd.Flags().StringSlice("formats", []string{"json", "md"}, "report formats to write per URL")
	batchCmd.Flags().Duration("timeout", 10*time.Minute, "total timeout for batch processing")
	addEngineFlags(batchCmd)
	addOutputFlags(batchCmd)
	addHTTPFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	for _, bind := range []func(*cobra.Command) error{bindEngineFlags, bindOutputFlags, bindHTTPFlags} {
		if err := bind(cmd); err != nil {
			return err
		}
	}
	if err := bindFlags(cmd,
		"concurrency.workers", "concurrency",
		"concurrency.requests_per_second", "rps",
	); err != nil {
		return err
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	applyNegatedFlags(cmd, cfg)

	outputDir, _ := cmd.Flags().GetString("output-dir")
	formatNames, _ := cmd.Flags().GetStringSlice("formats")
	batchTimeout, _ := cmd.Flags().GetDuration("timeout")

	formats := make([]pipeline.Format, 0, len(formatNames))
	for _, name := range formatNames {
		f, err := pipeline.ParseFormat(name)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Chronia Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Rate:         %.1f req/s per domain\n", cfg.Concurrency.RequestsPerSecond)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.NewPipeline(cfg, logger)
	// Pacing lives in the fetcher so that cache hits skip it and robots.txt
	// crawl delays apply.
	p.UseLimiter(worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst))

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, 0, 0).WithLogger(logger)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	used := make(map[string]int)
	for _, result := range results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Error)
			continue
		}

		slug := uniqueSlug(sanitizeFilename(result.Report.Subject), used)
		if err := writeReports(p.Renderer(), result.Report, outputDir, slug, formats); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d events, %d dropped, %v)\n",
			result.Report.Subject, len(result.Report.Events), result.Report.Stats.Unresolved,
			result.Duration.Round(time.Millisecond))
	}

	printBatchSummary(worker.Summarize(results), outputDir)
	return nil
}

func writeReports(r *pipeline.Renderer, report *model.Report, dir, slug string, formats []pipeline.Format) error {
	for _, f := range formats {
		path := filepath.Join(dir, slug+"."+string(f))
		if err := r.RenderFile(report, path); err != nil {
			return fmt.Errorf("write %s: %w", f, err)
		}
	}
	return nil
}

func printBatchSummary(s worker.Summary, outputDir string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", s.Total)
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", s.Succeeded)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", s.Failed)
	fmt.Fprintf(os.Stderr, "  Events:    %s\n", humanize.Comma(int64(s.Events)))
	fmt.Fprintf(os.Stderr, "  Dropped:   %s\n", humanize.Comma(int64(s.Dropped)))
	for _, c := range model.Confidences() {
		if n := s.Stats.ByConfidence[c]; n > 0 {
			fmt.Fprintf(os.Stderr, "    %-12s %s\n", c, humanize.Comma(int64(n)))
		}
	}
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")
}

// sanitizeFilename turns a report subject into a safe file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".-_")
	if s == "" {
		s = "report"
	}

	// Limit length without splitting a rune
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	return s
}

// uniqueSlug appends a counter when two pages share a subject
func uniqueSlug(slug string, used map[string]int) string {
	used[slug]++
	if n := used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
