package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/chronia/internal/pipeline"
	"github.com/ppiankov/chronia/internal/worker"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Scan a single URL and extract its dated events",
	Long: `Scan fetches a timeline or history page and:
- Walks its headings, lists, paragraphs and tables
- Resolves every dated item to a calendar span
- Inherits dates from spanning table cells and section headings
- Marks each date explicit, inferred, legendary, approximate, contentious or fallback
- Reports the items it could not date, with the reason

Example:
  chronia scan https://en.wikipedia.org/wiki/Timeline_of_ancient_Rome
  chronia scan https://example.com/history -o report.json -o report.md
  chronia scan https://example.com/history --format yaml --anchor-year 2020`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringArrayP("output", "o", []string{"-"}, "output path; format follows the extension, - for stdout")
	scanCmd.Flags().Duration("timeout", 2*time.Minute, "overall scan timeout")
	addEngineFlags(scanCmd)
	addOutputFlags(scanCmd)
	addHTTPFlags(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	url := args[0]

	for _, bind := range []func(*cobra.Command) error{bindEngineFlags, bindOutputFlags, bindHTTPFlags} {
		if err := bind(cmd); err != nil {
			return err
		}
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	applyNegatedFlags(cmd, cfg)

	timeout, _ := cmd.Flags().GetDuration("timeout")
	outputs, _ := cmd.Flags().GetStringArray("output")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Debug("scanning", "url", url, "timeout", timeout, "cache", cfg.Cache.Enabled, "robots", cfg.HTTP.RespectRobots)

	p := pipeline.NewPipeline(cfg, logger)
	p.UseLimiter(worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst))

	result, err := p.ScanURL(ctx, url)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if err := p.RenderReport(result.Report, outputs); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	// Keep stdout clean when a report went there
	if slices.Contains(outputs, "-") {
		if cfg.Output.Verbose {
			p.Renderer().RenderSummary(cmd.ErrOrStderr(), result.Report)
		}
	} else {
		p.Renderer().RenderSummary(cmd.OutOrStdout(), result.Report)
	}
	return nil
}
