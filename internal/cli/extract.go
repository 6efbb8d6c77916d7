package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/chronia/internal/pipeline"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file.html>",
	Short: "Extract dated events from a saved HTML page",
	Long: `Extract walks a local HTML file the same way scan walks a fetched page.
The adapter is chosen from --url when given, otherwise the generic adapter
is used unless --adapter names one.

Example:
  chronia extract rome.html --url https://en.wikipedia.org/wiki/Timeline_of_ancient_Rome
  chronia extract page.html --adapter wikipedia -o events.json -o events.md`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("adapter", "", "adapter name (wikipedia, generic); default picks by --url")
	extractCmd.Flags().String("url", "", "source URL of the page, used for adapter choice and event IDs")
	extractCmd.Flags().StringArrayP("output", "o", []string{"-"}, "output path; format follows the extension, - for stdout")
	addEngineFlags(extractCmd)
	addOutputFlags(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := bindEngineFlags(cmd); err != nil {
		return err
	}
	if err := bindOutputFlags(cmd); err != nil {
		return err
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	applyNegatedFlags(cmd, cfg)
	// A local file needs neither the network nor the page cache
	cfg.Cache.Enabled = false
	cfg.HTTP.RespectRobots = false

	adapterName, _ := cmd.Flags().GetString("adapter")
	sourceURL, _ := cmd.Flags().GetString("url")
	outputs, _ := cmd.Flags().GetStringArray("output")

	p := pipeline.NewPipeline(cfg, logger)
	result, err := p.ScanFile(args[0], sourceURL, adapterName)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	if err := p.RenderReport(result.Report, outputs); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if cfg.Output.Verbose {
		p.Renderer().RenderSummary(cmd.ErrOrStderr(), result.Report)
	}
	return nil
}
