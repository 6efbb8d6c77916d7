package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/chronia/internal/model"
)

// Flags shared by the commands that build a pipeline. Values are read back
// through viper, so the flags carry no Go variables.

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Int("anchor-year", 0, "year \"years ago\" counts back from (default: current year)")
	cmd.Flags().Int("founding-threshold", model.DefaultFoundingThreshold, "BC year at or before which dates are legendary")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "json", "stdout format (json, yaml, md, html)")
	cmd.Flags().Bool("no-footer", false, "disable footer in Markdown and HTML reports")
	cmd.Flags().Bool("keep-dropped", true, "list unresolved items in reports")
}

func addHTTPFlags(cmd *cobra.Command) {
	def := model.DefaultConfig().HTTP
	cmd.Flags().Duration("request-timeout", def.Timeout, "timeout for a single HTTP request")
	cmd.Flags().String("ua", def.UserAgent, "HTTP User-Agent")
	cmd.Flags().Int64("max-bytes", def.MaxBodyBytes, "max response bytes to read")
	cmd.Flags().Bool("no-cache", false, "disable cache (force fresh fetch)")
	cmd.Flags().Bool("insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	cmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().Bool("ignore-robots", false, "do not check robots.txt")
}

func bindEngineFlags(cmd *cobra.Command) error {
	return bindFlags(cmd,
		"engine.anchor_year", "anchor-year",
		"engine.founding_threshold", "founding-threshold",
	)
}

func bindOutputFlags(cmd *cobra.Command) error {
	return bindFlags(cmd,
		"output.format", "format",
		"output.keep_dropped", "keep-dropped",
	)
}

func bindHTTPFlags(cmd *cobra.Command) error {
	return bindFlags(cmd,
		"http.timeout", "request-timeout",
		"http.user_agent", "ua",
		"http.max_body_bytes", "max-bytes",
		"http.insecure_tls", "insecure",
		"http.http_proxy", "http-proxy",
		"http.https_proxy", "https-proxy",
	)
}

// applyNegatedFlags handles the --no-* style flags, which invert a config key
// and so cannot be bound directly.
func applyNegatedFlags(cmd *cobra.Command, cfg *model.Config) {
	if f := cmd.Flags().Lookup("no-cache"); f != nil && f.Changed {
		cfg.Cache.Enabled = f.Value.String() != "true"
	}
	if f := cmd.Flags().Lookup("no-footer"); f != nil && f.Changed {
		cfg.Output.IncludeFooter = f.Value.String() != "true"
	}
	if f := cmd.Flags().Lookup("ignore-robots"); f != nil && f.Changed {
		cfg.HTTP.RespectRobots = f.Value.String() != "true"
	}
}
