package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/chronia/internal/logging"
	"github.com/ppiankov/chronia/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chronia",
	Short: "Chronia - temporal span extraction for historical pages",
	Long: `Chronia reads historical timeline pages and turns their free-text dates
into calendar spans with a precision and a confidence level.

It understands BC/AD years, centuries, decades, ranges, circa markers,
"years ago" phrases and day-month-year dates, and fills in dates that a
page only states once for a whole table row group or section.

Every date says how it was obtained. Nothing is guessed silently.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number for Chronia.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chronia %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.chronia/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (implies --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".chronia"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CHRONIA_HTTP_TIMEOUT overrides http.timeout and so on
	viper.SetEnvPrefix("CHRONIA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file, environment and bound flags over the
// defaults and sets up logging from the result.
func loadConfig() (*model.Config, *slog.Logger, error) {
	cfg := model.DefaultConfig()
	for _, key := range configKeys(cfg) {
		viper.SetDefault(key.name, key.value)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		cfg.Output.Verbose = true
		level = "debug"
	}
	logger := logging.Setup(level, cfg.Log.Format, os.Stderr)
	return cfg, logger, nil
}

type configKey struct {
	name  string
	value any
}

// configKeys lists every leaf key so that AutomaticEnv can see keys that
// appear in no config file.
func configKeys(cfg *model.Config) []configKey {
	return []configKey{
		{"engine.anchor_year", cfg.Engine.AnchorYear},
		{"engine.founding_threshold", cfg.Engine.FoundingThreshold},
		{"engine.very_ancient_threshold", cfg.Engine.VeryAncientThreshold},
		{"http.timeout", cfg.HTTP.Timeout},
		{"http.user_agent", cfg.HTTP.UserAgent},
		{"http.max_body_bytes", cfg.HTTP.MaxBodyBytes},
		{"http.insecure_tls", cfg.HTTP.InsecureTLS},
		{"http.http_proxy", cfg.HTTP.HTTPProxy},
		{"http.https_proxy", cfg.HTTP.HTTPSProxy},
		{"http.no_proxy", cfg.HTTP.NoProxy},
		{"http.max_retries", cfg.HTTP.MaxRetries},
		{"http.respect_robots", cfg.HTTP.RespectRobots},
		{"cache.enabled", cfg.Cache.Enabled},
		{"cache.dir", cfg.Cache.Dir},
		{"cache.memory_ttl", cfg.Cache.MemoryTTL},
		{"cache.disk_ttl", cfg.Cache.DiskTTL},
		{"concurrency.workers", cfg.Concurrency.Workers},
		{"concurrency.requests_per_second", cfg.Concurrency.RequestsPerSecond},
		{"concurrency.burst", cfg.Concurrency.Burst},
		{"output.format", cfg.Output.Format},
		{"output.include_footer", cfg.Output.IncludeFooter},
		{"output.keep_dropped", cfg.Output.KeepDropped},
	}
}

// bindFlags lets the running command's flags override config keys. Pairs
// are key, flag. Binding happens at run time because several commands share
// flag names.
func bindFlags(cmd *cobra.Command, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := viper.BindPFlag(pairs[i], cmd.Flags().Lookup(pairs[i+1])); err != nil {
			return fmt.Errorf("bind --%s: %w", pairs[i+1], err)
		}
	}
	return nil
}
