package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete Chronia configuration
type Config struct {
	Engine      EngineConfig      `yaml:"engine" mapstructure:"engine"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// EngineConfig controls date resolution
type EngineConfig struct {
	AnchorYear           int `yaml:"anchor_year" mapstructure:"anchor_year"`                       // 0 = current year at run start
	FoundingThreshold    int `yaml:"founding_threshold" mapstructure:"founding_threshold"`         // BC magnitude; dates at or before are legendary
	VeryAncientThreshold int `yaml:"very_ancient_threshold" mapstructure:"very_ancient_threshold"` // BC magnitude beyond which precision is coarsened
}

// HTTPConfig controls page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig controls the page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch parallelism and politeness
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	Format        string `yaml:"format" mapstructure:"format"` // json, yaml, md, html
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	KeepDropped   bool   `yaml:"keep_dropped" mapstructure:"keep_dropped"` // Include dropped items in reports
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// Engine defaults
const (
	DefaultFoundingThreshold    = 754   // One year before the traditional founding of Rome (753 BC)
	DefaultVeryAncientThreshold = 10000 // Tens of thousands of years
)

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	cacheDir := ".chronia-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".chronia", "cache")
	}

	return &Config{
		Engine: EngineConfig{
			AnchorYear:           0,
			FoundingThreshold:    DefaultFoundingThreshold,
			VeryAncientThreshold: DefaultVeryAncientThreshold,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Chronia/0.1 (+https://github.com/ppiankov/chronia)",
			MaxBodyBytes:  8_000_000,
			MaxRetries:    3,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Output: OutputConfig{
			Format:        "json",
			IncludeFooter: true,
			KeepDropped:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ResolvedAnchorYear returns the configured anchor year, or now's year when unset
func (e EngineConfig) ResolvedAnchorYear(now time.Time) int {
	if e.AnchorYear > 0 {
		return e.AnchorYear
	}
	return now.Year()
}
