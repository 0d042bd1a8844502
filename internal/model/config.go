package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete calscrape configuration
type Config struct {
	HTTP           HTTPConfig       `yaml:"http" mapstructure:"http"`
	Cache          CacheConfig      `yaml:"cache" mapstructure:"cache"`
	RateLimiting   RateLimitConfig  `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	LLM            LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Extraction     ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Output         OutputConfig     `yaml:"output" mapstructure:"output"`
	Log            LogConfig        `yaml:"log" mapstructure:"log"`
	Schedule       ScheduleConfig   `yaml:"schedule" mapstructure:"schedule"`
	BlockedDomains []string         `yaml:"blocked_domains" mapstructure:"blocked_domains"`
	Sources        []Source         `yaml:"sources" mapstructure:"sources"`
}

// HTTPConfig configures the page transport
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the listing page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
}

// RateLimitConfig configures per-domain request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64      `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int          `yaml:"burst_size" mapstructure:"burst_size"`
	Domains           []DomainRate `yaml:"domains,omitempty" mapstructure:"domains"`
}

// DomainRate overrides the pacing of one domain, e.g. a fragile municipal site
type DomainRate struct {
	Domain            string  `yaml:"domain" mapstructure:"domain"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size,omitempty" mapstructure:"burst_size"`
}

// LLMConfig configures the extraction service
type LLMConfig struct {
	Provider         string  `yaml:"provider" mapstructure:"provider"`
	Model            string  `yaml:"model" mapstructure:"model"`
	AttractionsModel string  `yaml:"attractions_model" mapstructure:"attractions_model"`
	APIKey           string  `yaml:"-" mapstructure:"api_key"`
	BaseURL          string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout          int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens        int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature      float32 `yaml:"temperature" mapstructure:"temperature"`
}

// ExtractionConfig holds the extraction heuristics' tunables
type ExtractionConfig struct {
	DetailDelay          time.Duration `yaml:"detail_delay" mapstructure:"detail_delay"`
	HorizonMonths        int           `yaml:"horizon_months" mapstructure:"horizon_months"`
	DescriptionLimit     int           `yaml:"description_limit" mapstructure:"description_limit"`
	ClassGraceDays       int           `yaml:"class_grace_days" mapstructure:"class_grace_days"`
	AttractionSimilarity float64       `yaml:"attraction_similarity" mapstructure:"attraction_similarity"`
	ExcerptChars         int           `yaml:"excerpt_chars" mapstructure:"excerpt_chars"`
	AttractionChars      int           `yaml:"attraction_excerpt_chars" mapstructure:"attraction_excerpt_chars"`
	DetailChars          int           `yaml:"detail_excerpt_chars" mapstructure:"detail_excerpt_chars"`
}

// OutputConfig configures where run results go
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	ICS      bool   `yaml:"ics" mapstructure:"ics"`
	S3Bucket string `yaml:"s3_bucket,omitempty" mapstructure:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix,omitempty" mapstructure:"s3_prefix"`
	S3Region string `yaml:"s3_region,omitempty" mapstructure:"s3_region"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// ScheduleConfig configures watch mode
type ScheduleConfig struct {
	Cron string `yaml:"cron" mapstructure:"cron"`
}

// DefaultUserAgent is a browser-like agent; many small municipal sites reject bots
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := ".calscrape-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".calscrape", "cache")
	}

	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: 5_000_000,
			MaxAttempts:  3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   6 * time.Hour,
			Dir:       cacheDir,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		LLM: LLMConfig{
			Provider:         "openai",
			Model:            "gpt-4o-mini",
			AttractionsModel: "gpt-4o",
			Timeout:          60,
			MaxTokens:        4000,
			Temperature:      0.1,
		},
		Extraction: ExtractionConfig{
			DetailDelay:          time.Second,
			HorizonMonths:        6,
			DescriptionLimit:     200,
			ClassGraceDays:       30,
			AttractionSimilarity: 0.85,
			ExcerptChars:         50_000,
			AttractionChars:      100_000,
			DetailChars:          15_000,
		},
		Output: OutputConfig{
			Dir: "./calscrape-out",
			ICS: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Schedule: ScheduleConfig{
			Cron: "0 */6 * * *",
		},
		BlockedDomains: []string{"tripadvisor."},
	}
}
