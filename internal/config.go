package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/imagesim/internal/cache"
	"github.com/starford/imagesim/internal/sampler"
	"github.com/starford/imagesim/internal/scheduler"
	"github.com/starford/imagesim/internal/similarity"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Sampler    SamplerConfig     `yaml:"sampler"`
	Cache      CacheConfig       `yaml:"cache"`
	Scheduler  SchedulerConfig   `yaml:"scheduler"`
	Similarity SimilarityConfig  `yaml:"similarity"`
	Report     ReportConfig      `yaml:"report"`
	Export     ExportConfig      `yaml:"export"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Sampler.Validate(); err != nil {
		return fmt.Errorf("sampler: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Similarity.Validate(); err != nil {
		return fmt.Errorf("similarity: %w", err)
	}
	return c.Report.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	Progress  bool       `yaml:"progress"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// SamplerConfig controls decoding and downscaling.
type SamplerConfig struct {
	MaxSize         int    `yaml:"max_size"`
	Filter          string `yaml:"filter"`
	AutoOrientation bool   `yaml:"auto_orientation"`
}

// Validate validates the sampler configuration.
func (c *SamplerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Filter, validation.Required, validation.In(
			sampler.FilterNearest, sampler.FilterBox, sampler.FilterLinear,
			sampler.FilterCatmullRom, sampler.FilterLanczos)),
	)
}

// CacheConfig controls profile cache expiry.
type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	Janitor bool          `yaml:"janitor"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
	)
}

// SchedulerConfig controls how many comparison units run at once.
//
// Concurrency 0 means runtime.NumCPU() * 4.
type SchedulerConfig struct {
	Mode        string `yaml:"mode"`
	Concurrency int    `yaml:"concurrency"`
}

// Validate validates the scheduler configuration.
func (c *SchedulerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(scheduler.ModeBatch, scheduler.ModeSteady)),
		validation.Field(&c.Concurrency, validation.Min(0)),
	)
}

// Workers returns the effective unit limit.
func (c *SchedulerConfig) Workers() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return scheduler.DefaultConcurrency()
}

// SimilarityConfig selects the per-pixel metric.
type SimilarityConfig struct {
	Metric           string  `yaml:"metric"`
	ChannelThreshold int     `yaml:"channel_threshold"`
	XYZThreshold     float64 `yaml:"xyz_threshold"`
}

// Validate validates the similarity configuration.
func (c *SimilarityConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Metric, validation.Required, validation.In(similarity.MetricChannel, similarity.MetricXYZ)),
		validation.Field(&c.ChannelThreshold, validation.Min(0), validation.Max(256)),
		validation.Field(&c.XYZThreshold, validation.Min(0.0)),
	)
}

// BuildMetric returns the configured metric.
func (c *SimilarityConfig) BuildMetric() similarity.Metric {
	if c.Metric == similarity.MetricXYZ {
		return similarity.XYZMetric(c.XYZThreshold)
	}
	return similarity.ChannelMetric(c.ChannelThreshold)
}

// ReportConfig holds the report output path.
type ReportConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ExportConfig holds optional matrix export settings.
// An empty SQLitePath disables the export.
type ExportConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	Checksums  bool   `yaml:"checksums"`
}

// Enabled reports whether the SQLite export is configured.
func (c *ExportConfig) Enabled() bool {
	return c.SQLitePath != ""
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Sampler: SamplerConfig{
			MaxSize: sampler.DefaultMaxSize,
			Filter:  sampler.FilterLinear,
		},
		Cache: CacheConfig{
			TTL:     cache.DefaultTTL,
			Janitor: true,
		},
		Scheduler: SchedulerConfig{
			Mode: scheduler.ModeBatch,
		},
		Similarity: SimilarityConfig{
			Metric:           similarity.MetricChannel,
			ChannelThreshold: similarity.DefaultChannelThreshold,
			XYZThreshold:     similarity.DefaultXYZThreshold,
		},
		Report: ReportConfig{
			Path: "similarity.txt",
		},
		Export: ExportConfig{
			Checksums: true,
		},
	}
}
