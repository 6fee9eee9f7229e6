package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"docfit-go/internal/container"
	"docfit-go/internal/domain"
	"docfit-go/internal/logger"
	"docfit-go/internal/strategy"
	"docfit-go/internal/transform"
)

// Config represents the main configuration structure
type Config struct {
	Engine              EngineConfig            `mapstructure:"engine"`
	Presets             map[string]PresetConfig `mapstructure:"presets" validate:"dive"`
	Batch               BatchConfig             `mapstructure:"batch"`
	Logging             LoggingConfig           `mapstructure:"logging"`
	SupportedExtensions []string                `mapstructure:"supported_extensions"`
}

// EngineConfig tunes the transform pipeline.
type EngineConfig struct {
	Tolerance        float64       `mapstructure:"tolerance" validate:"gte=0,lte=1"`
	AttemptTimeout   time.Duration `mapstructure:"attempt_timeout" validate:"gte=0"`
	ConvertQuality   float64       `mapstructure:"convert_quality" validate:"gt=0,lte=1"`
	MinScale         float64       `mapstructure:"min_scale" validate:"gt=0,lte=1"`
	MaxUpscale       float64       `mapstructure:"max_upscale" validate:"gte=1"`
	FallbackAttempts int           `mapstructure:"fallback_attempts" validate:"gte=0,lte=64"`
	PageSize         string        `mapstructure:"page_size" validate:"oneof=a4 letter legal fit"`
	PageMargin       float64       `mapstructure:"page_margin" validate:"gte=0"`
}

// PresetConfig tunes the search for one document category.
type PresetConfig struct {
	QualityFloor float64 `mapstructure:"quality_floor" validate:"gte=0,lte=1"`
	MaxAttempts  int     `mapstructure:"max_attempts" validate:"gte=0,lte=100"`
	PageSize     string  `mapstructure:"page_size" validate:"omitempty,oneof=a4 letter legal fit"`
}

// BatchConfig contains directory processing settings
type BatchConfig struct {
	WorkerThreads   int    `mapstructure:"worker_threads" validate:"gte=0"`
	OutputDirectory string `mapstructure:"output_directory"`
	Suffix          string `mapstructure:"suffix"`
	DryRun          bool   `mapstructure:"dry_run"`
	MaxFilesPerRun  int    `mapstructure:"max_files_per_run" validate:"gte=0"`
	ShowProgress    bool   `mapstructure:"show_progress"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	logDefaults := logger.DefaultConfig()
	return &Config{
		Engine: EngineConfig{
			Tolerance:        0.10,
			AttemptTimeout:   30 * time.Second,
			ConvertQuality:   0.90,
			MinScale:         strategy.DefaultMinScale,
			MaxUpscale:       4.0,
			FallbackAttempts: 8,
			PageSize:         container.PageA4.Name,
			PageMargin:       container.DefaultMargin,
		},
		// Floors keep each document type legible; upstream exam schemas ask for
		// clear signatures and identity documents above all.
		Presets: map[string]PresetConfig{
			string(domain.CategoryPhoto):            {QualityFloor: 0.40},
			string(domain.CategorySignature):        {QualityFloor: 0.60},
			string(domain.CategoryThumbImpression):  {QualityFloor: 0.50},
			string(domain.CategoryIdentityDocument): {QualityFloor: 0.60, PageSize: container.PageA4.Name},
		},
		Batch: BatchConfig{
			WorkerThreads: 4,
			Suffix:        "_fit",
			ShowProgress:  true,
		},
		Logging: LoggingConfig{
			Level:      logDefaults.Level,
			FilePath:   logDefaults.FilePath,
			MaxSize:    logDefaults.MaxSize,
			MaxBackups: logDefaults.MaxBackups,
			MaxAge:     logDefaults.MaxAge,
			Compress:   logDefaults.Compress,
			Console:    logDefaults.Console,
		},
		SupportedExtensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".tiff", ".tif", ".bmp", ".webp", ".pdf",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config file in current directory and home directory
		v.SetConfigName("docfit")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.docfit")
		v.AddConfigPath("/etc/docfit")
	}

	// Enable environment variable support
	v.SetEnvPrefix("DOCFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Decoding a list over a non-empty slice overwrites it element by element
	// and keeps the default tail, so a configured list must start empty.
	if v.IsSet("supported_extensions") {
		config.SupportedExtensions = nil
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// bindEnv registers the scalar keys so AutomaticEnv can override them even
// when no config file mentions them.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"engine.tolerance", "engine.attempt_timeout", "engine.convert_quality",
		"engine.min_scale", "engine.max_upscale", "engine.fallback_attempts",
		"engine.page_size", "engine.page_margin",
		"batch.worker_threads", "batch.output_directory", "batch.suffix", "batch.dry_run",
		"logging.level", "logging.file_path", "logging.console",
	} {
		_ = v.BindEnv(key)
	}
}

var validate = validator.New()

// Validate normalises the configuration and checks it
func (c *Config) Validate() error {
	c.Engine.PageSize = strings.ToLower(strings.TrimSpace(c.Engine.PageSize))
	if c.Engine.PageSize == "" {
		c.Engine.PageSize = container.PageA4.Name
	}

	presets := make(map[string]PresetConfig, len(c.Presets))
	for name, p := range c.Presets {
		name = strings.ToLower(strings.TrimSpace(name))
		if !knownCategory(name) {
			return fmt.Errorf("unknown preset category: %s (valid: %s)", name, categoryList())
		}
		p.PageSize = strings.ToLower(strings.TrimSpace(p.PageSize))
		presets[name] = p
	}
	c.Presets = presets

	c.SupportedExtensions = normalizeExtensions(c.SupportedExtensions)

	if c.Batch.WorkerThreads <= 0 {
		c.Batch.WorkerThreads = 4
	}
	if c.Batch.Suffix == "" && c.Batch.OutputDirectory == "" {
		c.Batch.Suffix = "_fit"
	}

	if err := validate.Struct(c); err != nil {
		return err
	}

	// Validate logging settings
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}

// Snapshot builds the immutable engine options for one transform call. The
// returned value shares nothing with c.
func (c *Config) Snapshot() transform.Options {
	page, err := container.ParsePageSize(c.Engine.PageSize)
	if err != nil {
		page = container.PageA4
	}
	presets := make(map[domain.Category]strategy.Preset, len(c.Presets))
	for name, p := range c.Presets {
		presets[domain.Category(name)] = strategy.Preset{
			QualityFloor: p.QualityFloor,
			MaxAttempts:  p.MaxAttempts,
			PageSize:     p.PageSize,
		}
	}
	return transform.Options{
		Tolerance:        c.Engine.Tolerance,
		AttemptTimeout:   c.Engine.AttemptTimeout,
		ConvertQuality:   c.Engine.ConvertQuality,
		MinScale:         c.Engine.MinScale,
		MaxUpscale:       c.Engine.MaxUpscale,
		FallbackAttempts: c.Engine.FallbackAttempts,
		Page:             page,
		PageMargin:       c.Engine.PageMargin,
		Presets:          presets,
	}
}

// IsSupportedExtension checks if the extension is one the batch runner picks up
func (c *Config) IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, supportedExt := range c.SupportedExtensions {
		if ext == supportedExt {
			return true
		}
	}
	return false
}

// Helper functions

func knownCategory(name string) bool {
	for _, c := range domain.Categories() {
		if string(c) == name {
			return true
		}
	}
	return false
}

func categoryList() string {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, len(extensions))
	for i, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized[i] = ext
	}
	return normalized
}
