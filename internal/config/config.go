// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/viewlens/internal/classifier"
)

// EnvPrefix is the prefix of every environment variable override, for example
// VIEWLENS_CANVAS_VIEWPORT_WIDTH.
const EnvPrefix = "VIEWLENS"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Parser() ParserConfig
	Classifier() ClassifierConfig
	Canvas() CanvasConfig
	Selection() SelectionConfig
	Catalog() CatalogConfig
	Session() SessionConfig

	// Catalog Setters
	SetCatalogFullyHidden(bool)
	SetCatalogPageSize(int)

	// Parser Setters
	SetParserIncludeNonClickable(bool)

	// Classifier Setters
	SetClassifierKeywordFile(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	ParserCfg     ParserConfig     `mapstructure:"parser" yaml:"parser"`
	ClassifierCfg ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	CanvasCfg     CanvasConfig     `mapstructure:"canvas" yaml:"canvas"`
	SelectionCfg  SelectionConfig  `mapstructure:"selection" yaml:"selection"`
	CatalogCfg    CatalogConfig    `mapstructure:"catalog" yaml:"catalog"`
	SessionCfg    SessionConfig    `mapstructure:"session" yaml:"session"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Parser() ParserConfig         { return c.ParserCfg }
func (c *Config) Classifier() ClassifierConfig { return c.ClassifierCfg }
func (c *Config) Canvas() CanvasConfig         { return c.CanvasCfg }
func (c *Config) Selection() SelectionConfig   { return c.SelectionCfg }
func (c *Config) Catalog() CatalogConfig       { return c.CatalogCfg }
func (c *Config) Session() SessionConfig       { return c.SessionCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetCatalogFullyHidden(b bool) { c.CatalogCfg.FullyHidden = b }
func (c *Config) SetCatalogPageSize(n int)     { c.CatalogCfg.PageSize = n }

func (c *Config) SetParserIncludeNonClickable(b bool) { c.ParserCfg.IncludeNonClickable = b }

func (c *Config) SetClassifierKeywordFile(path string) { c.ClassifierCfg.KeywordFile = path }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ParserConfig tunes the survival filter of the hierarchy parser.
type ParserConfig struct {
	IncludeNonClickable bool `mapstructure:"include_non_clickable" yaml:"include_non_clickable"`
}

// ClassifierConfig selects the keyword vocabulary. KeywordFile, when set,
// is a YAML keyword table; Keywords are inline overrides from the main config.
// Both are merged over the built-in table, file first.
type ClassifierConfig struct {
	KeywordFile string                  `mapstructure:"keyword_file" yaml:"keyword_file"`
	Keywords    classifier.KeywordTable `mapstructure:"keywords" yaml:"keywords"`
}

// CanvasConfig is the preview canvas budget.
type CanvasConfig struct {
	ViewportWidth  float64 `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight float64 `mapstructure:"viewport_height" yaml:"viewport_height"`
	MinScale       float64 `mapstructure:"min_scale" yaml:"min_scale"`
	MaxScale       float64 `mapstructure:"max_scale" yaml:"max_scale"`
}

// SelectionConfig configures the interaction controller.
type SelectionConfig struct {
	AutoRestore time.Duration `mapstructure:"auto_restore" yaml:"auto_restore"`
	HoverDelay  time.Duration `mapstructure:"hover_delay" yaml:"hover_delay"`
}

// CatalogConfig holds the default list view.
type CatalogConfig struct {
	PageSize    int    `mapstructure:"page_size" yaml:"page_size"`
	FullyHidden bool   `mapstructure:"fully_hidden" yaml:"fully_hidden"`
	SortBy      string `mapstructure:"sort_by" yaml:"sort_by"`
}

// SessionConfig sizes the inspector session internals.
type SessionConfig struct {
	// CacheSize is the number of parsed snapshots kept, keyed by content hash.
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
	// BusBufferSize is the per-subscriber buffer of the event bus.
	BusBufferSize int `mapstructure:"bus_buffer_size" yaml:"bus_buffer_size"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "viewlens")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)

	// -- Parser --
	v.SetDefault("parser.include_non_clickable", false)

	// -- Classifier --
	v.SetDefault("classifier.keyword_file", "")

	// -- Canvas --
	v.SetDefault("canvas.viewport_width", 380.0)
	v.SetDefault("canvas.viewport_height", 550.0)
	v.SetDefault("canvas.min_scale", 0.2)
	v.SetDefault("canvas.max_scale", 2.0)

	// -- Selection --
	v.SetDefault("selection.auto_restore", "60s")
	v.SetDefault("selection.hover_delay", "0s")

	// -- Catalog --
	v.SetDefault("catalog.page_size", 50)
	v.SetDefault("catalog.fully_hidden", false)
	v.SetDefault("catalog.sort_by", "")

	// -- Session --
	v.SetDefault("session.cache_size", 16)
	v.SetDefault("session.bus_buffer_size", 16)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.CanvasCfg.Validate(); err != nil {
		return fmt.Errorf("canvas configuration invalid: %w", err)
	}
	if c.SelectionCfg.AutoRestore <= 0 {
		return fmt.Errorf("selection.auto_restore must be a positive duration")
	}
	if c.SelectionCfg.HoverDelay < 0 {
		return fmt.Errorf("selection.hover_delay must not be negative")
	}
	if c.CatalogCfg.PageSize < 0 {
		return fmt.Errorf("catalog.page_size must not be negative")
	}
	if c.SessionCfg.CacheSize <= 0 {
		return fmt.Errorf("session.cache_size must be a positive integer")
	}
	if err := c.ClassifierCfg.Keywords.Validate(); err != nil {
		return fmt.Errorf("classifier.keywords: %w", err)
	}
	return nil
}

// Validate checks the canvas budget.
func (c *CanvasConfig) Validate() error {
	if c.ViewportWidth <= 0 {
		return fmt.Errorf("viewport_width must be positive")
	}
	if c.ViewportHeight < 0 {
		return fmt.Errorf("viewport_height must not be negative")
	}
	if c.MinScale <= 0 || c.MaxScale <= 0 {
		return fmt.Errorf("min_scale and max_scale must be positive")
	}
	if c.MinScale > c.MaxScale {
		return fmt.Errorf("min_scale must not exceed max_scale")
	}
	return nil
}

// KeywordTable resolves the effective classifier vocabulary: the built-in
// table, then the keyword file, then inline overrides.
func (c ClassifierConfig) KeywordTable() (*classifier.KeywordTable, error) {
	table := classifier.DefaultKeywordTable()
	if c.KeywordFile != "" {
		fromFile, err := classifier.LoadKeywordTable(c.KeywordFile)
		if err != nil {
			return nil, err
		}
		table = fromFile
	}
	table = table.Merge(&c.Keywords)
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// BindEnv enables VIEWLENS_* environment overrides for every key, with dots
// replaced by underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
