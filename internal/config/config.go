package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file looked up inside the data directory.
const FileName = "config.toml"

// Supported pack encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// Config holds application configuration.
type Config struct {
	// MediaDir is where uploads, builds and library archives live.
	// Empty means <data dir>/media.
	MediaDir string `toml:"media_dir,omitempty"`

	// Bind and Port control the HTTP listener for `studio serve`.
	Bind string `toml:"bind,omitempty"`
	Port int    `toml:"port,omitempty"`

	// LogLevel is one of debug, info, warn, error. LogFormat is console or json.
	LogLevel  string `toml:"log_level,omitempty"`
	LogFormat string `toml:"log_format,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `toml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `toml:"db_max_idle_conns,omitempty"`

	// PackEncoding is the encoding generated template files are written in.
	// "utf-8" (default) or "windows-1252".
	PackEncoding string `toml:"pack_encoding,omitempty"`

	// ConversionAsync hands conversions to a background worker pool instead of
	// running them inside the request that created the job.
	ConversionAsync     bool `toml:"conversion_async,omitempty"`
	ConversionWorkers   int  `toml:"conversion_workers,omitempty"`
	ConversionQueueSize int  `toml:"conversion_queue_size,omitempty"`

	// RateLimitRPS is the per-client request budget for the HTTP API.
	// Negative disables rate limiting.
	RateLimitRPS   float64 `toml:"rate_limit_rps,omitempty"`
	RateLimitBurst int     `toml:"rate_limit_burst,omitempty"`

	// MaxUploadBytes caps multipart uploads (images, logos, CSV files).
	MaxUploadBytes int64 `toml:"max_upload_bytes,omitempty"`

	// DefaultCurrency applies to expenses created without a currency.
	DefaultCurrency string `toml:"default_currency,omitempty"`

	// GeminiAPIKey enables model-backed text suggestions in the builder.
	GeminiAPIKey string `toml:"gemini_api_key,omitempty"`
	GeminiModel  string `toml:"gemini_model,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `toml:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bind:                "127.0.0.1",
		Port:                8080,
		LogLevel:            "info",
		LogFormat:           "console",
		PackEncoding:        EncodingUTF8,
		ConversionWorkers:   2,
		ConversionQueueSize: 32,
		RateLimitRPS:        20,
		RateLimitBurst:      40,
		MaxUploadBytes:      10 << 20,
		DefaultCurrency:     "EUR",
		GeminiModel:         "gemini-2.5-flash",
	}
}

// Load loads configuration from baseDir/config.toml, then applies STUDIO_*
// environment overrides. Returns defaults if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	fileCfg, err := loadFileRaw(filepath.Join(baseDir, FileName))
	if err != nil {
		return nil, err
	}
	cfg := Merge(DefaultConfig(), fileCfg)
	cfg = Merge(cfg, FromEnv())
	if cfg.MediaDir == "" {
		cfg.MediaDir = filepath.Join(baseDir, "media")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.PackEncoding) {
	case EncodingUTF8, EncodingWindows1252:
	default:
		return fmt.Errorf("pack_encoding: unsupported value %q", c.PackEncoding)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port: out of range: %d", c.Port)
	}
	if c.ConversionWorkers < 1 {
		return fmt.Errorf("conversion_workers: must be at least 1")
	}
	switch c.DefaultCurrency {
	case "EUR", "USD", "GBP":
	default:
		return fmt.Errorf("default_currency: unsupported value %q", c.DefaultCurrency)
	}
	return nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.MediaDir = pickString(overlay.MediaDir, base.MediaDir)
	result.Bind = pickString(overlay.Bind, base.Bind)
	result.LogLevel = pickString(overlay.LogLevel, base.LogLevel)
	result.LogFormat = pickString(overlay.LogFormat, base.LogFormat)
	result.PackEncoding = pickString(overlay.PackEncoding, base.PackEncoding)
	result.DefaultCurrency = pickString(overlay.DefaultCurrency, base.DefaultCurrency)
	result.GeminiAPIKey = pickString(overlay.GeminiAPIKey, base.GeminiAPIKey)
	result.GeminiModel = pickString(overlay.GeminiModel, base.GeminiModel)

	result.Port = pickInt(overlay.Port, base.Port)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.ConversionWorkers = pickInt(overlay.ConversionWorkers, base.ConversionWorkers)
	result.ConversionQueueSize = pickInt(overlay.ConversionQueueSize, base.ConversionQueueSize)
	result.RateLimitBurst = pickInt(overlay.RateLimitBurst, base.RateLimitBurst)

	result.RateLimitRPS = overlay.RateLimitRPS
	if result.RateLimitRPS == 0 {
		result.RateLimitRPS = base.RateLimitRPS
	}
	result.MaxUploadBytes = overlay.MaxUploadBytes
	if result.MaxUploadBytes == 0 {
		result.MaxUploadBytes = base.MaxUploadBytes
	}

	// Booleans: overlay wins if true, else base
	result.ConversionAsync = base.ConversionAsync || overlay.ConversionAsync

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
