// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables consulted for the catalog connection string, in order.
const (
	EnvDirectURL   = "DIRECT_URL"
	EnvDatabaseURL = "DATABASE_URL"
)

// Config represents the run configuration that can be loaded from a JSON file.
// All fields are optional in the file; missing values come from CLI flags, defaults or the environment.
type Config struct {
	// Store
	DatabaseURL string `json:"database_url,omitempty" validate:"required"` // PostgreSQL URL or SQLite path

	// Selection of work
	Limit  int  `json:"limit,omitempty" validate:"gte=0"` // Max items to search; 0 means all
	Reset  bool `json:"reset,omitempty"`                  // Clear every image before the run
	DryRun bool `json:"dry_run,omitempty"`                // Compute everything, write nothing

	// Dispatcher
	Workers   int `json:"workers,omitempty" validate:"gte=1,lte=32"`
	BatchSize int `json:"batch_size,omitempty" validate:"gte=1,lte=1000"`
	DelayMS   int `json:"delay_ms,omitempty" validate:"gte=0"`  // Courtesy delay before each search
	JitterMS  int `json:"jitter_ms,omitempty" validate:"gte=0"` // Random extra delay, [0, jitter)

	// Normalizer
	Mode        string `json:"mode,omitempty" validate:"oneof=terse precision"`
	ProfilePath string `json:"profile,omitempty"` // Optional normalizer profile JSON

	// Search
	QuerySuffix      string   `json:"query_suffix,omitempty"`
	MaxResults       int      `json:"max_results,omitempty" validate:"gte=3,lte=5"`
	Region           string   `json:"region,omitempty" validate:"required"`
	SafeSearch       string   `json:"safe_search,omitempty" validate:"oneof=strict moderate off"`
	PreferredDomains []string `json:"preferred_domains,omitempty" validate:"dive,required"`
	MinWidth         int      `json:"min_width,omitempty" validate:"gte=0"`
	MinHeight        int      `json:"min_height,omitempty" validate:"gte=0"`
	RetryAttempts    int      `json:"retry_attempts,omitempty" validate:"gte=1,lte=10"`
	RetryBackoffMS   int      `json:"retry_backoff_ms,omitempty" validate:"gte=0"`
	RequestTimeoutMS int      `json:"request_timeout_ms,omitempty" validate:"gte=100"`
	RateLimit        float64  `json:"rate_limit,omitempty" validate:"gte=0"` // Provider requests per second; 0 disables
	UseBrowser       bool     `json:"use_browser,omitempty"`                 // Render the token page with a headless browser when needed
	BrowserTimeoutMS int      `json:"browser_timeout_ms,omitempty" validate:"gte=0"`

	// Output
	LogPath   string `json:"log,omitempty" validate:"required"`
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=json parquet"`
	Verbose   bool   `json:"verbose,omitempty"` // Print debug logs
}

// Defaults returns the values used for anything not set by the file or flags.
func Defaults() Config {
	return Config{
		Workers:          4,
		BatchSize:        50,
		DelayMS:          1500,
		Mode:             "terse",
		QuerySuffix:      "medicamento farmacia mexico",
		MaxResults:       5,
		Region:           "mx-es",
		SafeSearch:       "moderate",
		MinWidth:         200,
		MinHeight:        200,
		RetryAttempts:    2,
		RetryBackoffMS:   2000,
		RequestTimeoutMS: 10000,
		RateLimit:        1,
		BrowserTimeoutMS: 30000,
		LogPath:          "scraper_results.json",
	}
}

// LoadConfig loads configuration from a JSON file on top of Defaults, so keys present
// in the file win even when they hold a zero value.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, &Error{Message: "config path is empty"}
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to read config file %s", path), Cause: err}
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{Message: "failed to parse config JSON", Cause: err}
	}

	return &cfg, nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
// Only fields whose zero value is invalid are filled; delay, jitter, backoff, minimum
// image size and rate limit keep an explicit zero.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Mode == "" {
		result.Mode = defaults.Mode
	}
	if result.ProfilePath == "" {
		result.ProfilePath = defaults.ProfilePath
	}
	if result.QuerySuffix == "" {
		result.QuerySuffix = defaults.QuerySuffix
	}
	if result.Region == "" {
		result.Region = defaults.Region
	}
	if result.SafeSearch == "" {
		result.SafeSearch = defaults.SafeSearch
	}
	if result.LogPath == "" {
		result.LogPath = defaults.LogPath
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if len(result.PreferredDomains) == 0 {
		result.PreferredDomains = defaults.PreferredDomains
	}

	// Int fields: use default if zero
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	if result.MaxResults == 0 {
		result.MaxResults = defaults.MaxResults
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = defaults.RetryAttempts
	}
	if result.RequestTimeoutMS == 0 {
		result.RequestTimeoutMS = defaults.RequestTimeoutMS
	}
	if result.BrowserTimeoutMS == 0 {
		result.BrowserTimeoutMS = defaults.BrowserTimeoutMS
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	// The default log name is JSON; keep the extension in step with a parquet format.
	if result.LogFormat == "parquet" && strings.EqualFold(filepath.Ext(result.LogPath), ".json") {
		result.LogPath = strings.TrimSuffix(result.LogPath, filepath.Ext(result.LogPath)) + ".parquet"
	}

	return result
}

// ApplyEnv fills DatabaseURL from DIRECT_URL, then DATABASE_URL, when it is still empty.
func (c *Config) ApplyEnv(lookup func(string) string) {
	if c.DatabaseURL != "" || lookup == nil {
		return
	}
	for _, key := range []string{EnvDirectURL, EnvDatabaseURL} {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			c.DatabaseURL = v
			return
		}
	}
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &Error{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed '%s' check (value: %v)", fe.Tag(), fe.Value()),
			}
		}
		return &Error{Message: "invalid configuration", Cause: err}
	}

	if c.DatabaseURL != "" && strings.TrimSpace(c.DatabaseURL) == "" {
		return &Error{Field: "database_url", Message: "must not be blank"}
	}

	// Validate file paths exist (if specified)
	if c.ProfilePath != "" {
		if _, err := os.Stat(c.ProfilePath); os.IsNotExist(err) {
			return &Error{Field: "profile", Message: fmt.Sprintf("profile file not found: %s", c.ProfilePath)}
		}
	}

	return nil
}

// Duration accessors.

func (c *Config) Delay() time.Duration          { return ms(c.DelayMS) }
func (c *Config) Jitter() time.Duration         { return ms(c.JitterMS) }
func (c *Config) RetryBackoff() time.Duration   { return ms(c.RetryBackoffMS) }
func (c *Config) RequestTimeout() time.Duration { return ms(c.RequestTimeoutMS) }
func (c *Config) BrowserTimeout() time.Duration { return ms(c.BrowserTimeoutMS) }

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
