// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for comply configuration and state.
	DefaultConfigDir = ".comply"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Ledger  LedgerConfig  `yaml:"ledger"`
	RunLog  RunLogConfig  `yaml:"runlog,omitempty"`
	GitHub  GitHubConfig  `yaml:"github,omitempty"`
	Google  GoogleConfig  `yaml:"google,omitempty"`
	LLM     LLMConfig     `yaml:"llm,omitempty"`
	Archive ArchiveConfig `yaml:"archive,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
	Rollup  RollupConfig  `yaml:"rollup,omitempty"`
}

// LedgerConfig holds configuration for the file-backed evidence ledger.
type LedgerConfig struct {
	// Path is the ledger root. Relative paths resolve against the project directory.
	Path          string `yaml:"path" validate:"required"`
	RetentionDays int    `yaml:"retention_days,omitempty" validate:"gte=0"`
}

// RunLogConfig holds configuration for the SQLite check-run log.
type RunLogConfig struct {
	// Path is the SQLite database file. Empty disables the run log.
	Path string `yaml:"path,omitempty"`
}

// GitHubConfig holds configuration for the source-control provider.
type GitHubConfig struct {
	Token             string        `yaml:"token,omitempty"`
	BaseURL           string        `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Organization      string        `yaml:"organization,omitempty"`
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty" validate:"gte=0"`
	Timeout           time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
}

// GoogleConfig holds configuration for the identity provider.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	// AdminEmail is the super admin the service account impersonates.
	AdminEmail string `yaml:"admin_email,omitempty" validate:"omitempty,email"`
	Customer   string `yaml:"customer,omitempty"`
	Domain     string `yaml:"domain,omitempty"`
}

// LLMConfig holds configuration for the remediation advisor.
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty" validate:"omitempty,oneof=openai"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty" validate:"omitempty,url"`
}

// ArchiveConfig holds configuration for archiving pruned evidence to Cloud Storage.
type ArchiveConfig struct {
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// MetricsConfig holds configuration for metrics export.
type MetricsConfig struct {
	// Textfile is a node-exporter textfile collector path. Empty disables export.
	Textfile string `yaml:"textfile,omitempty"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// RollupConfig holds defaults for organization rollups.
type RollupConfig struct {
	MaxRepositories int  `yaml:"max_repositories,omitempty" validate:"gte=0,lte=100"`
	IncludeArchived bool `yaml:"include_archived,omitempty"`
}

// GitHubEnabled reports whether a source-control token is configured.
func (c *Config) GitHubEnabled() bool { return c.GitHub.Token != "" }

// GoogleEnabled reports whether identity provider credentials are configured.
func (c *Config) GoogleEnabled() bool {
	return c.Google.CredentialsFile != "" && c.Google.AdminEmail != ""
}

// ArchiveEnabled reports whether an archive bucket is configured.
func (c *Config) ArchiveEnabled() bool { return c.Archive.Bucket != "" }

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Path:          filepath.Join(DefaultConfigDir, "evidence"),
			RetentionDays: 365,
		},
		RunLog: RunLogConfig{
			Path: filepath.Join(DefaultConfigDir, "runs.db"),
		},
		GitHub: GitHubConfig{
			BaseURL:           "https://api.github.com",
			RequestsPerSecond: 10,
			Timeout:           30 * time.Second,
		},
		Google: GoogleConfig{
			Customer: "my_customer",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Archive: ArchiveConfig{
			Prefix: "evidence-archive",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Rollup: RollupConfig{
			MaxRepositories: 10,
		},
	}
}

// Load loads configuration from the .comply directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'comply init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(basePath, data)
}

// Parse decodes YAML over the defaults, applies environment overrides,
// resolves relative paths against basePath and validates the result.
func Parse(basePath string, data []byte) (*Config, error) {
	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.resolvePaths(basePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" && c.GitHub.Token == "" {
		c.GitHub.Token = token
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		if c.Google.CredentialsFile == "" {
			c.Google.CredentialsFile = creds
		}
		if c.Archive.CredentialsFile == "" {
			c.Archive.CredentialsFile = creds
		}
	}
	if admin := os.Getenv("GOOGLE_ADMIN_EMAIL"); admin != "" && c.Google.AdminEmail == "" {
		c.Google.AdminEmail = admin
	}
}

// resolvePaths makes local file paths absolute relative to basePath.
func (c *Config) resolvePaths(basePath string) {
	for _, p := range []*string{&c.Ledger.Path, &c.RunLog.Path, &c.Metrics.Textfile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(basePath, *p)
		}
	}
}

// ConfigDir returns the path to the .comply config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}
