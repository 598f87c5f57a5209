package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Comply-Core Configuration

ledger:
  path: .comply/evidence
  retention_days: 365

runlog:
  path: .comply/runs.db

github:
  base_url: https://api.github.com
  # organization: your-org
  requests_per_second: 10
  timeout: 30s
  # token: ghp_... (or set GITHUB_TOKEN env var)

google:
  customer: my_customer
  # credentials_file: service-account.json (or set GOOGLE_APPLICATION_CREDENTIALS)
  # admin_email: admin@example.com (or set GOOGLE_ADMIN_EMAIL)

llm:
  provider: openai
  model: gpt-4o-mini
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

archive:
  prefix: evidence-archive
  # bucket: your-bucket (records are archived here before prune)

# metrics:
#   textfile: /var/lib/node_exporter/textfile/comply.prom

log:
  level: info
  format: text

rollup:
  max_repositories: 10
  include_archived: false
`

// WriteDefault creates the .comply directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := ConfigDir(basePath)
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Exists checks if a comply config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
