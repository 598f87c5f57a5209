package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GITHUB_TOKEN", "OPENAI_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_ADMIN_EMAIL"} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, filepath.Join(".comply", "evidence"), cfg.Ledger.Path)
	assert.Equal(t, 365, cfg.Ledger.RetentionDays)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.BaseURL)
	assert.Equal(t, 10, cfg.Rollup.MaxRepositories)
	assert.Equal(t, "my_customer", cfg.Google.Customer)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".comply", "evidence"), cfg.Ledger.Path)
	assert.Equal(t, filepath.Join(dir, ".comply", "runs.db"), cfg.RunLog.Path)
	assert.Equal(t, 30*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.GitHubEnabled())
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comply init")
}

func TestParse_Overrides(t *testing.T) {
	clearEnv(t)
	data := []byte(`
ledger:
  path: /var/lib/comply
github:
  organization: acme
  timeout: 5s
archive:
  bucket: audit-archive
`)

	cfg, err := Parse("/project", data)

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/comply", cfg.Ledger.Path)
	assert.Equal(t, 365, cfg.Ledger.RetentionDays)
	assert.Equal(t, "acme", cfg.GitHub.Organization)
	assert.Equal(t, 5*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.BaseURL)
	assert.True(t, cfg.ArchiveEnabled())
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_env")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")
	t.Setenv("GOOGLE_ADMIN_EMAIL", "admin@example.com")

	cfg, err := Parse("/project", []byte("github:\n  token: ghp_file\n"))

	require.NoError(t, err)
	assert.Equal(t, "ghp_file", cfg.GitHub.Token, "file value wins over env")
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "/secrets/sa.json", cfg.Google.CredentialsFile)
	assert.Equal(t, "/secrets/sa.json", cfg.Archive.CredentialsFile)
	assert.True(t, cfg.GoogleEnabled())
}

func TestParse_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{name: "malformed yaml", input: "ledger: [", errMsg: "parsing config file"},
		{name: "empty ledger path", input: "ledger:\n  path: \"\"\n", errMsg: "Ledger.Path"},
		{name: "negative retention", input: "ledger:\n  retention_days: -1\n", errMsg: "RetentionDays"},
		{name: "unknown log level", input: "log:\n  level: verbose\n", errMsg: "Log.Level"},
		{name: "rollup above ceiling", input: "rollup:\n  max_repositories: 500\n", errMsg: "MaxRepositories"},
		{name: "bad admin email", input: "google:\n  admin_email: not-an-email\n", errMsg: "AdminEmail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("/project", []byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))

	err := WriteDefault(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWrite(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg := Default()
	cfg.GitHub.Organization = "acme"

	require.NoError(t, Write(dir, cfg))

	data, err := os.ReadFile(ConfigFilePath(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), "organization: acme")

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "acme", loaded.GitHub.Organization)
	assert.Equal(t, 30*time.Second, loaded.GitHub.Timeout)
}
