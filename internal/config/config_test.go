package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.True(t, cfg.JSS.VerifySSL)
	assert.Equal(t, 3, cfg.JSS.MaxRetries)
	assert.Equal(t, "8080", cfg.Server.HTTP.Port)
	assert.Equal(t, "10.12.6", cfg.Service.Compliance.Minimum)
	assert.Len(t, cfg.Service.Rules, 3)
	assert.Equal(t, "jss-tools.db", cfg.Report.Path)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvURL, "https://jss.example.com:8443")
	t.Setenv(EnvUser, "api")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvVerifySSL, "false")
	t.Setenv(EnvReport, "")

	cfg := Defaults()
	require.NoError(t, applyEnv(cfg))
	assert.Equal(t, "https://jss.example.com:8443", cfg.JSS.URL)
	assert.Equal(t, "api", cfg.JSS.Username)
	assert.Equal(t, "secret", cfg.JSS.Password)
	assert.False(t, cfg.JSS.VerifySSL)
	assert.Empty(t, cfg.Report.Path)
	require.NoError(t, cfg.JSS.Validate())
}

func TestApplyEnvBadBool(t *testing.T) {
	t.Setenv(EnvVerifySSL, "sometimes")
	assert.Error(t, applyEnv(Defaults()))
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JSS_USER=from-file\n"), 0o600))

	t.Setenv(EnvUser, "")
	require.NoError(t, os.Unsetenv(EnvUser))
	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(EnvUser))
}

func TestApplyEnvPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  minimum: 10.14.6\n"), 0o600))
	t.Setenv(EnvPolicy, path)

	cfg := Defaults()
	require.NoError(t, applyEnv(cfg))
	assert.Equal(t, "10.14.6", cfg.Service.Compliance.Minimum)
	assert.Len(t, cfg.Service.Rules, 3)

	t.Setenv(EnvPolicy, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, applyEnv(Defaults()))
}
