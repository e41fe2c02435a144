package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaultsWhenNoFilePresent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test", EnvFile: ""})
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, ":8443", cfg.Server.ListenAddr)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL)
}

func TestLoad_ReadsEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yaml"), []byte("server:\n  listen_addr: \":9000\"\nstorage:\n  backend: postgres\n"), 0o644))

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "staging", EnvFile: ""})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
}

func TestSubstituteEnvVars_UsesDefaultWhenUnset(t *testing.T) {
	os.Unsetenv("WHISPER2_CONFIG_TEST_VAR")
	assert.Equal(t, "fallback", SubstituteEnvVars("${WHISPER2_CONFIG_TEST_VAR:fallback}"))

	t.Setenv("WHISPER2_CONFIG_TEST_VAR", "actual")
	assert.Equal(t, "actual", SubstituteEnvVars("${WHISPER2_CONFIG_TEST_VAR:fallback}"))
}

func TestApplyEnvironmentOverrides_TakesPrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.yaml"), []byte("server:\n  listen_addr: \":9000\"\n"), 0o644))
	t.Setenv("WHISPER2_LISTEN_ADDR", ":7777")

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "nonexistent-env", EnvFile: ""})
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.ListenAddr)
}
