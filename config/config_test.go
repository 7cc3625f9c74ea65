package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/content-builder/config"
)

// inEmptyDir runs the test from a fresh directory so stray .env or config
// files in the package directory cannot leak in.
func inEmptyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	inEmptyDir(t)
	for _, env := range []string{"STORE_BACKEND", "DATA_DIR", "DATABASE_URL", "HOST", "PORT",
		"ALLOWED_ORIGINS", "LOG_MODE", "LOG_LEVEL", "EXPORT_DIR", "EXPORT_SCHEDULE",
		"OPENAI_API_KEY", "OPENAI_MODEL"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Store.Backend)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, "0.0.0.0:5001", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:5010", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "dev", cfg.Log.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "./exports", cfg.Export.Dir)
	assert.Empty(t, cfg.Export.Schedule)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Empty(t, cfg.ConfigFile)
}

func TestEnvironmentOverrides(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("STORE_BACKEND", " Postgres ")
	t.Setenv("DATABASE_URL", "postgres://localhost/content")
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("EXPORT_SCHEDULE", "@daily")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/content", cfg.Store.DSN)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "@daily", cfg.Export.Schedule)
}

func TestEnvFiles(t *testing.T) {
	dir := inEmptyDir(t)
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")
	t.Setenv("OPENAI_MODEL", "")
	os.Unsetenv("OPENAI_MODEL")
	t.Setenv("OPENAI_API_KEY", "from-env")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("LOG_LEVEL=debug\nOPENAI_MODEL=base\nOPENAI_API_KEY=from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"),
		[]byte("OPENAI_MODEL=local\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("OPENAI_MODEL")
	})

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "local", cfg.OpenAI.Model)
	assert.Equal(t, "from-env", cfg.OpenAI.APIKey)
}

func TestConfigFile(t *testing.T) {
	dir := inEmptyDir(t)
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("ALLOWED_ORIGINS", "")
	os.Unsetenv("ALLOWED_ORIGINS")
	yaml := `
store:
  backend: sqlite
  data_dir: /var/lib/content
server:
  port: 9000
  allowed_origins:
    - https://one.example
    - https://two.example
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "content-builder.yaml"), []byte(yaml), 0o600))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/var/lib/content", cfg.Store.DataDir)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://one.example", "https://two.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, filepath.Join(dir, "content-builder.yaml"), cfg.ConfigFile)
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	dir := inEmptyDir(t)
	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFlagsWin(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("PORT", "8080")
	v := viper.New()
	require.NoError(t, config.Setup(v, ""))
	v.Set("server.port", 7000)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestInvalidPort(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("PORT", "70000")
	_, err := config.Load("")
	assert.Error(t, err)
}
