package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "http://localhost:5000", cfg.BaseURL)
	assert.Equal(t, RuntimeDisabled, cfg.OnDevice.Runtime)
	assert.Zero(t, cfg.RequestTimeout())
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.BaseURL = "https://nyra.example.com"
	cfg.OnDevice.Runtime = RuntimeOllama
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base_url":"http://10.0.0.5:5000"}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:5000", cfg.BaseURL)
	assert.Equal(t, DefaultOllamaModel, cfg.OnDevice.Model)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestYAMLConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "base_url: https://nyra.example.com\non_device:\n  runtime: echo\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://nyra.example.com", cfg.BaseURL)
	assert.Equal(t, RuntimeEcho, cfg.OnDevice.Runtime)
	assert.Equal(t, DefaultOllamaModel, cfg.OnDevice.Model)

	cfg.PersistInteractions = true
	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestYAMLConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("base_urll: http://typo\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvBaseURL:             "http://backend:8080",
		EnvLogLevel:            "debug",
		EnvRequestTimeout:      "15",
		EnvOnDevice:            "Ollama",
		EnvOnDeviceModel:       "phi3",
		EnvPersistInteractions: "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080", cfg.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout())
	assert.Equal(t, RuntimeOllama, cfg.OnDevice.Runtime)
	assert.Equal(t, "phi3", cfg.OnDevice.Model)
	assert.Equal(t, DefaultOllamaURL, cfg.OnDevice.URL)
	assert.True(t, cfg.PersistInteractions)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsMalformedValues(t *testing.T) {
	assert.ErrorIs(t, Default().ApplyEnv(envMap(map[string]string{EnvRequestTimeout: "soon"})), ErrInvalid)
	assert.ErrorIs(t, Default().ApplyEnv(envMap(map[string]string{EnvPersistInteractions: "maybe"})), ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"relative url", func(c *Config) { c.BaseURL = "/api" }, false},
		{"ftp url", func(c *Config) { c.BaseURL = "ftp://host" }, false},
		{"negative timeout", func(c *Config) { c.RequestTimeoutSeconds = -1 }, false},
		{"unknown runtime", func(c *Config) { c.OnDevice.Runtime = "webgpu" }, false},
		{"echo runtime", func(c *Config) { c.OnDevice.Runtime = RuntimeEcho }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestPathsIn(t *testing.T) {
	dir := t.TempDir()
	p := PathsIn(dir)
	require.NoError(t, p.EnsureDirectories())

	assert.Equal(t, filepath.Join(dir, "client_id"), p.ClientIDFile)
	assert.DirExists(t, p.LogsDir)
	assert.DirExists(t, p.ChatsDir)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NYRA_TEST_DOTENV_VALUE=from-file\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("NYRA_TEST_DOTENV_VALUE") })

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("NYRA_TEST_DOTENV_VALUE"))
}
