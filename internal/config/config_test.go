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
	for _, k := range []string{
		"MOVIEDB_API_KEY", "TMDB_API_KEY", "MOVIEDB_ACCESS_TOKEN", "TMDB_ACCESS_TOKEN",
		"MOVIEDB_LANGUAGE", "MOVIEDB_RETRY_MAX", "MOVIEDB_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.toml")
	content := []byte("api_key = 'abc'\nlanguage = 'de-DE'\ntimeout = '3s'\nrps = 5.0\nburst = 2\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.APIKey)
	assert.Equal(t, "de-DE", cfg.Language)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 5.0, cfg.RPS)
	assert.Equal(t, 2, cfg.Burst)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOVIEDB_API_KEY", "envkey")
	t.Setenv("MOVIEDB_RETRY_MAX", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Equal(t, "envkey", cfg.APIKey)
	assert.Equal(t, 3, cfg.RetryMax)
	assert.Equal(t, DefaultPosterSize, cfg.PosterSize)
}

func TestLoadFallsBackToTMDBVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("TMDB_API_KEY", "tmdbkey")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tmdbkey", cfg.APIKey)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte("api_key = 'file'\nlanguage = 'fr-FR'\n"), 0o600))
	t.Setenv("MOVIEDB_LANGUAGE", "it-IT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.APIKey)
	assert.Equal(t, "it-IT", cfg.Language)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte("api_key = \n[[["), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveWritesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "cfg.toml")
	cfg := Default()
	cfg.APIKey = "abc"
	cfg.Region = "US"
	cfg.Timeout = 7 * time.Second
	require.NoError(t, Save(path, cfg))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveRequiresCredentials(t *testing.T) {
	assert.Error(t, Save("ignored", Config{}))
}

func TestDefaultPathUsesHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	assert.Equal(t, filepath.Join(dir, ".moviedb.toml"), DefaultPath())
}

func TestValidate(t *testing.T) {
	ok := Default()
	ok.APIKey = "k"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "token only", mutate: func(c *Config) { c.APIKey = ""; c.AccessToken = "t" }},
		{name: "no credentials", mutate: func(c *Config) { c.APIKey = "" }, wantErr: true},
		{name: "zero rps", mutate: func(c *Config) { c.RPS = 0 }, wantErr: true},
		{name: "zero burst", mutate: func(c *Config) { c.Burst = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.RetryMax = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ok
			tt.mutate(&c)
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}
