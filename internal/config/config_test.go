package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8090", cfg.Server.Addr)
	assert.Equal(t, 32, cfg.Pipeline.MaxHops)
	assert.Equal(t, 0.35, cfg.Matching.TitleWeight)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hireloop.yaml")
	raw := `
server:
  addr: ":9999"
pipeline:
  max_hops: 8
scraper:
  companies:
    - slug: acme
      name: Acme
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Pipeline.MaxHops)
	assert.Equal(t, "json", cfg.Log.Format)
	require.Len(t, cfg.Scraper.Companies, 1)
	assert.Equal(t, "acme", cfg.Scraper.Companies[0].Slug)

	// untouched sections keep their defaults
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, "hireloop.db", cfg.Database.Path)
	assert.Equal(t, float64(2), cfg.Scraper.RequestsPerSecond)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

type fakeSettings struct {
	m map[string]string
}

func (f *fakeSettings) GetSetting(_ context.Context, key string) (string, error) {
	return f.m[key], nil
}

func (f *fakeSettings) SaveSetting(_ context.Context, key, value string) error {
	f.m[key] = value
	return nil
}

func testSecrets(t *testing.T) (*Secrets, *fakeSettings) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("HIRELOOP_SECRET_KEY", "unit-test-master-key")

	sk, err := NewSecretKey()
	require.NoError(t, err)

	repo := &fakeSettings{m: map[string]string{}}
	return NewSecrets(testLogger(), repo, sk), repo
}

func TestSecretsRoundTrip(t *testing.T) {
	s, repo := testSecrets(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "gemini_api_key", "sk-live-1234"))

	// settings copy is encrypted at rest
	stored := repo.m["secret.gemini_api_key"]
	require.NotEmpty(t, stored)
	assert.NotContains(t, stored, "sk-live-1234")

	got, err := s.Get(ctx, "gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-live-1234", got)
}

func TestSecretsEnvFallback(t *testing.T) {
	s, _ := testSecrets(t)
	t.Setenv("HIRELOOP_GEMINI_API_KEY", "sk-from-env")

	got, err := s.Get(context.Background(), "gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", got)
}

func TestSecretsMissingIsEmpty(t *testing.T) {
	s, _ := testSecrets(t)

	got, err := s.Get(context.Background(), "unset_key")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSecretsRejectsEmptyNameOrValue(t *testing.T) {
	s, _ := testSecrets(t)
	ctx := context.Background()

	assert.Error(t, s.Set(ctx, "", "value"))
	assert.Error(t, s.Set(ctx, "name", "  "))
	_, err := s.Get(ctx, "")
	assert.Error(t, err)
}
