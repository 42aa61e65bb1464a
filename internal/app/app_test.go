package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/logging"
)

func TestNewApp_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	a, err := NewApp(context.Background(), WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, a.Config.LogLevel)
	assert.Equal(t, logging.FormatText, a.Config.LogFormat)
	assert.Equal(t, path, a.ConfigRepo.Path())

	factory, ok := a.GitLabServiceFactory.(*GitLabServiceFactory)
	require.True(t, ok)
	assert.Zero(t, factory.rateLimit)
}

func TestNewApp_Options(t *testing.T) {
	a, err := NewApp(context.Background(),
		WithConfigPath(filepath.Join(t.TempDir(), "config.yaml")),
		WithLogLevel(slog.LevelWarn),
		WithRateLimit(3, 6),
	)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelWarn, a.Config.LogLevel)
	assert.False(t, a.Logger.Enabled(context.Background(), slog.LevelInfo))

	factory, ok := a.GitLabServiceFactory.(*GitLabServiceFactory)
	require.True(t, ok)
	assert.InDelta(t, 3.0, factory.rateLimit, 0)
	assert.Equal(t, 6, factory.rateBurst)
}

func TestWithVerbose_OverridesLevel(t *testing.T) {
	cfg := &Config{}
	WithLogLevel(slog.LevelError)(cfg)
	WithVerbose(true)(cfg)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestGitLabServiceFactory_CreateServices(t *testing.T) {
	factory := NewGitLabServiceFactory(logging.NewTestLogger(), 5, 0)
	assert.Equal(t, 1, factory.rateBurst)

	services := factory.CreateServices(domain.Environment{Host: "gitlab.example.com", Credential: "glpat-x"}, false)
	assert.NotNil(t, services.Tokens)
	assert.NotNil(t, services.Variables)
	assert.NotNil(t, services.Permissions)
	assert.NotNil(t, services.Leases)
}
