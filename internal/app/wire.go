package app

import (
	"context"
	"os"

	"tokenkeeper/internal/adapters/filesystem"
	"tokenkeeper/internal/adapters/git"
	"tokenkeeper/internal/adapters/keyring"
	"tokenkeeper/internal/adapters/terminal"
	"tokenkeeper/internal/logging"
	"tokenkeeper/internal/metrics"
	"tokenkeeper/internal/services/config"
	"tokenkeeper/internal/ui"
)

// NewAppWithConfig creates a new App with the given configuration, wiring all dependencies.
func NewAppWithConfig(ctx context.Context, cfg *Config) (*App, error) {
	// Create logger.
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	// Create filesystem adapter.
	fs := filesystem.New()

	// Create config services.
	configProvider := config.NewProvider(fs)
	configPath := cfg.ConfigPath
	if configPath == "" {
		var err error
		configPath, err = configProvider.GetConfigPath()
		if err != nil {
			return nil, err
		}
	}
	configRepo := config.NewRepository(fs, configPath, logger)

	// Create password reader for token prompts.
	passwordReader := terminal.NewAdapter(os.Stdin, os.Stderr)

	logger.DebugContext(ctx, "Initializing tokenkeeper with configuration",
		"logLevel", cfg.LogLevel.String(),
		"verbose", cfg.Verbose,
		"configPath", configPath,
		"rateLimit", cfg.RateLimit)

	return &App{
		ConfigRepo:           configRepo,
		GitLabServiceFactory: NewGitLabServiceFactory(logger, cfg.RateLimit, cfg.RateBurst),
		FileSystem:           fs,
		CredentialStore:      keyring.New(),
		RemoteInspector:      git.NewInspector(""),
		PasswordReader:       passwordReader,
		Getenv:               os.Getenv,
		Metrics:              metrics.NewRecorder(),
		UI:                   ui.New(cfg.ColorMode),
		Logger:               logger,
		Config:               cfg,
	}, nil
}
