package app

import (
	"context"
	"log/slog"

	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/logging"
	"tokenkeeper/internal/metrics"
	"tokenkeeper/internal/services/config"
	"tokenkeeper/internal/ui"
)

// App contains all application dependencies.
type App struct {
	// Configuration file handling
	ConfigRepo *config.Repository

	// Factories for creating services on-demand
	GitLabServiceFactory domain.GitLabServiceFactory

	// Local collaborators
	FileSystem      domain.FileSystemAdapter
	CredentialStore domain.CredentialStore
	RemoteInspector domain.RemoteInspector
	PasswordReader  domain.PasswordReader
	Getenv          func(string) string

	// Output
	Metrics *metrics.Recorder
	UI      *ui.UI
	Logger  *slog.Logger

	// Configuration
	Config *Config
}

// Config holds application configuration.
type Config struct {
	LogLevel   slog.Level
	LogFormat  logging.Format
	Verbose    bool
	ColorMode  ui.ColorMode
	ConfigPath string

	// GitLab API request rate; zero keeps the adapter default.
	RateLimit float64
	RateBurst int
}

// Option is a functional option for configuring the App.
type Option func(*Config)

// WithLogLevel sets the logging level.
func WithLogLevel(level slog.Level) Option {
	return func(cfg *Config) {
		cfg.LogLevel = level
	}
}

// WithVerbose enables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(cfg *Config) {
		cfg.Verbose = verbose
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
	}
}

// WithLogFormat selects text or JSON log output.
func WithLogFormat(format logging.Format) Option {
	return func(cfg *Config) {
		cfg.LogFormat = format
	}
}

// WithColorMode sets when the UI uses colors.
func WithColorMode(mode ui.ColorMode) Option {
	return func(cfg *Config) {
		cfg.ColorMode = mode
	}
}

// WithConfigPath overrides the configuration file location.
func WithConfigPath(path string) Option {
	return func(cfg *Config) {
		cfg.ConfigPath = path
	}
}

// WithRateLimit sets the GitLab API request rate and burst.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(cfg *Config) {
		cfg.RateLimit = requestsPerSecond
		cfg.RateBurst = burst
	}
}

// NewApp creates a new App with the given options.
func NewApp(ctx context.Context, opts ...Option) (*App, error) {
	defaults := logging.DefaultConfig()
	cfg := &Config{
		LogLevel:  defaults.Level,
		LogFormat: defaults.Format,
		Verbose:   false,
		ColorMode: ui.ColorAuto,
	}

	// Apply options.
	for _, opt := range opts {
		opt(cfg)
	}

	return NewAppWithConfig(ctx, cfg)
}
