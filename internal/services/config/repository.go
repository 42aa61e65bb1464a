// Package config reads and writes the tokenkeeper configuration file.
// Runtime lookups (flags, environment, file) are done by viper; this package
// only owns the on-disk document.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
)

const (
	dirPermissions  = 0o700 // Owner-only access for security
	filePermissions = 0o600 // Read/write owner only
)

// File is the configuration document. It never holds an access token.
type File struct {
	GitLab          GitLabSection  `yaml:"gitlab"`
	Git             GitSection     `yaml:"git"`
	TokenTTLDays    int            `yaml:"token_ttl_days"`
	LeaseTTL        string         `yaml:"lease_ttl"`
	Timeout         string         `yaml:"timeout"`
	InsecureSkipTLS bool           `yaml:"insecure_skip_tls"`
	LogFormat       string         `yaml:"log_format"`
	Metrics         MetricsSection `yaml:"metrics"`
}

// GitLabSection locates the project.
type GitLabSection struct {
	Host    string `yaml:"host,omitempty"`
	Scheme  string `yaml:"scheme,omitempty"`
	Project string `yaml:"project,omitempty"`
	UserID  int    `yaml:"user_id,omitempty"`
}

// GitSection selects the remote used to infer host and project.
type GitSection struct {
	Remote string `yaml:"remote"`
}

// MetricsSection configures the optional Pushgateway.
type MetricsSection struct {
	Pushgateway string `yaml:"pushgateway,omitempty"`
	Job         string `yaml:"job,omitempty"`
}

// NewFile builds a document from settings. The token is dropped.
func NewFile(settings domain.Settings, logFormat string) *File {
	return &File{
		GitLab: GitLabSection{
			Host:    settings.Host,
			Scheme:  settings.Scheme,
			Project: settings.Project,
			UserID:  settings.UserID,
		},
		Git:             GitSection{Remote: settings.Remote},
		TokenTTLDays:    settings.TokenTTLDays,
		LeaseTTL:        formatDuration(settings.LeaseTTL),
		Timeout:         formatDuration(settings.Timeout),
		InsecureSkipTLS: settings.InsecureSkipTLS,
		LogFormat:       logFormat,
	}
}

// Repository handles configuration persistence.
type Repository struct {
	fs         domain.FileSystemAdapter
	configPath string
	logger     *slog.Logger
}

// NewRepository creates a new configuration repository.
func NewRepository(fs domain.FileSystemAdapter, configPath string, logger *slog.Logger) *Repository {
	return &Repository{
		fs:         fs,
		configPath: configPath,
		logger:     logger,
	}
}

// Path returns the configuration file path.
func (r *Repository) Path() string {
	return r.configPath
}

// Exists reports whether the configuration file exists.
func (r *Repository) Exists() (bool, error) {
	_, err := r.fs.Stat(r.configPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat configuration file: %w", err)
}

// Load reads the configuration file.
func (r *Repository) Load(ctx context.Context) (*File, error) {
	data, err := r.fs.ReadFile(r.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.DebugContext(ctx, "Configuration file does not exist", "path", r.configPath)
			return nil, err
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var file File
	if unmarshalErr := yaml.Unmarshal(data, &file); unmarshalErr != nil {
		return nil, apperrors.NewConfigurationError("config", r.configPath, "invalid YAML", unmarshalErr)
	}
	return &file, nil
}

// Save writes file with owner-only permissions.
func (r *Repository) Save(ctx context.Context, file *File) error {
	if err := r.fs.MkdirAll(filepath.Dir(r.configPath), dirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if writeErr := r.fs.WriteFile(r.configPath, data, filePermissions); writeErr != nil {
		return fmt.Errorf("failed to write configuration file: %w", writeErr)
	}

	r.logger.DebugContext(ctx, "Configuration saved", "path", r.configPath)
	return nil
}

// Init writes file unless a configuration already exists and force is false.
func (r *Repository) Init(ctx context.Context, file *File, force bool) error {
	exists, err := r.Exists()
	if err != nil {
		return err
	}
	if exists && !force {
		return apperrors.NewConfigurationError("config", r.configPath,
			"configuration file already exists (use --force to overwrite)", nil)
	}
	return r.Save(ctx, file)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.String()
}
