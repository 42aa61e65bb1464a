package commands

import (
	"context"
	"log/slog"

	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/logging"
	"tokenkeeper/internal/services/config"
)

// ConfigInitCommand writes a starter configuration file.
type ConfigInitCommand struct {
	repo   *config.Repository
	logger *slog.Logger
}

// NewConfigInitCommand creates a new config init command.
func NewConfigInitCommand(repo *config.Repository, logger *slog.Logger) *ConfigInitCommand {
	return &ConfigInitCommand{repo: repo, logger: logger}
}

// ConfigInitRequest contains the parameters for the config init command.
type ConfigInitRequest struct {
	Settings  domain.Settings
	LogFormat string
	Force     bool
}

// Execute writes the configuration file and returns its path.
func (c *ConfigInitCommand) Execute(ctx context.Context, req ConfigInitRequest) (string, error) {
	if err := c.repo.Init(ctx, config.NewFile(req.Settings, req.LogFormat), req.Force); err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "Wrote configuration file", "path", c.repo.Path())
	return c.repo.Path(), nil
}

// ConfigEntry is one effective setting.
type ConfigEntry struct {
	Key   string
	Value any
}

// ShowConfig lists the effective settings with the token masked.
func ShowConfig(settings domain.Settings, logFormat, pushgateway string) []ConfigEntry {
	token := "(not set)"
	if settings.Token != "" {
		token = logging.Mask(settings.Token)
	}
	return []ConfigEntry{
		{Key: "gitlab.host", Value: settings.Host},
		{Key: "gitlab.scheme", Value: settings.Scheme},
		{Key: "gitlab.project", Value: settings.Project},
		{Key: "gitlab.user_id", Value: settings.UserID},
		{Key: "git.remote", Value: settings.Remote},
		{Key: "token", Value: token},
		{Key: "token_ttl_days", Value: settings.TokenTTLDays},
		{Key: "lease_ttl", Value: settings.LeaseTTL},
		{Key: "timeout", Value: settings.Timeout},
		{Key: "insecure_skip_tls", Value: settings.InsecureSkipTLS},
		{Key: "log_format", Value: logFormat},
		{Key: "metrics.pushgateway", Value: pushgateway},
	}
}
