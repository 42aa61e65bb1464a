// Package permission gates a run on the acting credential's scopes and its
// role in the target project.
package permission

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
)

// Validator checks scope and access level before any inspection or mutation.
type Validator struct {
	client domain.PermissionClient
	logger *slog.Logger
}

// NewValidator creates a new permission validator.
func NewValidator(client domain.PermissionClient, logger *slog.Logger) *Validator {
	return &Validator{client: client, logger: logger}
}

// Validate fails with InsufficientScope or InsufficientAccessLevel when the
// credential cannot manage project access tokens. It returns env with the
// acting user id filled in.
func (v *Validator) Validate(ctx context.Context, env domain.Environment) (domain.Environment, error) {
	scopes, err := v.client.SelfScopes(ctx)
	if err != nil {
		return env, fmt.Errorf("failed to verify token scopes: %w", err)
	}
	if !slices.Contains(scopes, domain.RequiredScope) {
		return env, apperrors.NewInsufficientScopeError(domain.RequiredScope, scopes)
	}

	if env.UserID == 0 {
		userID, err := v.client.CurrentUserID(ctx)
		if err != nil {
			return env, fmt.Errorf("failed to resolve acting user: %w", err)
		}
		env.UserID = userID
	}

	level, err := v.client.AccessLevel(ctx, env.EncodedProjectPath, env.UserID)
	if err != nil {
		return env, fmt.Errorf("failed to verify project access level: %w", err)
	}
	if level < domain.MaintainerAccessLevel {
		return env, apperrors.NewInsufficientAccessLevelError(env.ProjectPath, domain.MaintainerAccessLevel, level)
	}

	v.logger.DebugContext(ctx, "Permissions verified",
		"project", env.ProjectPath,
		"user_id", env.UserID,
		"access_level", level)
	return env, nil
}
