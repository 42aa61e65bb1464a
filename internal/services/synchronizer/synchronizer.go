// Package synchronizer executes a lifecycle plan against the token registry
// and the variable store.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
	"tokenkeeper/internal/services/lifecycle"
)

// Result describes the writes performed for one plan.
type Result struct {
	Action        domain.Action
	TokenID       int
	ExpiresAt     string
	TokenWrite    domain.TokenWrite
	VariableWrite domain.VariableWrite
}

// Synchronizer performs at most one token write and one variable write.
type Synchronizer struct {
	tokens    domain.TokenRegistry
	variables domain.VariableStore
	ttlDays   int
	logger    *slog.Logger
}

// NewSynchronizer creates a synchronizer issuing tokens valid for ttlDays.
func NewSynchronizer(
	tokens domain.TokenRegistry,
	variables domain.VariableStore,
	ttlDays int,
	logger *slog.Logger,
) *Synchronizer {
	return &Synchronizer{
		tokens:    tokens,
		variables: variables,
		ttlDays:   ttlDays,
		logger:    logger,
	}
}

// VariableSpec returns the attributes the publish variable is written with.
func VariableSpec() domain.VariableSpec {
	return domain.VariableSpec{
		Key:         domain.VariableKey,
		Masked:      true,
		Protected:   true,
		Description: domain.VariableDescription,
	}
}

// Execute applies plan. A SKIP plan performs no calls.
func (s *Synchronizer) Execute(
	ctx context.Context,
	env domain.Environment,
	plan domain.Plan,
	today time.Time,
) (Result, error) {
	result := Result{Action: plan.Action, TokenID: plan.Token.ID, ExpiresAt: plan.Token.ExpiresAt}
	if !plan.Mutates() {
		s.logger.InfoContext(ctx, "Token is valid and variable is present, nothing to do",
			"project", env.ProjectPath, "token_id", plan.Token.ID, "expires_at", plan.Token.ExpiresAt)
		return result, nil
	}

	if err := checkPlan(plan); err != nil {
		return result, err
	}

	expiresAt := lifecycle.ExpiryDate(today, s.ttlDays)
	value, record, err := s.writeToken(ctx, env, plan, expiresAt)
	if err != nil {
		return result, err
	}
	result.TokenWrite = plan.TokenWrite
	result.TokenID = record.ID
	result.ExpiresAt = record.ExpiresAt
	if result.ExpiresAt == "" {
		result.ExpiresAt = expiresAt
	}

	if err := s.writeVariable(ctx, env, plan.VariableWrite, value); err != nil {
		s.logger.ErrorContext(ctx, "Token was changed but the variable was not written; the new value is lost",
			"project", env.ProjectPath,
			"token_id", record.ID,
			"token_write", plan.TokenWrite)
		return result, err
	}
	result.VariableWrite = plan.VariableWrite

	s.logger.InfoContext(ctx, "Synchronized publish token",
		"project", env.ProjectPath,
		"action", plan.Action,
		"token_id", result.TokenID,
		"expires_at", result.ExpiresAt,
		"variable_write", result.VariableWrite)
	return result, nil
}

func (s *Synchronizer) writeToken(
	ctx context.Context,
	env domain.Environment,
	plan domain.Plan,
	expiresAt string,
) (domain.SecretValue, domain.TokenRecord, error) {
	switch plan.TokenWrite {
	case domain.TokenWriteCreate:
		value, record, err := s.tokens.CreateToken(ctx, env.EncodedProjectPath, domain.TokenSpec{
			Name:        domain.TokenName,
			Scopes:      domain.TokenScopes,
			AccessLevel: domain.MaintainerAccessLevel,
			ExpiresAt:   expiresAt,
		})
		if err != nil {
			return value, record, fmt.Errorf("failed to create publish token: %w", err)
		}
		return value, record, nil
	case domain.TokenWriteRotate:
		value, record, err := s.tokens.RotateToken(ctx, env.EncodedProjectPath, plan.Token.ID, expiresAt)
		if err != nil {
			return value, record, fmt.Errorf("failed to rotate publish token %d: %w", plan.Token.ID, err)
		}
		return value, record, nil
	default:
		return domain.SecretValue{}, domain.TokenRecord{}, fmt.Errorf("plan %s has no token write", plan.Action)
	}
}

func (s *Synchronizer) writeVariable(
	ctx context.Context,
	env domain.Environment,
	write domain.VariableWrite,
	value domain.SecretValue,
) error {
	spec := VariableSpec()

	switch write {
	case domain.VariableWriteSet:
		err := s.variables.SetVariable(ctx, env.EncodedProjectPath, spec, value)
		if err != nil && isTaken(err) {
			return fmt.Errorf("%w: set on existing variable %s: %w", apperrors.ErrWrongVariableWrite, spec.Key, err)
		}
		if err != nil {
			return fmt.Errorf("failed to set variable %s: %w", spec.Key, err)
		}
	case domain.VariableWriteUpdate:
		err := s.variables.UpdateVariable(ctx, env.EncodedProjectPath, spec, value)
		if err != nil && apperrors.IsNotFound(err) {
			return fmt.Errorf("%w: update on missing variable %s: %w", apperrors.ErrWrongVariableWrite, spec.Key, err)
		}
		if err != nil {
			return fmt.Errorf("failed to update variable %s: %w", spec.Key, err)
		}
	default:
		return fmt.Errorf("%w: no variable write after token write", apperrors.ErrWrongVariableWrite)
	}
	return nil
}

// checkPlan rejects plans whose variable write contradicts the inspected state.
func checkPlan(plan domain.Plan) error {
	switch {
	case plan.TokenWrite == domain.TokenWriteNone:
		return fmt.Errorf("plan %s writes a variable without a token write", plan.Action)
	case plan.VariableWrite == domain.VariableWriteSet && plan.Variable.Present:
		return fmt.Errorf("%w: plan %s sets existing variable %s",
			apperrors.ErrWrongVariableWrite, plan.Action, domain.VariableKey)
	case plan.VariableWrite == domain.VariableWriteUpdate && !plan.Variable.Present:
		return fmt.Errorf("%w: plan %s updates missing variable %s",
			apperrors.ErrWrongVariableWrite, plan.Action, domain.VariableKey)
	case plan.VariableWrite == domain.VariableWriteNone:
		return fmt.Errorf("%w: plan %s has no variable write", apperrors.ErrWrongVariableWrite, plan.Action)
	}
	return nil
}

func isTaken(err error) bool {
	if errors.Is(err, apperrors.ErrAlreadyExists) || apperrors.IsHTTPStatus(err, http.StatusConflict) {
		return true
	}
	return errors.Is(err, apperrors.ErrInvalidInput) && strings.Contains(err.Error(), "has already been taken")
}
