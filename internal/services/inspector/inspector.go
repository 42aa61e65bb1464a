// Package inspector reads the current token and variable state of a project.
package inspector

import (
	"context"
	"fmt"
	"log/slog"

	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/services/lifecycle"
)

// Inspector looks up the managed token and variable. It never writes.
type Inspector struct {
	tokens    domain.TokenRegistry
	variables domain.VariableStore
	logger    *slog.Logger
}

// NewInspector creates a new token state inspector.
func NewInspector(tokens domain.TokenRegistry, variables domain.VariableStore, logger *slog.Logger) *Inspector {
	return &Inspector{tokens: tokens, variables: variables, logger: logger}
}

// Inspect returns the state of the managed token and variable in the project.
func (i *Inspector) Inspect(ctx context.Context, env domain.Environment) (domain.TokenState, domain.VariableState, error) {
	records, err := i.tokens.ListTokens(ctx, env.EncodedProjectPath)
	if err != nil {
		return domain.TokenState{}, domain.VariableState{}, fmt.Errorf("failed to inspect access tokens: %w", err)
	}
	token := SelectToken(records, domain.TokenName)

	variables, err := i.variables.ListVariables(ctx, env.EncodedProjectPath)
	if err != nil {
		return domain.TokenState{}, domain.VariableState{}, fmt.Errorf("failed to inspect variables: %w", err)
	}
	variable := FindVariable(variables, domain.VariableKey)

	i.logger.InfoContext(ctx, "Inspected project",
		"project", env.ProjectPath,
		"token_present", token.Present,
		"token_id", token.ID,
		"token_expires_at", token.ExpiresAt,
		"variable_present", variable.Present)
	return token, variable, nil
}

// SelectToken finds the token named name. Revoked tokens are ignored; an
// inactive but unrevoked token is an expired one and still counts. When
// several match, the latest expiry wins, then the highest id.
func SelectToken(records []domain.TokenRecord, name string) domain.TokenState {
	var (
		best     domain.TokenRecord
		bestDate int
		found    bool
	)
	for _, record := range records {
		if record.Name != name || record.Revoked {
			continue
		}
		date, _ := lifecycle.NormalizeDate(record.ExpiresAt)
		if !found || date > bestDate || (date == bestDate && record.ID > best.ID) {
			best, bestDate, found = record, date, true
		}
	}
	if !found {
		return domain.TokenState{}
	}
	return domain.TokenState{Present: true, ID: best.ID, ExpiresAt: best.ExpiresAt}
}

// FindVariable reports whether a variable with key exists.
func FindVariable(variables []domain.VariableRecord, key string) domain.VariableState {
	for _, variable := range variables {
		if variable.Key == key {
			return domain.VariableState{Present: true}
		}
	}
	return domain.VariableState{}
}
