package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/services/environment"
	"tokenkeeper/internal/services/inspector"
	"tokenkeeper/internal/services/lifecycle"
	"tokenkeeper/internal/services/permission"
)

// pipeline runs the read-only stages shared by sync and plan.
type pipeline struct {
	resolver *environment.Resolver
	factory  domain.GitLabServiceFactory
	now      func() time.Time
	logger   *slog.Logger
}

// prepare resolves the environment, creates the API collaborators and
// validates permissions. Nothing after a failed prepare touches the project.
func (p *pipeline) prepare(
	ctx context.Context,
	settings domain.Settings,
) (domain.Environment, domain.GitLabServices, error) {
	env, err := p.resolver.Resolve(ctx, settings)
	if err != nil {
		return domain.Environment{}, domain.GitLabServices{}, err
	}

	services := p.factory.CreateServices(env, settings.InsecureSkipTLS)

	env, err = permission.NewValidator(services.Permissions, p.logger).Validate(ctx, env)
	if err != nil {
		return env, services, err
	}
	return env, services, nil
}

// decide inspects the project and maps its state to a plan.
func (p *pipeline) decide(
	ctx context.Context,
	env domain.Environment,
	services domain.GitLabServices,
) (domain.Plan, error) {
	token, variable, err := inspector.NewInspector(services.Tokens, services.Variables, p.logger).Inspect(ctx, env)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("inspection failed: %w", err)
	}

	plan := lifecycle.Decide(token, variable, p.today())
	p.logger.InfoContext(ctx, "Decided action",
		"action", plan.Action,
		"token_write", plan.TokenWrite,
		"variable_write", plan.VariableWrite)
	return plan, nil
}

func (p *pipeline) today() time.Time {
	return p.now().UTC()
}
