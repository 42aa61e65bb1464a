package commands

import (
	"context"
	"log/slog"
	"time"

	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/services/environment"
)

// PlanCommand reports what sync would do without writing anything.
type PlanCommand struct {
	pipeline
}

// NewPlanCommand creates a new plan command.
func NewPlanCommand(
	resolver *environment.Resolver,
	factory domain.GitLabServiceFactory,
	logger *slog.Logger,
) *PlanCommand {
	return &PlanCommand{
		pipeline: pipeline{resolver: resolver, factory: factory, now: time.Now, logger: logger},
	}
}

// PlanRequest contains the parameters for the plan command.
type PlanRequest struct {
	Settings domain.Settings
}

// PlanResult is the decided plan and the environment it applies to.
type PlanResult struct {
	Environment domain.Environment
	Plan        domain.Plan
}

// Execute runs the read-only stages of a sync.
func (c *PlanCommand) Execute(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	env, services, err := c.prepare(ctx, req.Settings)
	if err != nil {
		return nil, err
	}

	plan, err := c.decide(ctx, env, services)
	if err != nil {
		return nil, err
	}
	return &PlanResult{Environment: env, Plan: plan}, nil
}
