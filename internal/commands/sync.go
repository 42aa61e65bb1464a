package commands

import (
	"context"
	"log/slog"
	"time"

	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/metrics"
	"tokenkeeper/internal/services/environment"
	"tokenkeeper/internal/services/lease"
	"tokenkeeper/internal/services/synchronizer"
)

const metricsPushTimeout = 10 * time.Second

// SyncCommand runs the full token lifecycle for one project.
type SyncCommand struct {
	pipeline
	recorder *metrics.Recorder
}

// NewSyncCommand creates a new sync command. recorder may be nil.
func NewSyncCommand(
	resolver *environment.Resolver,
	factory domain.GitLabServiceFactory,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) *SyncCommand {
	return &SyncCommand{
		pipeline: pipeline{resolver: resolver, factory: factory, now: time.Now, logger: logger},
		recorder: recorder,
	}
}

// SyncRequest contains the parameters for the sync command.
type SyncRequest struct {
	Settings    domain.Settings
	DryRun      bool
	NoLease     bool
	Pushgateway string
	MetricsJob  string
}

// SyncResult describes what a sync run decided and did.
type SyncResult struct {
	Environment domain.Environment
	Plan        domain.Plan
	Outcome     synchronizer.Result
	DryRun      bool
}

// Execute resolves, validates, locks, inspects, decides and synchronizes.
func (c *SyncCommand) Execute(ctx context.Context, req SyncRequest) (result *SyncResult, err error) {
	start := c.now()
	result = &SyncResult{DryRun: req.DryRun}
	defer func() { c.record(ctx, req, result, err, start) }()

	env, services, err := c.prepare(ctx, req.Settings)
	result.Environment = env
	if err != nil {
		return result, err
	}

	var held *lease.Lease
	if !req.DryRun && !req.NoLease {
		held, err = lease.NewManager(services.Leases, req.Settings.LeaseTTL, c.logger).
			Acquire(ctx, env.EncodedProjectPath)
		if err != nil {
			return result, err
		}
		defer c.release(ctx, held)
	}

	plan, err := c.decide(ctx, env, services)
	if err != nil {
		return result, err
	}
	result.Plan = plan

	if req.DryRun {
		c.logger.InfoContext(ctx, "Dry run, no changes made", "action", plan.Action)
		return result, nil
	}

	if held != nil && plan.Mutates() {
		if err = held.Verify(ctx); err != nil {
			return result, err
		}
	}

	outcome, err := synchronizer.NewSynchronizer(services.Tokens, services.Variables, req.Settings.TokenTTLDays, c.logger).
		Execute(ctx, env, plan, c.today())
	result.Outcome = outcome
	return result, err
}

// release runs after the main outcome is settled; its failure is only logged.
func (c *SyncCommand) release(ctx context.Context, held *lease.Lease) {
	if err := held.Release(context.WithoutCancel(ctx)); err != nil {
		c.logger.WarnContext(ctx, "Failed to release run lease", "holder", held.Holder(), "error", err)
	}
}

func (c *SyncCommand) record(ctx context.Context, req SyncRequest, result *SyncResult, runErr error, start time.Time) {
	if c.recorder == nil {
		return
	}

	finished := c.now()
	outcome := metrics.OutcomeSuccess
	switch {
	case runErr != nil:
		outcome = metrics.OutcomeFailure
	case req.DryRun:
		outcome = metrics.OutcomeDryRun
	}

	c.recorder.RecordRun(string(result.Plan.Action), outcome, finished.Sub(start), finished)
	c.recorder.RecordWrite("token", string(result.Outcome.TokenWrite))
	c.recorder.RecordWrite("variable", string(result.Outcome.VariableWrite))
	if result.Outcome.ExpiresAt != "" {
		c.recorder.SetTokenExpiry(result.Outcome.ExpiresAt)
	} else {
		c.recorder.SetTokenExpiry(result.Plan.Token.ExpiresAt)
	}

	if req.Pushgateway == "" {
		return
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsPushTimeout)
	defer cancel()
	if err := c.recorder.Push(pushCtx, req.Pushgateway, req.MetricsJob, result.Environment.ProjectPath); err != nil {
		c.logger.WarnContext(ctx, "Failed to push metrics", "error", err)
	}
}
