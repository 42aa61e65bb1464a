// Package lease provides mutual exclusion between concurrent runs on one
// project through a plain CI/CD variable.
package lease

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
)

// DefaultTTL bounds how long a crashed run can block others.
const DefaultTTL = 10 * time.Minute

const separator = "|"

// Manager acquires leases.
type Manager struct {
	store  domain.LeaseStore
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewManager creates a lease manager. A non-positive ttl selects DefaultTTL.
func NewManager(store domain.LeaseStore, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// Lease is a held lease.
type Lease struct {
	store   domain.LeaseStore
	project string
	holder  string
	value   string
	expires time.Time
	logger  *slog.Logger
}

// Holder returns the unique id of this run.
func (l *Lease) Holder() string { return l.holder }

// ExpiresAt returns when other runs may take the lease over.
func (l *Lease) ExpiresAt() time.Time { return l.expires }

// Acquire takes the lease for project. A lease held by another run fails with
// ErrLeaseHeld unless it has expired, in which case it is taken over once.
func (m *Manager) Acquire(ctx context.Context, project string) (*Lease, error) {
	holder := m.newID()
	expires := m.now().UTC().Add(m.ttl).Truncate(time.Second)
	lease := &Lease{
		store:   m.store,
		project: project,
		holder:  holder,
		value:   holder + separator + expires.Format(time.RFC3339),
		expires: expires,
		logger:  m.logger,
	}

	err := m.store.CreateVariable(ctx, project, domain.LeaseKey, lease.value)
	if err == nil {
		m.logger.DebugContext(ctx, "Acquired run lease", "holder", holder, "expires_at", expires)
		return lease, nil
	}
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		return nil, fmt.Errorf("failed to acquire run lease: %w", err)
	}

	current, err := m.store.GetVariableValue(ctx, project, domain.LeaseKey)
	switch {
	case apperrors.IsNotFound(err):
		// Released between our create and read.
	case err != nil:
		return nil, fmt.Errorf("failed to read run lease: %w", err)
	default:
		otherHolder, otherExpires, parseErr := ParseValue(current)
		if parseErr == nil && m.now().Before(otherExpires) {
			return nil, fmt.Errorf("%w: held by %s until %s",
				apperrors.ErrLeaseHeld, otherHolder, otherExpires.Format(time.RFC3339))
		}

		m.logger.WarnContext(ctx, "Taking over stale run lease", "holder", otherHolder, "value_valid", parseErr == nil)
		if err := m.removeStale(ctx, project, current); err != nil {
			return nil, err
		}
	}

	err = m.store.CreateVariable(ctx, project, domain.LeaseKey, lease.value)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		return nil, fmt.Errorf("%w: taken by another run during takeover", apperrors.ErrLeaseHeld)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lease: %w", err)
	}

	// Another takeover may have deleted ours in the meantime.
	if err := lease.Verify(ctx); err != nil {
		return nil, err
	}

	m.logger.DebugContext(ctx, "Acquired run lease", "holder", holder, "expires_at", expires)
	return lease, nil
}

// removeStale deletes the lease only while it still holds the stale value.
// GitLab has no conditional delete, so the remaining window is closed by
// Verify after the lease is recreated.
func (m *Manager) removeStale(ctx context.Context, project, stale string) error {
	current, err := m.store.GetVariableValue(ctx, project, domain.LeaseKey)
	if apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read run lease: %w", err)
	}
	if current != stale {
		holder, _, _ := ParseValue(current)
		return fmt.Errorf("%w: taken over by %s", apperrors.ErrLeaseHeld, holder)
	}

	if err := m.store.DeleteVariable(ctx, project, domain.LeaseKey); err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("failed to remove stale run lease: %w", err)
	}
	return nil
}

// Verify fails with ErrLeaseHeld unless the stored lease is still ours.
func (l *Lease) Verify(ctx context.Context) error {
	current, err := l.store.GetVariableValue(ctx, l.project, domain.LeaseKey)
	if apperrors.IsNotFound(err) {
		return fmt.Errorf("%w: lease of %s was removed", apperrors.ErrLeaseHeld, l.holder)
	}
	if err != nil {
		return fmt.Errorf("failed to read run lease: %w", err)
	}
	if current != l.value {
		holder, _, _ := ParseValue(current)
		return fmt.Errorf("%w: lease of %s was taken over by %s", apperrors.ErrLeaseHeld, l.holder, holder)
	}
	return nil
}

// Release deletes the lease if it is still ours.
func (l *Lease) Release(ctx context.Context) error {
	current, err := l.store.GetVariableValue(ctx, l.project, domain.LeaseKey)
	if apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read run lease: %w", err)
	}
	if current != l.value {
		l.logger.WarnContext(ctx, "Run lease was taken over, leaving it in place", "holder", l.holder)
		return nil
	}

	if err := l.store.DeleteVariable(ctx, l.project, domain.LeaseKey); err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("failed to release run lease: %w", err)
	}
	l.logger.DebugContext(ctx, "Released run lease", "holder", l.holder)
	return nil
}

// ParseValue splits a lease value into holder and expiry.
func ParseValue(value string) (string, time.Time, error) {
	holder, rawExpiry, ok := strings.Cut(strings.TrimSpace(value), separator)
	if !ok || holder == "" {
		return "", time.Time{}, fmt.Errorf("malformed lease value %q", value)
	}
	expires, err := time.Parse(time.RFC3339, rawExpiry)
	if err != nil {
		return holder, time.Time{}, fmt.Errorf("malformed lease expiry: %w", err)
	}
	return holder, expires, nil
}
