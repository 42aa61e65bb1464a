// Package lifecycle decides what a run does to the publish token and its
// variable. Everything here is pure: no I/O and no clock reads.
package lifecycle

import (
	"strings"
	"time"

	"tokenkeeper/internal/domain"
)

const (
	dateLayout = "2006-01-02"

	// DefaultTokenTTLDays is the lifetime given to created and rotated tokens.
	DefaultTokenTTLDays = 365
	// MaxTokenTTLDays is GitLab's default upper bound for access token lifetime.
	MaxTokenTTLDays = 365
)

// NormalizeDate turns an API date (YYYY-MM-DD, optionally followed by a time
// part) into a YYYYMMDD integer. ok is false for empty or malformed input.
func NormalizeDate(s string) (date int, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return 0, false
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return 0, false
	}
	return DateOf(t), true
}

// DateOf returns the YYYYMMDD integer of t's calendar date in t's location.
func DateOf(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// IsExpired reports whether a token with expiresAt is expired on today. A
// token expiring today is still valid. An empty or unparseable expiry counts
// as expired so that rotation re-establishes a known one.
func IsExpired(expiresAt string, today time.Time) bool {
	date, ok := NormalizeDate(expiresAt)
	if !ok {
		return true
	}
	return date < DateOf(today)
}

// Decide maps the inspected state to a single action and its write plan.
func Decide(token domain.TokenState, variable domain.VariableState, today time.Time) domain.Plan {
	plan := domain.Plan{Token: token, Variable: variable}

	switch {
	case !token.Present:
		plan.Action = domain.ActionCreate
		plan.TokenWrite = domain.TokenWriteCreate
		plan.VariableWrite = variableWrite(variable)
	case IsExpired(token.ExpiresAt, today):
		plan.Action = domain.ActionRotate
		plan.TokenWrite = domain.TokenWriteRotate
		plan.VariableWrite = variableWrite(variable)
	case !variable.Present:
		plan.Action = domain.ActionRotateAndSet
		plan.TokenWrite = domain.TokenWriteRotate
		plan.VariableWrite = domain.VariableWriteSet
	default:
		plan.Action = domain.ActionSkip
	}
	return plan
}

// ExpiryDate returns the expires_at value for a token issued on today.
// ttlDays is clamped to 1..MaxTokenTTLDays; zero selects the default.
func ExpiryDate(today time.Time, ttlDays int) string {
	switch {
	case ttlDays == 0:
		ttlDays = DefaultTokenTTLDays
	case ttlDays < 1:
		ttlDays = 1
	case ttlDays > MaxTokenTTLDays:
		ttlDays = MaxTokenTTLDays
	}
	return today.AddDate(0, 0, ttlDays).Format(dateLayout)
}

func variableWrite(variable domain.VariableState) domain.VariableWrite {
	if variable.Present {
		return domain.VariableWriteUpdate
	}
	return domain.VariableWriteSet
}
