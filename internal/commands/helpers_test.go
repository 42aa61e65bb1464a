package commands_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
	"tokenkeeper/internal/mocks"
	"tokenkeeper/internal/services/environment"
	"tokenkeeper/internal/testutil"
)

const (
	testHost    = "gitlab.example.com"
	testProject = "group%2Fapp"
)

var testSettings = domain.Settings{
	Host:    testHost,
	Project: "group/app",
	UserID:  7,
	Token:   "glpat-operator",
}

// fakeFactory hands out the same mocks for every environment.
type fakeFactory struct {
	services domain.GitLabServices
	envs     []domain.Environment
}

func (f *fakeFactory) CreateServices(env domain.Environment, _ bool) domain.GitLabServices {
	f.envs = append(f.envs, env)
	return f.services
}

type gitlabMocks struct {
	tokens      *mocks.MockTokenRegistry
	variables   *mocks.MockVariableStore
	permissions *mocks.MockPermissionClient
	leases      *leaseStore
	factory     *fakeFactory
}

func newGitLabMocks(t *testing.T) *gitlabMocks {
	m := &gitlabMocks{
		tokens:      mocks.NewMockTokenRegistry(t),
		variables:   mocks.NewMockVariableStore(t),
		permissions: mocks.NewMockPermissionClient(t),
		leases:      &leaseStore{},
	}
	m.factory = &fakeFactory{services: domain.GitLabServices{
		Tokens:      m.tokens,
		Variables:   m.variables,
		Permissions: m.permissions,
		Leases:      m.leases,
	}}
	return m
}

// leaseStore keeps the lease variable in memory and counts every call.
type leaseStore struct {
	value     string
	set       bool
	calls     int
	deleteErr error
}

func (s *leaseStore) CreateVariable(_ context.Context, _, _, value string) error {
	s.calls++
	if s.set {
		return fmt.Errorf("variable %s: %w", domain.LeaseKey, apperrors.ErrAlreadyExists)
	}
	s.value, s.set = value, true
	return nil
}

func (s *leaseStore) GetVariableValue(context.Context, string, string) (string, error) {
	s.calls++
	if !s.set {
		return "", apperrors.NewHTTPError(404, "GET", "u", "404 Variable Not Found")
	}
	return s.value, nil
}

func (s *leaseStore) DeleteVariable(context.Context, string, string) error {
	s.calls++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.value, s.set = "", false
	return nil
}

func newTestResolver(token string) *environment.Resolver {
	getenv := func(string) string { return "" }
	sources := []domain.CredentialSource{
		environment.NewFlagSource(token),
		environment.NewEnvSource("GITLAB_TOKEN", getenv),
	}
	return environment.NewResolver(nil, sources, getenv, testutil.Logger())
}

func daysFromToday(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(time.DateOnly)
}

func secret(t *testing.T, value string) domain.SecretValue {
	t.Helper()
	s, err := domain.NewSecretValue([]byte(value))
	if err != nil {
		t.Fatalf("failed to seal secret: %v", err)
	}
	return s
}
