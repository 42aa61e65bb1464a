// Package mocks provides testify mocks for the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tokenkeeper/internal/domain"
)

// MockTokenRegistry is a mock of domain.TokenRegistry.
type MockTokenRegistry struct {
	mock.Mock
}

// NewMockTokenRegistry creates a mock that asserts its expectations on cleanup.
func NewMockTokenRegistry(t mock.TestingT) *MockTokenRegistry {
	m := &MockTokenRegistry{}
	m.Test(t)
	registerCleanup(t, func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenRegistry) ListTokens(ctx context.Context, project string) ([]domain.TokenRecord, error) {
	args := m.Called(ctx, project)
	tokens, _ := args.Get(0).([]domain.TokenRecord)
	return tokens, args.Error(1)
}

func (m *MockTokenRegistry) CreateToken(
	ctx context.Context,
	project string,
	spec domain.TokenSpec,
) (domain.SecretValue, domain.TokenRecord, error) {
	args := m.Called(ctx, project, spec)
	value, _ := args.Get(0).(domain.SecretValue)
	record, _ := args.Get(1).(domain.TokenRecord)
	return value, record, args.Error(2)
}

func (m *MockTokenRegistry) RotateToken(
	ctx context.Context,
	project string,
	tokenID int,
	expiresAt string,
) (domain.SecretValue, domain.TokenRecord, error) {
	args := m.Called(ctx, project, tokenID, expiresAt)
	value, _ := args.Get(0).(domain.SecretValue)
	record, _ := args.Get(1).(domain.TokenRecord)
	return value, record, args.Error(2)
}

// MockVariableStore is a mock of domain.VariableStore.
type MockVariableStore struct {
	mock.Mock
}

// NewMockVariableStore creates a mock that asserts its expectations on cleanup.
func NewMockVariableStore(t mock.TestingT) *MockVariableStore {
	m := &MockVariableStore{}
	m.Test(t)
	registerCleanup(t, func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVariableStore) ListVariables(ctx context.Context, project string) ([]domain.VariableRecord, error) {
	args := m.Called(ctx, project)
	variables, _ := args.Get(0).([]domain.VariableRecord)
	return variables, args.Error(1)
}

func (m *MockVariableStore) SetVariable(
	ctx context.Context,
	project string,
	spec domain.VariableSpec,
	value domain.SecretValue,
) error {
	return m.Called(ctx, project, spec, value).Error(0)
}

func (m *MockVariableStore) UpdateVariable(
	ctx context.Context,
	project string,
	spec domain.VariableSpec,
	value domain.SecretValue,
) error {
	return m.Called(ctx, project, spec, value).Error(0)
}

// MockPermissionClient is a mock of domain.PermissionClient.
type MockPermissionClient struct {
	mock.Mock
}

// NewMockPermissionClient creates a mock that asserts its expectations on cleanup.
func NewMockPermissionClient(t mock.TestingT) *MockPermissionClient {
	m := &MockPermissionClient{}
	m.Test(t)
	registerCleanup(t, func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPermissionClient) SelfScopes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	scopes, _ := args.Get(0).([]string)
	return scopes, args.Error(1)
}

func (m *MockPermissionClient) CurrentUserID(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPermissionClient) AccessLevel(ctx context.Context, project string, userID int) (int, error) {
	args := m.Called(ctx, project, userID)
	return args.Int(0), args.Error(1)
}

// MockLeaseStore is a mock of domain.LeaseStore.
type MockLeaseStore struct {
	mock.Mock
}

// NewMockLeaseStore creates a mock that asserts its expectations on cleanup.
func NewMockLeaseStore(t mock.TestingT) *MockLeaseStore {
	m := &MockLeaseStore{}
	m.Test(t)
	registerCleanup(t, func() { m.AssertExpectations(t) })
	return m
}

func (m *MockLeaseStore) CreateVariable(ctx context.Context, project, key, value string) error {
	return m.Called(ctx, project, key, value).Error(0)
}

func (m *MockLeaseStore) GetVariableValue(ctx context.Context, project, key string) (string, error) {
	args := m.Called(ctx, project, key)
	return args.String(0), args.Error(1)
}

func (m *MockLeaseStore) DeleteVariable(ctx context.Context, project, key string) error {
	return m.Called(ctx, project, key).Error(0)
}
