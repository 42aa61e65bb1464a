package mocks

import (
	"context"
	"os"

	"github.com/stretchr/testify/mock"

	"tokenkeeper/internal/domain"
)

type cleanupT interface {
	Cleanup(func())
}

func registerCleanup(t mock.TestingT, fn func()) {
	if c, ok := t.(cleanupT); ok {
		c.Cleanup(fn)
	}
}

// MockCredentialStore is a mock of domain.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

// NewMockCredentialStore creates a mock that asserts its expectations on cleanup.
func NewMockCredentialStore(t mock.TestingT) *MockCredentialStore {
	m := &MockCredentialStore{}
	m.Test(t)
	registerCleanup(t, func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialStore) Get(host string) (string, error) {
	args := m.Called(host)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) Set(host, token string) error {
	return m.Called(host, token).Error(0)
}

func (m *MockCredentialStore) Delete(host string) error {
	return m.Called(host).Error(0)
}

// MockPasswordReader is a mock of domain.PasswordReader.
type MockPasswordReader struct {
	mock.Mock
}

// NewMockPasswordReader creates a mock that asserts its expectations on cleanup.
func NewMockPasswordReader(t mock.TestingT) *MockPasswordReader {
	m := &MockPasswordReader{}
	m.Test(t)
	registerCleanup(t, func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordReader) ReadPassword(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordReader) IsInteractive() bool {
	return m.Called().Bool(0)
}

// MockRemoteInspector is a mock of domain.RemoteInspector.
type MockRemoteInspector struct {
	mock.Mock
}

// NewMockRemoteInspector creates a mock that asserts its expectations on cleanup.
func NewMockRemoteInspector(t mock.TestingT) *MockRemoteInspector {
	m := &MockRemoteInspector{}
	m.Test(t)
	registerCleanup(t, func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRemoteInspector) RemoteURL(ctx context.Context, remote string) (string, error) {
	args := m.Called(ctx, remote)
	return args.String(0), args.Error(1)
}

// MockFileSystemAdapter is a mock of domain.FileSystemAdapter.
type MockFileSystemAdapter struct {
	mock.Mock
}

// NewMockFileSystemAdapter creates a mock that asserts its expectations on cleanup.
func NewMockFileSystemAdapter(t mock.TestingT) *MockFileSystemAdapter {
	m := &MockFileSystemAdapter{}
	m.Test(t)
	registerCleanup(t, func() { m.AssertExpectations(t) })
	return m
}

func (m *MockFileSystemAdapter) ReadFile(path string) ([]byte, error) {
	args := m.Called(path)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockFileSystemAdapter) WriteFile(path string, data []byte, perm os.FileMode) error {
	return m.Called(path, data, perm).Error(0)
}

func (m *MockFileSystemAdapter) MkdirAll(path string, perm os.FileMode) error {
	return m.Called(path, perm).Error(0)
}

func (m *MockFileSystemAdapter) Stat(path string) (os.FileInfo, error) {
	args := m.Called(path)
	info, _ := args.Get(0).(os.FileInfo)
	return info, args.Error(1)
}

func (m *MockFileSystemAdapter) UserHomeDir() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

var _ domain.FileSystemAdapter = (*MockFileSystemAdapter)(nil)
