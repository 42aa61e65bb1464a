package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
	"tokenkeeper/internal/mocks"
	"tokenkeeper/internal/testutil"
)

func testEnvironment() domain.Environment {
	return domain.Environment{
		Host:               "gitlab.example.com",
		ProjectPath:        "group/app",
		EncodedProjectPath: "group%2Fapp",
	}
}

func TestValidator_Success(t *testing.T) {
	client := mocks.NewMockPermissionClient(t)
	client.On("SelfScopes", mock.Anything).Return([]string{"read_api", "api"}, nil)
	client.On("CurrentUserID", mock.Anything).Return(314, nil)
	client.On("AccessLevel", mock.Anything, "group%2Fapp", 314).Return(50, nil)

	env, err := NewValidator(client, testutil.Logger()).Validate(context.Background(), testEnvironment())
	require.NoError(t, err)
	assert.Equal(t, 314, env.UserID)
}

func TestValidator_KnownUserIDSkipsLookup(t *testing.T) {
	client := mocks.NewMockPermissionClient(t)
	client.On("SelfScopes", mock.Anything).Return([]string{"api"}, nil)
	client.On("AccessLevel", mock.Anything, "group%2Fapp", 7).Return(40, nil)

	env := testEnvironment()
	env.UserID = 7

	_, err := NewValidator(client, testutil.Logger()).Validate(context.Background(), env)
	require.NoError(t, err)
	client.AssertNotCalled(t, "CurrentUserID", mock.Anything)
}

func TestValidator_MissingScope(t *testing.T) {
	client := mocks.NewMockPermissionClient(t)
	client.On("SelfScopes", mock.Anything).Return([]string{"read_api", "read_repository"}, nil)

	_, err := NewValidator(client, testutil.Logger()).Validate(context.Background(), testEnvironment())
	require.Error(t, err)

	assert.ErrorIs(t, err, apperrors.ErrInsufficientScope)
	var scopeErr *apperrors.InsufficientScopeError
	require.ErrorAs(t, err, &scopeErr)
	assert.Equal(t, "api", scopeErr.Required)
	client.AssertNotCalled(t, "AccessLevel", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidator_InsufficientAccessLevel(t *testing.T) {
	tests := []struct {
		name  string
		level int
	}{
		{name: "developer", level: 30},
		{name: "not a member", level: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mocks.NewMockPermissionClient(t)
			client.On("SelfScopes", mock.Anything).Return([]string{"api"}, nil)
			client.On("CurrentUserID", mock.Anything).Return(314, nil)
			client.On("AccessLevel", mock.Anything, "group%2Fapp", 314).Return(tt.level, nil)

			_, err := NewValidator(client, testutil.Logger()).Validate(context.Background(), testEnvironment())
			require.Error(t, err)

			var levelErr *apperrors.InsufficientAccessLevelError
			require.ErrorAs(t, err, &levelErr)
			assert.Equal(t, 40, levelErr.Required)
			assert.Equal(t, tt.level, levelErr.Actual)
			assert.True(t, apperrors.IsPrecondition(err))
		})
	}
}

func TestValidator_APIFailure(t *testing.T) {
	client := mocks.NewMockPermissionClient(t)
	client.On("SelfScopes", mock.Anything).
		Return(nil, apperrors.NewHTTPError(401, "GET", "https://gitlab.example.com/api/v4/personal_access_tokens/self", "401 Unauthorized"))

	_, err := NewValidator(client, testutil.Logger()).Validate(context.Background(), testEnvironment())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAPIFailure)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestValidator_UserLookupFailure(t *testing.T) {
	client := mocks.NewMockPermissionClient(t)
	client.On("SelfScopes", mock.Anything).Return([]string{"api"}, nil)
	client.On("CurrentUserID", mock.Anything).Return(0, errors.New("boom"))

	_, err := NewValidator(client, testutil.Logger()).Validate(context.Background(), testEnvironment())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acting user")
}
