package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tokenkeeper/internal/commands"
	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
	"tokenkeeper/internal/mocks"
	"tokenkeeper/internal/testutil"
)

func TestAuthLoginCommand_StoresToken(t *testing.T) {
	gl := newGitLabMocks(t)
	store := mocks.NewMockCredentialStore(t)
	reader := mocks.NewMockPasswordReader(t)

	reader.On("ReadPassword", mock.Anything, "GitLab access token for gitlab.example.com: ").
		Return("  glpat-stored\n", nil).Once()
	store.On("Set", testHost, "glpat-stored").Return(nil).Once()

	cmd := commands.NewAuthLoginCommand(newTestResolver(""), gl.factory, store, reader, testutil.Logger())
	result, err := cmd.Execute(context.Background(), commands.AuthLoginRequest{Settings: testSettings})
	require.NoError(t, err)

	assert.Equal(t, testHost, result.Host)
	assert.Equal(t, "keyring", result.Source)
	assert.Empty(t, gl.factory.envs)
}

func TestAuthLoginCommand_VerifiesScopes(t *testing.T) {
	gl := newGitLabMocks(t)
	store := mocks.NewMockCredentialStore(t)
	reader := mocks.NewMockPasswordReader(t)

	reader.On("ReadPassword", mock.Anything, mock.Anything).Return("glpat-stored", nil).Once()
	gl.permissions.On("SelfScopes", mock.Anything).Return([]string{"api", "read_user"}, nil).Once()
	store.On("Set", testHost, "glpat-stored").Return(nil).Once()

	cmd := commands.NewAuthLoginCommand(newTestResolver(""), gl.factory, store, reader, testutil.Logger())
	result, err := cmd.Execute(context.Background(), commands.AuthLoginRequest{Settings: testSettings, Verify: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"api", "read_user"}, result.Scopes)
	require.Len(t, gl.factory.envs, 1)
	assert.Equal(t, "glpat-stored", gl.factory.envs[0].Credential)
	assert.Equal(t, "https", gl.factory.envs[0].Scheme)
}

func TestAuthLoginCommand_RejectsTokenWithoutAPIScope(t *testing.T) {
	gl := newGitLabMocks(t)
	store := mocks.NewMockCredentialStore(t)
	reader := mocks.NewMockPasswordReader(t)

	reader.On("ReadPassword", mock.Anything, mock.Anything).Return("glpat-weak", nil).Once()
	gl.permissions.On("SelfScopes", mock.Anything).Return([]string{"read_api"}, nil).Once()

	cmd := commands.NewAuthLoginCommand(newTestResolver(""), gl.factory, store, reader, testutil.Logger())
	_, err := cmd.Execute(context.Background(), commands.AuthLoginRequest{Settings: testSettings, Verify: true})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientScope)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestAuthLoginCommand_EmptyToken(t *testing.T) {
	gl := newGitLabMocks(t)
	store := mocks.NewMockCredentialStore(t)
	reader := mocks.NewMockPasswordReader(t)

	reader.On("ReadPassword", mock.Anything, mock.Anything).Return("   ", nil).Once()

	cmd := commands.NewAuthLoginCommand(newTestResolver(""), gl.factory, store, reader, testutil.Logger())
	_, err := cmd.Execute(context.Background(), commands.AuthLoginRequest{Settings: testSettings})

	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestAuthLoginCommand_ReadFailure(t *testing.T) {
	gl := newGitLabMocks(t)
	store := mocks.NewMockCredentialStore(t)
	reader := mocks.NewMockPasswordReader(t)

	reader.On("ReadPassword", mock.Anything, mock.Anything).Return("", errors.New("not a terminal")).Once()

	cmd := commands.NewAuthLoginCommand(newTestResolver(""), gl.factory, store, reader, testutil.Logger())
	_, err := cmd.Execute(context.Background(), commands.AuthLoginRequest{Settings: testSettings})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a terminal")
}

func TestAuthLogoutCommand(t *testing.T) {
	store := mocks.NewMockCredentialStore(t)
	store.On("Delete", testHost).Return(nil).Once()

	cmd := commands.NewAuthLogoutCommand(newTestResolver(""), store, testutil.Logger())
	host, err := cmd.Execute(context.Background(), commands.AuthLogoutRequest{Settings: testSettings})
	require.NoError(t, err)
	assert.Equal(t, testHost, host)
}

func TestAuthStatusCommand(t *testing.T) {
	t.Run("reports the resolving source", func(t *testing.T) {
		gl := newGitLabMocks(t)
		cmd := commands.NewAuthStatusCommand(newTestResolver("glpat-flag"), gl.factory, testutil.Logger())

		result, err := cmd.Execute(context.Background(), commands.AuthStatusRequest{Settings: testSettings})
		require.NoError(t, err)

		assert.Equal(t, "flag", result.Source)
		assert.Empty(t, result.Scopes)
	})

	t.Run("verifies with GitLab", func(t *testing.T) {
		gl := newGitLabMocks(t)
		gl.permissions.On("SelfScopes", mock.Anything).
			Return(nil, apperrors.NewHTTPError(401, "GET", "u", "401 Unauthorized")).Once()
		cmd := commands.NewAuthStatusCommand(newTestResolver("glpat-flag"), gl.factory, testutil.Logger())

		result, err := cmd.Execute(context.Background(), commands.AuthStatusRequest{Settings: testSettings, Verify: true})
		require.Error(t, err)

		assert.True(t, apperrors.IsUnauthorized(err))
		assert.Equal(t, "flag", result.Source)
	})

	t.Run("no credential", func(t *testing.T) {
		gl := newGitLabMocks(t)
		cmd := commands.NewAuthStatusCommand(newTestResolver(""), gl.factory, testutil.Logger())

		_, err := cmd.Execute(context.Background(), commands.AuthStatusRequest{Settings: domain.Settings{Host: testHost}})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrMissingCredential)
	})
}
