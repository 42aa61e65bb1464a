package environment

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

type staticSource struct {
	name  string
	value string
	err   error
	calls int
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Lookup(context.Context, string) (string, error) {
	s.calls++
	return s.value, s.err
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func newTestResolver(
	remote domain.RemoteInspector,
	sources []domain.CredentialSource,
	env map[string]string,
) *Resolver {
	return NewResolver(remote, sources, envMap(env), testutil.Logger())
}

func tokenSource(value string) []domain.CredentialSource {
	return []domain.CredentialSource{&staticSource{name: SourceFlag, value: value}}
}

func TestResolver_ExplicitConfigWins(t *testing.T) {
	remote := mocks.NewMockRemoteInspector(t)
	resolver := newTestResolver(remote, tokenSource("glpat-x"), map[string]string{
		"GITLAB_CI":       "true",
		"CI_SERVER_HOST":  "ci.example.com",
		"CI_PROJECT_PATH": "ci/project",
	})

	env, err := resolver.Resolve(context.Background(), domain.Settings{
		Host:    "gitlab.example.com",
		Project: "group/app",
		UserID:  7,
	})
	require.NoError(t, err)

	assert.Equal(t, "gitlab.example.com", env.Host)
	assert.Equal(t, "https", env.Scheme)
	assert.Equal(t, "group/app", env.ProjectPath)
	assert.Equal(t, "group%2Fapp", env.EncodedProjectPath)
	assert.Equal(t, 7, env.UserID)
	assert.Equal(t, "config", env.ProjectSource)
	assert.Equal(t, "https://gitlab.example.com/api/v4", env.APIBaseURL())
	remote.AssertNotCalled(t, "RemoteURL", mock.Anything, mock.Anything)
}

func TestResolver_GitRemote(t *testing.T) {
	remote := mocks.NewMockRemoteInspector(t)
	remote.On("RemoteURL", mock.Anything, "upstream").Return("git@gitlab.com:group/sub/app.git", nil)

	resolver := newTestResolver(remote, tokenSource("glpat-x"), nil)
	env, err := resolver.Resolve(context.Background(), domain.Settings{Remote: "upstream"})
	require.NoError(t, err)

	assert.Equal(t, "gitlab.com", env.Host)
	assert.Equal(t, "group/sub/app", env.ProjectPath)
	assert.Equal(t, "group%2Fsub%2Fapp", env.EncodedProjectPath)
	assert.Equal(t, "git:upstream", env.ProjectSource)
	assert.Zero(t, env.UserID)
}

func TestResolver_GitRemoteKeepsHTTPScheme(t *testing.T) {
	remote := mocks.NewMockRemoteInspector(t)
	remote.On("RemoteURL", mock.Anything, "origin").Return("http://gitlab.local:8080/group/app.git", nil)

	resolver := newTestResolver(remote, tokenSource("glpat-x"), nil)
	env, err := resolver.Resolve(context.Background(), domain.Settings{})
	require.NoError(t, err)

	assert.Equal(t, "http://gitlab.local:8080/api/v4", env.APIBaseURL())
}

func TestResolver_PipelineFallback(t *testing.T) {
	remote := mocks.NewMockRemoteInspector(t)
	remote.On("RemoteURL", mock.Anything, "origin").Return("", errors.New("not a git repository"))

	resolver := newTestResolver(remote, tokenSource("glpat-x"), map[string]string{
		"GITLAB_CI":       "true",
		"CI_SERVER_HOST":  "gitlab.example.com",
		"CI_PROJECT_PATH": "group/app",
		"GITLAB_USER_ID":  "314",
	})

	env, err := resolver.Resolve(context.Background(), domain.Settings{})
	require.NoError(t, err)

	assert.Equal(t, "gitlab.example.com", env.Host)
	assert.Equal(t, "group/app", env.ProjectPath)
	assert.Equal(t, "pipeline", env.ProjectSource)
	assert.Equal(t, 314, env.UserID)
}

func TestResolver_PipelineVariablesIgnoredOutsidePipeline(t *testing.T) {
	remote := mocks.NewMockRemoteInspector(t)
	remote.On("RemoteURL", mock.Anything, "origin").Return("", errors.New("not a git repository"))

	resolver := newTestResolver(remote, tokenSource("glpat-x"), map[string]string{
		"CI_SERVER_HOST":  "gitlab.example.com",
		"CI_PROJECT_PATH": "group/app",
	})

	_, err := resolver.Resolve(context.Background(), domain.Settings{})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestResolver_MissingGitWithoutPipeline(t *testing.T) {
	remote := mocks.NewMockRemoteInspector(t)
	remote.On("RemoteURL", mock.Anything, "origin").
		Return("", apperrors.NewMissingToolError("git", errors.New("executable file not found")))

	resolver := newTestResolver(remote, tokenSource("glpat-x"), nil)
	_, err := resolver.Resolve(context.Background(), domain.Settings{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMissingTool)
	assert.True(t, apperrors.IsPrecondition(err))
}

func TestResolver_MissingGitInsidePipeline(t *testing.T) {
	remote := mocks.NewMockRemoteInspector(t)
	remote.On("RemoteURL", mock.Anything, "origin").
		Return("", apperrors.NewMissingToolError("git", errors.New("executable file not found")))

	resolver := newTestResolver(remote, tokenSource("glpat-x"), map[string]string{
		"CI":              "true",
		"CI_SERVER_HOST":  "gitlab.example.com",
		"CI_PROJECT_PATH": "group/app",
	})

	env, err := resolver.Resolve(context.Background(), domain.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "group/app", env.ProjectPath)
}

func TestResolver_InvalidScheme(t *testing.T) {
	resolver := newTestResolver(nil, tokenSource("glpat-x"), nil)

	_, err := resolver.Resolve(context.Background(), domain.Settings{
		Host:    "gitlab.example.com",
		Scheme:  "ftp",
		Project: "group/app",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestResolver_CredentialPrecedence(t *testing.T) {
	tests := []struct {
		name           string
		flag, env, kr  string
		expectedValue  string
		expectedSource string
	}{
		{name: "flag first", flag: "from-flag", env: "from-env", kr: "from-keyring", expectedValue: "from-flag", expectedSource: "flag"},
		{name: "env second", env: "from-env", kr: "from-keyring", expectedValue: "from-env", expectedSource: "env:GITLAB_TOKEN"},
		{name: "keyring last", kr: "from-keyring", expectedValue: "from-keyring", expectedSource: "keyring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockCredentialStore(t)
			store.On("Get", "gitlab.example.com").Return(tt.kr, nil).Maybe()

			sources := DefaultSources(tt.flag, envMap(map[string]string{"GITLAB_TOKEN": tt.env}), store)
			resolver := newTestResolver(nil, sources, nil)

			value, source, err := resolver.ResolveCredential(context.Background(), "gitlab.example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedValue, value)
			assert.Equal(t, tt.expectedSource, source)
		})
	}
}

func TestResolver_CredentialStopsAtFirstMatch(t *testing.T) {
	first := &staticSource{name: "first", value: "one"}
	second := &staticSource{name: "second", value: "two"}

	resolver := newTestResolver(nil, []domain.CredentialSource{first, second}, nil)
	value, source, err := resolver.ResolveCredential(context.Background(), "h")
	require.NoError(t, err)

	assert.Equal(t, "one", value)
	assert.Equal(t, "first", source)
	assert.Equal(t, 0, second.calls)
}

func TestResolver_CredentialSkipsFailingSource(t *testing.T) {
	broken := &staticSource{name: "keyring", err: errors.New("dbus unavailable")}
	fallback := &staticSource{name: "other", value: "tok"}

	resolver := newTestResolver(nil, []domain.CredentialSource{broken, fallback}, nil)
	value, source, err := resolver.ResolveCredential(context.Background(), "h")
	require.NoError(t, err)

	assert.Equal(t, "tok", value)
	assert.Equal(t, "other", source)
}

func TestResolver_MissingCredentialNamesAllSources(t *testing.T) {
	store := mocks.NewMockCredentialStore(t)
	store.On("Get", "gitlab.example.com").Return("", nil)

	sources := DefaultSources("", envMap(nil), store)
	resolver := newTestResolver(nil, sources, nil)

	_, err := resolver.Resolve(context.Background(), domain.Settings{Host: "gitlab.example.com", Project: "group/app"})
	require.Error(t, err)

	assert.ErrorIs(t, err, apperrors.ErrMissingCredential)
	assert.Contains(t, err.Error(), "flag")
	assert.Contains(t, err.Error(), "env:GITLAB_TOKEN")
	assert.Contains(t, err.Error(), "keyring")
}

func TestResolver_ResolveHost(t *testing.T) {
	resolver := newTestResolver(nil, nil, nil)

	host, scheme, err := resolver.ResolveHost(context.Background(), domain.Settings{Host: "gitlab.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "gitlab.example.com", host)
	assert.Equal(t, "https", scheme)
}
