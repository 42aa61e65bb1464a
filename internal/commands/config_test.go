package commands_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tokenkeeper/internal/commands"
	apperrors "tokenkeeper/internal/errors"
	"tokenkeeper/internal/mocks"
	"tokenkeeper/internal/services/config"
	"tokenkeeper/internal/testutil"
)

const testConfigPath = "/home/ci/.config/tokenkeeper/config.yaml"

func TestConfigInitCommand_WritesFile(t *testing.T) {
	fs := mocks.NewMockFileSystemAdapter(t)
	fs.On("Stat", testConfigPath).Return(nil, os.ErrNotExist).Once()
	fs.On("MkdirAll", "/home/ci/.config/tokenkeeper", os.FileMode(0o700)).Return(nil).Once()
	fs.On("WriteFile", testConfigPath, mock.MatchedBy(func(data []byte) bool {
		return assert.Contains(t, string(data), "host: gitlab.example.com") &&
			assert.NotContains(t, string(data), "glpat-operator")
	}), os.FileMode(0o600)).Return(nil).Once()

	repo := config.NewRepository(fs, testConfigPath, testutil.Logger())
	cmd := commands.NewConfigInitCommand(repo, testutil.Logger())

	path, err := cmd.Execute(context.Background(), commands.ConfigInitRequest{Settings: testSettings, LogFormat: "json"})
	require.NoError(t, err)
	assert.Equal(t, testConfigPath, path)
}

func TestConfigInitCommand_RefusesOverwrite(t *testing.T) {
	fs := mocks.NewMockFileSystemAdapter(t)
	fs.On("Stat", testConfigPath).Return(nil, nil).Once()

	repo := config.NewRepository(fs, testConfigPath, testutil.Logger())
	cmd := commands.NewConfigInitCommand(repo, testutil.Logger())

	_, err := cmd.Execute(context.Background(), commands.ConfigInitRequest{Settings: testSettings})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	fs.AssertNotCalled(t, "WriteFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestShowConfig_MasksToken(t *testing.T) {
	entries := commands.ShowConfig(testSettings, "text", "")

	values := map[string]any{}
	for _, entry := range entries {
		values[entry.Key] = entry.Value
	}

	assert.Equal(t, testHost, values["gitlab.host"])
	assert.NotEqual(t, testSettings.Token, values["token"])
	assert.NotContains(t, values["token"], "operator")
}

func TestShowConfig_UnsetToken(t *testing.T) {
	settings := testSettings
	settings.Token = ""

	for _, entry := range commands.ShowConfig(settings, "text", "") {
		if entry.Key == "token" {
			assert.Equal(t, "(not set)", entry.Value)
		}
	}
}
