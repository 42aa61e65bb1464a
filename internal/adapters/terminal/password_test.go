package terminal

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_ReadPassword_FromPipe(t *testing.T) {
	var stderr bytes.Buffer
	adapter := NewAdapter(strings.NewReader("glpat-secret-value\nignored\n"), &stderr)

	assert.False(t, adapter.IsInteractive())

	token, err := adapter.ReadPassword(context.Background(), "Token: ")
	require.NoError(t, err)
	assert.Equal(t, "glpat-secret-value", token)
	assert.Empty(t, stderr.String(), "no prompt is printed for piped input")
}

func TestAdapter_ReadPassword_NoTrailingNewline(t *testing.T) {
	adapter := NewAdapter(strings.NewReader("  glpat-abc  "), &bytes.Buffer{})

	token, err := adapter.ReadPassword(context.Background(), "Token: ")
	require.NoError(t, err)
	assert.Equal(t, "glpat-abc", token)
}

func TestAdapter_ReadPassword_Empty(t *testing.T) {
	adapter := NewAdapter(strings.NewReader("\n"), &bytes.Buffer{})

	_, err := adapter.ReadPassword(context.Background(), "Token: ")
	require.Error(t, err)
}

func TestAdapter_ReadPassword_CancelledContext(t *testing.T) {
	adapter := NewAdapter(strings.NewReader("token\n"), &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.ReadPassword(ctx, "Token: ")
	require.ErrorIs(t, err, context.Canceled)
}
