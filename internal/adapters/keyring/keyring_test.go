package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	store := New()

	token, err := store.Get("gitlab.example.com")
	require.NoError(t, err)
	assert.Empty(t, token, "missing entry is reported as empty")

	require.NoError(t, store.Set("gitlab.example.com", "glpat-one"))
	require.NoError(t, store.Set("gitlab.other.com", "glpat-two"))

	token, err = store.Get("gitlab.example.com")
	require.NoError(t, err)
	assert.Equal(t, "glpat-one", token)

	require.NoError(t, store.Delete("gitlab.example.com"))
	token, err = store.Get("gitlab.example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = store.Get("gitlab.other.com")
	require.NoError(t, err)
	assert.Equal(t, "glpat-two", token)
}

func TestStore_DeleteMissing(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, New().Delete("never-stored.example.com"))
}
