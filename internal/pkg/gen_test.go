package pkg

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGameID(t *testing.T) {
	// When: two ids are generated
	first, err := GenerateGameID()
	require.NoError(t, err)
	second, err := GenerateGameID()
	require.NoError(t, err)

	// Then: both are valid v4 UUIDs and differ
	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.NotEqual(t, first, second)
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	other, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, token, 43)
	assert.NotEqual(t, token, other)
	assert.NotContains(t, token, "=")
}
