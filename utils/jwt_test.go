package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateToken(7, "admin")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseTokenRejectsGarbageAndRevoked(t *testing.T) {
	SetJWTSecret("test-secret")

	_, err := ParseToken("not-a-token")
	assert.Error(t, err)

	token, err := GenerateToken(1, "admin")
	require.NoError(t, err)
	BlacklistToken(token)

	_, err = ParseToken(token)
	assert.Error(t, err)
}
