package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hash)

	require.True(t, VerifyPassword(hash, "s3cret-password"))
	require.False(t, VerifyPassword(hash, "wrong-password"))
	require.False(t, VerifyPassword("", "s3cret-password"))
}

func TestHashPasswordSalts(t *testing.T) {
	first, err := HashPassword("same-input")
	require.NoError(t, err)
	second, err := HashPassword("same-input")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestGenerateVerificationCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		require.GreaterOrEqual(t, code, 100000)
		require.LessOrEqual(t, code, 999999)
	}
}

func TestGenerateTokenUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := GenerateToken(32)
		require.NoError(t, err)
		require.NotEmpty(t, token)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
