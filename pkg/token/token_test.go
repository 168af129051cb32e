package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	InitSecretKey(1)

	userID := "cccccccc-0000-0000-0000-000000000001"
	signed, err := GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	parsed, err := ParseToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	InitSecretKey(1)

	_, err := ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	InitSecretKey(1)
	signed, err := GenerateToken("user-x")
	require.NoError(t, err)

	// 换一把密钥后旧token应全部失效
	secretKey = []byte("another-secret-entirely")
	_, err = ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
