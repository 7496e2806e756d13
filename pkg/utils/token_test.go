package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func TestSessionToken_RoundTrip(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	token, err := NewSessionToken(testSecret, userID)
	require.NoError(t, err)

	got, err := ParseSessionToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestParseSessionToken_Expired(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{
		"sub": uuid.New().String(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseSessionToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseSessionToken_Tampered(t *testing.T) {
	t.Parallel()

	token, err := NewSessionToken(testSecret, uuid.New())
	require.NoError(t, err)

	// Flip the last signature character.
	last := token[len(token)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	tampered := token[:len(token)-1] + string(flipped)

	_, err = ParseSessionToken(testSecret, tampered)
	assert.Error(t, err)
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewSessionToken(testSecret, uuid.New())
	require.NoError(t, err)

	_, err = ParseSessionToken("a-different-secret", token)
	assert.Error(t, err)
}

func TestParseSessionToken_UnsignedAlgorithmRejected(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseSessionToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseSessionToken_Garbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not.a.jwt", "aaaa.bbbb"} {
		_, err := ParseSessionToken(testSecret, raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}
