package services

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	creds := NewCredentialService([]byte("secret"), bcrypt.MinCost)

	hash, err := creds.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	other, err := creds.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes are salted")

	assert.True(t, creds.VerifyPassword("password123", hash))
	assert.False(t, creds.VerifyPassword("wrong", hash))
	assert.False(t, creds.VerifyPassword("password123", "not-a-hash"))
}

func TestIssueAndParseToken(t *testing.T) {
	creds := NewCredentialService([]byte("secret"), bcrypt.MinCost)
	claims := jwt.MapClaims{"sub": "raj@example.com"}

	token, err := creds.IssueToken(claims, time.Hour)
	require.NoError(t, err)
	_, mutated := claims["exp"]
	assert.False(t, mutated, "input claims are copied")

	parsed, err := creds.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "raj@example.com", TokenSubject(parsed))
	exp := time.Unix(int64(parsed["exp"].(float64)), 0)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
}

func TestParseTokenRejects(t *testing.T) {
	creds := NewCredentialService([]byte("secret"), bcrypt.MinCost).(*credentialService)
	token, err := creds.IssueToken(jwt.MapClaims{"sub": "a@example.com"}, time.Hour)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewCredentialService([]byte("other"), bcrypt.MinCost)
		_, err := other.ParseToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := creds.ParseToken(token[:len(token)-2] + "xx")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("foreign algorithm", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "a@example.com", "exp": time.Now().Add(time.Hour).Unix()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = creds.ParseToken(none)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		creds.now = func() time.Time { return time.Now().Add(61 * time.Minute) }
		defer func() { creds.now = time.Now }()
		_, err := creds.ParseToken(token)
		assert.True(t, errors.Is(err, ErrTokenExpired))
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}

func TestTokenSubjectFallsBackToUsername(t *testing.T) {
	assert.Equal(t, "a@example.com", TokenSubject(jwt.MapClaims{"username": "a@example.com"}))
	assert.Equal(t, "b@example.com", TokenSubject(jwt.MapClaims{"sub": "b@example.com", "username": "a@example.com"}))
	assert.Equal(t, "", TokenSubject(jwt.MapClaims{}))
}
