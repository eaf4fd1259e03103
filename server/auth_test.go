package main

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuth(t *testing.T, password string) *Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuth(AdminConfig{PasswordHash: string(hash), TokenTTL: time.Hour})
}

func TestAuthLogin(t *testing.T) {
	a := testAuth(t, "hunter22")

	token, err := a.Login("hunter22", "1.1.1.1")
	require.NoError(t, err)
	assert.NoError(t, a.ValidateToken(token))

	_, err = a.Login("wrong", "1.1.1.1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthDisabled(t *testing.T) {
	a := NewAuth(AdminConfig{TokenTTL: time.Hour})
	_, err := a.Login("", "1.1.1.1")
	assert.ErrorIs(t, err, ErrAdminDisabled)
}

func TestAuthRejectsForeignTokens(t *testing.T) {
	a := testAuth(t, "hunter22")
	other := testAuth(t, "hunter22")

	token, err := other.Login("hunter22", "1.1.1.1")
	require.NoError(t, err)
	assert.ErrorIs(t, a.ValidateToken(token), ErrUnauthorized)
	assert.ErrorIs(t, a.ValidateToken("garbage"), ErrUnauthorized)

	wrongSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "player",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := wrongSub.SignedString(a.jwtSecret)
	require.NoError(t, err)
	assert.ErrorIs(t, a.ValidateToken(signed), ErrUnauthorized)
}

func TestAuthExpiredToken(t *testing.T) {
	a := testAuth(t, "hunter22")
	token, err := a.generateToken(time.Now().Add(-2 * time.Hour))
	require.NoError(t, err)
	assert.ErrorIs(t, a.ValidateToken(token), ErrUnauthorized)
}

func TestAuthLoginRateLimit(t *testing.T) {
	a := testAuth(t, "hunter22")
	for i := 0; i < maxLoginAttempts; i++ {
		a.Login("wrong", "6.6.6.6")
	}
	_, err := a.Login("hunter22", "6.6.6.6")
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = a.Login("hunter22", "7.7.7.7")
	assert.NoError(t, err)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)

	hash, err := HashPassword("long enough")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("long enough")))
}
