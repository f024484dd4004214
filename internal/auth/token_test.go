package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:         42,
		Username:   "dispatcher",
		IsActive:   true,
		IsAdmin:    true,
		IsExecutor: true,
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute)

	tokenStr, expiresAt, err := tm.GenerateToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.ElementsMatch(t, []domain.Role{domain.RoleAdmin, domain.RoleExecutor}, claims.Roles)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tokenStr, _, err := NewTokenManager("secret-a", time.Minute).GenerateToken(testUser())
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Minute).ParseToken(tokenStr)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	claims := &Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.ParseToken(tokenStr)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongMethod(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: 42}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.ParseToken(tokenStr)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	_, err := tm.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
