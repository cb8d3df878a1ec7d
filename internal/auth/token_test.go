package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/messagely/internal/models"
)

const testSecret = "test-secret"

func testUser() models.User {
	lastLogin := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	return models.User{
		Username:     "alice",
		PasswordHash: "$2a$10$shouldneverleak",
		FirstName:    "Alice",
		LastName:     "Liddell",
		Phone:        "+15550001111",
		JoinAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		LastLoginAt:  &lastLogin,
	}
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	tm := NewTokenManager(testSecret, "messagely", time.Hour)
	user := testUser()

	token, err := tm.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "Alice", id.FirstName)
	assert.Equal(t, "Liddell", id.LastName)
	assert.Equal(t, "+15550001111", id.Phone)
	assert.True(t, id.JoinAt.Equal(user.JoinAt))
	require.NotNil(t, id.LastLoginAt)
	assert.True(t, id.LastLoginAt.Equal(*user.LastLoginAt))
}

func TestTokenManager_PayloadOmitsHash(t *testing.T) {
	tm := NewTokenManager(testSecret, "messagely", time.Hour)
	token, err := tm.Issue(testUser())
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)

	user, ok := claims["user"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "PasswordHash")
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, "messagely", claims["iss"])
	assert.NotContains(t, token, "shouldneverleak")
}

func TestTokenManager_NoExpiryWhenTTLZero(t *testing.T) {
	tm := NewTokenManager(testSecret, "messagely", 0)
	token, err := tm.Issue(testUser())
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.NotContains(t, parsed.Claims.(jwt.MapClaims), "exp")

	_, err = tm.Verify(token)
	assert.NoError(t, err)
}

func TestTokenManager_VerifyRejects(t *testing.T) {
	tm := NewTokenManager(testSecret, "messagely", time.Hour)
	valid, err := tm.Issue(testUser())
	require.NoError(t, err)

	otherKey, err := NewTokenManager("other-secret", "messagely", time.Hour).Issue(testUser())
	require.NoError(t, err)
	otherIssuer, err := NewTokenManager(testSecret, "someone-else", time.Hour).Issue(testUser())
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		User: IdentityOf(testUser()),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "messagely",
			Subject:   "alice",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		User:             IdentityOf(testUser()),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "messagely", Subject: "alice"},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	mismatched := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		User:             IdentityOf(testUser()),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "messagely", Subject: "mallory"},
	})
	mismatchedToken, err := mismatched.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not.a.token"},
		{"random string", "randomstring"},
		{"tampered signature", tampered},
		{"wrong secret", otherKey},
		{"wrong issuer", otherIssuer},
		{"expired", expired},
		{"alg none", unsigned},
		{"subject mismatch", mismatchedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Verify(tt.token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.NotContains(t, err.Error(), testSecret)
		})
	}
}
