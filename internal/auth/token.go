package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hongminglow/messagely/internal/models"
)

// Claims is the signed token payload: the public user record plus registered claims.
type Claims struct {
	User Identity `json:"user"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens with a process-wide secret.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
// A zero ttl issues tokens without an expiry.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue signs a token embedding the public fields of user.
func (t *TokenManager) Issue(user models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		User: IdentityOf(user),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and registered claims of raw and returns the embedded identity.
// Every failure wraps ErrUnauthenticated.
func (t *TokenManager) Verify(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.User.Username == "" || claims.Subject != claims.User.Username {
		return Identity{}, fmt.Errorf("%w: token subject does not match payload", ErrUnauthenticated)
	}
	return claims.User, nil
}
