// Package auth issues and verifies the signed session tokens that guard the
// REST API and the realtime channel.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token fails signature, expiry, or shape
// checks. Callers map it to 403.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the decoded subject of a session token.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsPatient reports whether the identity carries the patient role.
func (id Identity) IsPatient() bool { return id.Role == "patient" }

// IsCaretaker reports whether the identity carries the caretaker role.
func (id Identity) IsCaretaker() bool { return id.Role == "caretaker" }

// Claims is the JWT payload: the identity plus standard registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager with the given signing secret and
// token lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token embedding the identity, valid for the configured TTL.
func (m *TokenManager) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID:   id.ID,
		Username: id.Username,
		Role:     id.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning the embedded identity.
func (m *TokenManager) Verify(tokenStr string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}
