package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"goalbingo/internal/models"
)

const tokenIssuer = "goalbingo"

// ErrInvalidToken is returned for any token that fails signature, expiry or issuer checks
var ErrInvalidToken = errors.New("invalid session token")

type sessionClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens. The token's jti is the
// session ID that CSRF tokens are bound to.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer whose tokens live for ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a session for userID and returns it with its signed token
func (ti *TokenIssuer) Issue(userID string) (models.Session, string, error) {
	now := ti.now()
	session := models.Session{
		ID:        GenerateSessionID(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ti.ttl),
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return models.Session{}, "", fmt.Errorf("sign session token: %w", err)
	}
	return session, signed, nil
}

// Verify parses a token and returns the session it carries
func (ti *TokenIssuer) Verify(token string) (models.Session, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)

	claims := &sessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	if err != nil || !parsed.Valid {
		return models.Session{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return models.Session{}, ErrInvalidToken
	}

	session := models.Session{ID: claims.ID, UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time
	}
	return session, nil
}
