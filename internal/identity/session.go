package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeSession = "session"

// ErrEmptyUserID is returned by Issue for a blank identity.
var ErrEmptyUserID = errors.New("user id is required")

// SessionClaims are the JWT claims for a ledger session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}

// SessionTokenIssuer issues and verifies session JWTs signed with a shared
// HMAC secret.
type SessionTokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSessionTokenIssuer creates a SessionTokenIssuer.
//
//	secret: HMAC key; when empty a random 32-byte key is generated, so
//	        tokens stop verifying after a restart.
//	issuer: the "iss" claim value.
//	ttl: token lifetime (default: 12 hours).
func NewSessionTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*SessionTokenIssuer, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &SessionTokenIssuer{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (s *SessionTokenIssuer) TTL() time.Duration { return s.ttl }

// Issue creates a signed session token for userID.
func (s *SessionTokenIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.New().String(),
		},
		UserID: userID,
		Type:   tokenTypeSession,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
func (s *SessionTokenIssuer) Verify(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&SessionClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify session token: %w", err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token claims")
	}
	if claims.Type != tokenTypeSession || claims.UserID == "" {
		return nil, fmt.Errorf("not a session token")
	}
	return claims, nil
}
