package session

import (
	"fmt"
	"time"

	"github.com/havensuites/concierge/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "concierge"

// Claims are the claims carried by a session token. Sub is the session id.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl bounds how long a client can resume
// a session with the same token.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewSession mints a fresh session id and its token.
func (t *TokenIssuer) NewSession() (id, token string, err error) {
	id = uuid.NewString()
	token, err = t.Sign(id)
	if err != nil {
		return "", "", err
	}
	return id, token, nil
}

// Sign returns a token for an existing session id.
func (t *TokenIssuer) Sign(sessionID string) (string, error) {
	now := t.now()
	claims := Claims{
		Type: "session",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			Issuer:    tokenIssuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate checks a token and returns its session id.
func (t *TokenIssuer) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired session token"}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != "session" || claims.Subject == "" {
		return "", &domain.ErrUnauthorized{Message: "invalid session token"}
	}
	return claims.Subject, nil
}
