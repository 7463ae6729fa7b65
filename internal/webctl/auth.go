// Package webctl serves the latest JPEG per camera, exposes JWT+bcrypt
// gated action toggles, and broadcasts frames over a websocket: the
// external-interface control HTTP surface. This is deliberately a minimal
// net/http mux, not a generated Goa service: the control surface here is
// a handful of toggle endpoints, not a modeled
// API needing codegen.
package webctl

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload issued on successful login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator verifies a bcrypt-hashed password and issues/validates
// HMAC-signed JWTs, following an auth.go + jwt.go split (credential check
// separate from token issuance).
type Authenticator struct {
	secret       []byte
	passwordHash []byte
	username     string
	ttl          time.Duration
}

// NewAuthenticator builds an Authenticator for a single configured user
// (web control has one operator account, following a single-admin
// webcontrol model).
func NewAuthenticator(username, passwordHash string, secret []byte, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Authenticator{secret: secret, passwordHash: []byte(passwordHash), username: username, ttl: ttl}
}

// HashPassword bcrypt-hashes a plaintext password for storage in config.
func HashPassword(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("webctl: hash password: %w", err)
	}
	return string(h), nil
}

// Login verifies username/password and issues a signed JWT on success.
func (a *Authenticator) Login(username, password string) (string, error) {
	if username != a.username {
		return "", errors.New("webctl: unknown user")
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", errors.New("webctl: bad credentials")
	}

	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("webctl: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token, returning its claims.
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("webctl: unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("webctl: invalid token: %w", err)
	}
	return claims, nil
}
