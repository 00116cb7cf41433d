// Package auth adapts the external identity provider. The service never
// manages credentials itself: callers present a bearer JWT minted by the
// provider, and auth only verifies it and extracts the identity.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller. The zero value is the anonymous caller.
type Identity struct {
	Subject string
	Email   string
}

func (i Identity) Anonymous() bool {
	return i.Subject == ""
}

// NormalizeEmail is the single place email comparisons are made
// case-insensitive. Every stored and compared email goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (c *claims) identity() (Identity, error) {
	if c.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Subject: c.Subject, Email: NormalizeEmail(c.Email)}, nil
}

// JWKSVerifier validates signatures against the provider's published JWKS.
type JWKSVerifier struct {
	keys keyfunc.Keyfunc
}

func NewJWKSVerifier(ctx context.Context, jwksURL string) (*JWKSVerifier, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, err
	}
	return &JWKSVerifier{keys: keys}, nil
}

func (v *JWKSVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, v.keys.Keyfunc)
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	return c.identity()
}

// HMACVerifier validates tokens signed with a shared secret. Used in
// development setups without a reachable JWKS endpoint, and by tests.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret []byte) *HMACVerifier {
	return &HMACVerifier{secret: secret}
}

func (v *HMACVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	return c.identity()
}
