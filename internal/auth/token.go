package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken mints an HMAC token for the given subject/email. Only the
// development verifier accepts these; production tokens come from the
// identity provider.
func GenerateToken(subject, email string, secret []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		Email: email,
	})
	return token.SignedString(secret)
}
