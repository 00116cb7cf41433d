package middleware

import (
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"eventhub/internal/auth"
)

const identityKey = "identity"

// Identify resolves the caller's identity from the Authorization header. A
// missing or invalid token leaves the request anonymous; each endpoint
// decides what anonymous callers may do.
func Identify(verifier auth.Verifier) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		if verifier != nil {
			header := c.GetHeader("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				ident, err := verifier.Verify(c.Request.Context(), token)
				if err != nil {
					zlog.Logger.Debug().Err(err).Msg("bearer token rejected")
				} else {
					c.Set(identityKey, ident)
				}
			}
		}
		c.Next()
	}
}

// IdentityFrom returns the verified caller, or the anonymous identity.
func IdentityFrom(c *ginext.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(auth.Identity); ok {
			return ident
		}
	}
	return auth.Identity{}
}
