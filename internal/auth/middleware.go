package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/logger"
)

// ErrUnknownToken is returned by a MemberLookup when no member has the token.
var ErrUnknownToken = errors.New("unknown token")

// MemberLookup resolves a token hash to a caller.
type MemberLookup interface {
	CallerByTokenHash(ctx context.Context, tokenHash string) (Caller, error)
}

// Authenticate resolves `Authorization: Bearer <token>` to a Caller on the
// request context. Missing, malformed or unknown tokens leave the request
// anonymous; the role gates reject it later.
func Authenticate(members MemberLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		caller, err := members.CallerByTokenHash(ctx, HashToken(token))
		switch {
		case err == nil:
			c.Request = c.Request.WithContext(WithCaller(ctx, caller))
		case errors.Is(err, ErrUnknownToken):
			logger.Debug("unknown bearer token", "path", c.Request.URL.Path)
		default:
			logger.Warn("member lookup failed", "error", err, "path", c.Request.URL.Path)
		}

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
