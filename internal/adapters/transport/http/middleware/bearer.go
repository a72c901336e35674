package middleware

import (
	"net/http"
	"strings"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/claim"
	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/gin-gonic/gin"
)

const claimKey = "auth.claim"

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", customErrors.ErrMissingBearer
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", customErrors.ErrMissingBearer
	}
	return token, nil
}

// RequireClaim aborts with 401 unless the request carries a valid bearer
// token of subject type S. The decoded claim is available via ClaimFrom.
func RequireClaim[S claim.Subject](codec *claim.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		dec, err := claim.Verify[S](codec, raw)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		c.Set(claimKey, dec)
		c.Next()
	}
}

func ClaimFrom[S claim.Subject](c *gin.Context) (claim.Decoded[S], bool) {
	v, ok := c.Get(claimKey)
	if !ok {
		return claim.Decoded[S]{}, false
	}
	dec, ok := v.(claim.Decoded[S])
	return dec, ok
}

func abortUnauthorized(c *gin.Context, err error) {
	msg := customErrors.ErrInvalidToken.Error()
	if customErrors.IsMissingBearer(err) {
		msg = customErrors.ErrMissingBearer.Error()
	}
	c.Header("WWW-Authenticate", `Bearer realm="session-auth"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
