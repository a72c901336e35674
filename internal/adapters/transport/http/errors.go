package http

import (
	"net/http"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/gin-gonic/gin"
)

// handleError writes the public form of err. Details of internal failures
// stay in the request log.
func handleError(c *gin.Context, err error) {
	switch {
	case customErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case customErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": customErrors.ErrInvalidCredentials.Error()})
	case customErrors.IsMissingBearer(err):
		c.Header("WWW-Authenticate", `Bearer realm="session-auth"`)
		c.JSON(http.StatusUnauthorized, gin.H{"error": customErrors.ErrMissingBearer.Error()})
	case customErrors.IsInvalidToken(err):
		c.Header("WWW-Authenticate", `Bearer realm="session-auth", error="invalid_token"`)
		c.JSON(http.StatusUnauthorized, gin.H{"error": customErrors.ErrInvalidToken.Error()})
	case customErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": customErrors.ErrAlreadyExists.Error()})
	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": customErrors.ErrNotFound.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
