package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/connecthq/connect/internal/auth"
	"github.com/connecthq/connect/pkg/errors"
	"github.com/connecthq/connect/pkg/response"
)

const CtxUserIDKey = "userID"

// Auth enforces bearer-token authentication using the supplied token service.
func Auth(tokens *iauth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		userID, err := tokens.ValidateAccess(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, userID)

		c.Next()
	}
}
