package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajcoder25/bookverse/pkg/auth"
	"github.com/ajcoder25/bookverse/pkg/global"
)

const userIDKey = "user_id"

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject under "user_id".
func RequireAuth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, global.ErrorResponse("Authorization header required", []global.ValidationError{
				{Field: "Authorization", Message: "Bearer token is required", Code: "required"},
			}))
			return
		}

		userID, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
