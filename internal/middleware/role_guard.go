package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeline/internal/pkg/apperrors"
)

func RoleGuard(required ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(required))
	for _, r := range required {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.GetString("role")] {
			c.AbortWithStatusJSON(http.StatusForbidden, apperrors.ErrorResponse{
				Error: apperrors.ErrorBody{
					Code:    "FORBIDDEN",
					Message: "insufficient permissions",
				},
			})
			return
		}

		c.Next()
	}
}
