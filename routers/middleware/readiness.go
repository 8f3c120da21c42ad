package middleware

import (
	"net/http"

	"github.com/boring-ventures/peyo-onramp/storage"
	u "github.com/boring-ventures/peyo-onramp/utils"
	"github.com/gin-gonic/gin"
)

// ReadinessMiddleware gates onboarding and deposit address endpoints until
// the database connection is up. Requests arriving during startup get a
// retryable 503 instead of opaque persistence errors.
func ReadinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if storage.GetDB() != nil {
			c.Next()
			return
		}

		u.APIResponse(c, http.StatusServiceUnavailable, "error", "Service warming up, please retry shortly", map[string]interface{}{
			"ready": false,
		})
		c.Abort()
	}
}
