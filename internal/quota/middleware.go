package quota

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmnguyen/scamshield/internal/logging"
)

// Middleware gates a route on the user's daily allowance for a feature.
// Usage is recorded only after the handler answers successfully.
func Middleware(gate *Gate, feature Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		allowed, err := gate.CheckLimit(c.Request.Context(), userID, feature)
		if err != nil {
			logging.L(c.Request.Context()).Error("quota check failed",
				"feature", feature, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "quota check failed",
			})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":   "quota_exceeded",
				"message": "daily limit reached for " + string(feature),
				"upgrade": true,
			})
			return
		}

		c.Next()

		if c.Writer.Status() < 400 {
			if err := gate.Increment(c.Request.Context(), userID, feature); err != nil {
				logging.L(c.Request.Context()).Warn("usage increment failed",
					"feature", feature, "error", err)
			}
		}
	}
}
