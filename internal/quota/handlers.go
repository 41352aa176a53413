package quota

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmnguyen/scamshield/internal/logging"
)

// Handler exposes the usage endpoint.
type Handler struct {
	gate   *Gate
	limits Limits
}

func NewHandler(gate *Gate, limits Limits) *Handler {
	return &Handler{gate: gate, limits: limits}
}

// RegisterRoutes mounts the usage route on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.usage)
}

func (h *Handler) usage(c *gin.Context) {
	userID := c.GetString("user_id")

	counters, err := h.gate.Usage(c.Request.Context(), userID)
	if err != nil {
		logging.L(c.Request.Context()).Error("usage read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Could not load usage, try again",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"usage": gin.H{
			"deepfakeScans": counters.DeepfakeScans,
			"messageScans":  counters.MessageScans,
			"callLookups":   counters.CallLookups,
			"resetDate":     counters.LastResetDate,
		},
		"limits": gin.H{
			"deepfakeScans": h.limits.DeepfakeScans,
			"messageScans":  h.limits.MessageScans,
			"callLookups":   h.limits.CallLookups,
		},
	})
}
