package callsession

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the call-session endpoints.
type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

// RegisterRoutes mounts call routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/calls/incoming", h.start(DirectionIncoming))
	rg.POST("/calls/outgoing", h.start(DirectionOutgoing))
	rg.POST("/calls/:id/answer", h.transition(h.mgr.Answer))
	rg.POST("/calls/:id/hangup", h.transition(h.mgr.HangUp))
	rg.POST("/calls/:id/reject", h.transition(h.mgr.Reject))
	rg.POST("/calls/:id/block", h.transition(h.mgr.Block))
	rg.GET("/calls/active", h.active)
}

type startRequest struct {
	Number string `json:"number" binding:"required"`
}

func (h *Handler) start(dir Direction) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var req startRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": err.Error(),
			})
			return
		}

		sess, err := h.mgr.Start(c.Request.Context(), userID, req.Number, dir)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"session": sess})
	}
}

func (h *Handler) transition(fn func(ctx context.Context, userID, sessionID string) (*Session, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		sess, err := fn(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{
					"error":   "not_found",
					"message": "no such call session",
				})
			case errors.Is(err, ErrFinished), errors.Is(err, ErrBadTransition):
				c.JSON(http.StatusConflict, gin.H{
					"error":   "invalid_state",
					"message": err.Error(),
				})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "internal_error",
					"message": err.Error(),
				})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": sess})
	}
}

func (h *Handler) active(c *gin.Context) {
	userID := c.GetString("user_id")
	sess := h.mgr.Active(c.Request.Context(), userID)
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}
