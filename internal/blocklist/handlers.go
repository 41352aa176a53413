package blocklist

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmnguyen/scamshield/internal/logging"
	"github.com/tmnguyen/scamshield/internal/reputation"
)

// Handler exposes blocklist endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts blocklist routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/blocklist", h.list)
	rg.POST("/blocklist", h.block)
	rg.DELETE("/blocklist/:number", h.unblock)
}

type blockRequest struct {
	Number string `json:"number" binding:"required"`
}

func (h *Handler) block(c *gin.Context) {
	userID := c.GetString("user_id")

	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request must include 'number'",
		})
		return
	}

	if err := h.svc.Block(c.Request.Context(), userID, req.Number); err != nil {
		if err == reputation.ErrEmptyNumber {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_number",
				"message": "Phone number is required",
			})
			return
		}
		logging.L(c.Request.Context()).Error("block failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Could not block this number, try again",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"blocked": true})
}

func (h *Handler) unblock(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.svc.Unblock(c.Request.Context(), userID, c.Param("number")); err != nil {
		logging.L(c.Request.Context()).Error("unblock failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Could not unblock this number, try again",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": false})
}

func (h *Handler) list(c *gin.Context) {
	userID := c.GetString("user_id")

	entries, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		logging.L(c.Request.Context()).Error("blocklist list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Could not load the blocklist, try again",
		})
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"numbers": entries, "count": len(entries)})
}
