package profile

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tmnguyen/scamshield/internal/logging"
)

// Handler exposes profile and history endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts profile routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.getProfile)
	rg.PATCH("/profile", h.patchProfile)
	rg.GET("/history", h.listHistory)
}

func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	p, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		logging.L(c.Request.Context()).Error("profile get failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load profile",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	p, err := h.svc.Apply(c.Request.Context(), userID, patch)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *Handler) listHistory(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	recs, err := h.svc.History(c.Request.Context(), userID, limit)
	if err != nil {
		logging.L(c.Request.Context()).Error("history list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load history",
		})
		return
	}
	if recs == nil {
		recs = []CallRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": recs, "count": len(recs)})
}
