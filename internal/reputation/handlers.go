package reputation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for reputation
type Handler struct {
	service *Service
}

// NewHandler creates a new reputation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up reputation endpoints. lookupGate is the daily-quota
// middleware for community lookups.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, lookupGate gin.HandlerFunc) {
	r.GET("/reputation/:number", lookupGate, h.GetReputation)
	r.POST("/reputation/report", h.SubmitReport)
}

// GetReputation returns the community record for a single number.
// Unknown numbers return the neutral default record, never 404.
func (h *Handler) GetReputation(c *gin.Context) {
	rec, err := h.service.Lookup(c.Request.Context(), c.Param("number"))
	if errors.Is(err, ErrEmptyNumber) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_number",
			"message": "Phone number is required",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "lookup_failed",
			"message": "Could not look up this number, try again",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record": rec,
		"risky":  rec.Risky(),
	})
}

// ReportRequest is the body for POST /reputation/report
type ReportRequest struct {
	Number   string `json:"number" binding:"required"`
	Category string `json:"category" binding:"required"`
	Label    string `json:"label"`
}

// SubmitReport records a community report for a number.
func (h *Handler) SubmitReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request must include 'number' and 'category'",
		})
		return
	}

	category, err := ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_category",
			"message": "Category must be one of: scam, spam, safe",
		})
		return
	}

	rec, err := h.service.Report(c.Request.Context(), req.Number, category, req.Label)
	if errors.Is(err, ErrEmptyNumber) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_number",
			"message": "Phone number is required",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "report_failed",
			"message": "Could not save this report, try again",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record": rec})
}
