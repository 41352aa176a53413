package classify

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler exposes the classification endpoints.
type Handler struct {
	classifier *Classifier
	scorer     *ContextScorer
}

func NewHandler(classifier *Classifier, scorer *ContextScorer) *Handler {
	return &Handler{classifier: classifier, scorer: scorer}
}

// RegisterRoutes mounts classify routes on the given group. messageGate is
// the daily-quota middleware for message scans.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, messageGate gin.HandlerFunc) {
	rg.POST("/classify/message", messageGate, h.classifyMessage)
	rg.POST("/classify/call", h.classifyCall)
	rg.POST("/classify/context", h.scoreContext)
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) classifyMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request must include 'text'",
		})
		return
	}

	verdict, err := h.classifier.ClassifyMessage(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "Message text is empty",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "classification_failed",
			"message": "Could not classify this message, try again",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": verdict})
}

type callRequest struct {
	Number          string `json:"number" binding:"required"`
	ContactName     string `json:"contactName"`
	DurationSeconds int    `json:"durationSeconds"`
}

func (h *Handler) classifyCall(c *gin.Context) {
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request must include 'number'",
		})
		return
	}

	assessment := ClassifyCall(CallInfo{
		Number:      req.Number,
		ContactName: req.ContactName,
		Duration:    time.Duration(req.DurationSeconds) * time.Second,
	})
	c.JSON(http.StatusOK, gin.H{"result": assessment})
}

type contextRequest struct {
	Text         string `json:"text" binding:"required"`
	KnownContact bool   `json:"knownContact"`
}

func (h *Handler) scoreContext(c *gin.Context) {
	var req contextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request must include 'text'",
		})
		return
	}

	score := h.scorer.Score(req.Text, req.KnownContact)
	c.JSON(http.StatusOK, gin.H{"score": score})
}
