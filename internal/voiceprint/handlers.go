package voiceprint

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tmnguyen/scamshield/internal/logging"
)

// Handler exposes voice-sample storage and the deepfake scan endpoint.
type Handler struct {
	store   Store
	scanner *Scanner
}

func NewHandler(store Store, scanner *Scanner) *Handler {
	return &Handler{store: store, scanner: scanner}
}

// RegisterRoutes mounts voiceprint routes on the given group. scanGate is
// the daily-quota middleware for the scan endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, scanGate gin.HandlerFunc) {
	rg.POST("/voiceprints", h.putSample)
	rg.GET("/voiceprints/:id", h.getSample)
	rg.POST("/scan/deepfake", scanGate, h.scanDeepfake)
}

type sampleRequest struct {
	ID       string `json:"id"`
	Audio    string `json:"audio" binding:"required"` // base64
	MimeType string `json:"mimeType" binding:"required"`
}

func (h *Handler) putSample(c *gin.Context) {
	var req sampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	blob, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil || len(blob) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "audio must be non-empty base64",
		})
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	if err := h.store.Put(c.Request.Context(), id, blob, req.MimeType); err != nil {
		logging.L(c.Request.Context()).Error("voiceprint store failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to store sample",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) getSample(c *gin.Context) {
	blob, mime, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "no sample with that id",
			})
			return
		}
		logging.L(c.Request.Context()).Error("voiceprint get failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load sample",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       c.Param("id"),
		"mimeType": mime,
		"audio":    base64.StdEncoding.EncodeToString(blob),
	})
}

type scanRequest struct {
	Audio    string `json:"audio" binding:"required"` // base64
	MimeType string `json:"mimeType" binding:"required"`
}

func (h *Handler) scanDeepfake(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil || len(audio) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "audio must be non-empty base64",
		})
		return
	}

	result, err := h.scanner.Scan(c.Request.Context(), audio, req.MimeType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
