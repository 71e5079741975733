package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"audio-sessions/internal/api/middleware"
	"audio-sessions/internal/api/v1/services"
)

// ArchiveHandler handles artifact archive requests
type ArchiveHandler struct {
	service services.ArchiveService
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(service services.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{service: service}
}

// Archive handles POST /api/v1/sessions/:id/archive
func (h *ArchiveHandler) Archive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	response, err := h.service.ArchiveSession(c.Request.Context(), id)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}
