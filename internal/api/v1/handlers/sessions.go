package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"audio-sessions/internal/api/errors"
	"audio-sessions/internal/api/middleware"
	"audio-sessions/internal/api/v1/dto"
	"audio-sessions/internal/api/v1/services"
)

// APIKeyHeader overrides the server's configured provider key for one request
const APIKeyHeader = "X-API-Key"

// SessionHandler handles session API endpoints
type SessionHandler struct {
	service services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service services.SessionService) *SessionHandler {
	return &SessionHandler{
		service: service,
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleError(c, errors.NewBadRequestError("Invalid session ID"))
		return 0, false
	}
	return id, true
}

// List handles GET /api/v1/sessions
// Lists sessions newest first, optionally filtered by ?q= against title and notes
func (h *SessionHandler) List(c *gin.Context) {
	var query dto.ListSessionsQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.ListSessions(c.Request.Context(), query)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(response.Total))
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	response, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Create handles POST /api/v1/sessions
// Registers an audio file already present on the server host
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.CreateSession(c.Request.Context(), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Update handles PATCH /api/v1/sessions/:id
func (h *SessionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateSessionRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.UpdateSession(c.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /api/v1/sessions/:id
// The audio file is left on disk.
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSession(c.Request.Context(), id); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Transcribe handles POST /api/v1/sessions/:id/transcribe
// With ?async=true the stage runs in the background and 202 is returned.
func (h *SessionHandler) Transcribe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	apiKey := c.GetHeader(APIKeyHeader)

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		response, err := h.service.StartTranscription(c.Request.Context(), id, apiKey)
		if err != nil {
			middleware.HandleError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, response)
		return
	}

	response, err := h.service.Transcribe(c.Request.Context(), id, apiKey)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Transform handles POST /api/v1/sessions/:id/transform
func (h *SessionHandler) Transform(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.TransformRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.Transform(c.Request.Context(), id, &req, c.GetHeader(APIKeyHeader))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
