package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"audio-sessions/internal/api/errors"
	"audio-sessions/internal/api/middleware"
	"audio-sessions/internal/api/v1/dto"
	"audio-sessions/internal/api/v1/services"
)

// ExportHandler handles export-related HTTP requests
type ExportHandler struct {
	service services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(service services.ExportService) *ExportHandler {
	return &ExportHandler{
		service: service,
	}
}

// Export handles GET /api/v1/sessions/export
// ?format=csv|xlsx (default csv), ?ids=1,2,3, ?q=query
func (h *ExportHandler) Export(c *gin.Context) {
	req := dto.ExportRequest{
		Format: c.DefaultQuery("format", "csv"),
		Query:  c.Query("q"),
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		middleware.HandleError(c, errors.NewBadRequestError("Invalid format. Must be csv or xlsx"))
		return
	}

	ids, err := parseIDList(c.QueryArray("ids"))
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("Invalid ids"))
		return
	}
	req.IDs = ids

	contentType := "text/csv"
	filename := "sessions.csv"
	if req.Format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "sessions.xlsx"
	}

	// buffer so a failed export still gets a proper error status
	var buf bytes.Buffer
	if err := h.service.ExportSessions(c.Request.Context(), req, &buf); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// parseIDList accepts repeated and comma separated values
func parseIDList(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
