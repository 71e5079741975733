package services

import (
	"context"
	"io"

	"audio-sessions/internal/api/v1/dto"
	"audio-sessions/internal/app/converter/export"
	"audio-sessions/internal/app/repository"
)

// exportService implements ExportService
type exportService struct {
	store repository.SessionStore
}

// NewExportService creates a new export service
func NewExportService(store repository.SessionStore) ExportService {
	return &exportService{store: store}
}

// ExportSessions writes the matching sessions as csv or xlsx
func (s *exportService) ExportSessions(ctx context.Context, req dto.ExportRequest, writer io.Writer) error {
	sessions, err := s.store.Find(ctx, req.Query)
	if err != nil {
		return err
	}
	sessions = export.Select(sessions, req.IDs)

	if req.Format == "xlsx" {
		return export.WriteExcel(writer, sessions)
	}
	return export.WriteCSV(writer, sessions)
}
