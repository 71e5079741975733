package services

import (
	"context"
	"io"

	"audio-sessions/internal/api/v1/dto"
)

// SessionService defines the interface for session operations
type SessionService interface {
	ListSessions(ctx context.Context, query dto.ListSessionsQuery) (*dto.SessionListResponse, error)
	GetSession(ctx context.Context, id int64) (*dto.SessionResponse, error)
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	UpdateSession(ctx context.Context, id int64, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, id int64) error

	// Transcribe runs the transcription stage. An empty apiKey uses the server's key.
	Transcribe(ctx context.Context, id int64, apiKey string) (*dto.TranscriptionResponse, error)
	// StartTranscription schedules the stage and returns once the session is known to exist.
	StartTranscription(ctx context.Context, id int64, apiKey string) (*dto.TranscriptionResponse, error)
	Transform(ctx context.Context, id int64, req *dto.TransformRequest, apiKey string) (*dto.TransformationResponse, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	ExportSessions(ctx context.Context, req dto.ExportRequest, writer io.Writer) error
}

// ArchiveService uploads session audio to object storage
type ArchiveService interface {
	ArchiveSession(ctx context.Context, id int64) (*dto.ArchiveResponse, error)
}
