package dto

import (
	"strings"
	"time"

	"audio-sessions/internal/api/errors"
	"audio-sessions/internal/app/model"
)

// CreateSessionRequest registers an audio file that already exists on the server host
type CreateSessionRequest struct {
	Path       string     `json:"path" binding:"required"`
	Title      string     `json:"title" binding:"max=200"`
	Notes      string     `json:"notes"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// Validate performs domain validation
func (r *CreateSessionRequest) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return errors.NewValidationError("Validation failed", map[string]string{"path": "is required"})
	}
	return nil
}

// UpdateSessionRequest edits user metadata. Omitted fields are unchanged.
type UpdateSessionRequest struct {
	Title *string `json:"title,omitempty" binding:"omitempty,max=200"`
	Notes *string `json:"notes,omitempty"`
}

// Validate performs domain validation
func (r *UpdateSessionRequest) Validate() error {
	if r.Title == nil && r.Notes == nil {
		return errors.NewValidationError("Validation failed", map[string]string{"request": "nothing to update"})
	}
	return nil
}

// Patch converts the request to a store patch
func (r *UpdateSessionRequest) Patch() model.SessionPatch {
	return model.SessionPatch{Title: r.Title, Notes: r.Notes}
}

// ListSessionsQuery filters the session list
type ListSessionsQuery struct {
	Query string `form:"q"`
}

// TransformRequest selects a prompt: summarize, translate, structure, custom:<text>
// or the name of a saved prompt.
type TransformRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// SessionResponse is the API view of a session
type SessionResponse struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	RecordedAt          time.Time `json:"recorded_at"`
	DurationSec         float64   `json:"duration_sec"`
	SampleRate          int       `json:"sample_rate"`
	Channels            int       `json:"channels"`
	Path                string    `json:"path"`
	Notes               string    `json:"notes"`
	FileSize            int64     `json:"file_size"`
	Transcript          *string   `json:"transcript,omitempty"`
	TranscriptTokens    int       `json:"transcript_tokens"`
	TranscriptionStatus string    `json:"transcription_status"`
	Transformed         *string   `json:"transformed,omitempty"`
	TransformPrompt     string    `json:"transform_prompt,omitempty"`
	TransformStale      bool      `json:"transform_stale"`
	InProgress          bool      `json:"in_progress"`
	TranscriptionError  string    `json:"transcription_error,omitempty"`
}

// NewSessionResponse copies s into its API view
func NewSessionResponse(s model.Session, inProgress bool) SessionResponse {
	return SessionResponse{
		ID:                  s.ID,
		Title:               s.Title,
		RecordedAt:          s.RecordedAt,
		DurationSec:         s.DurationSec,
		SampleRate:          s.SampleRate,
		Channels:            s.Channels,
		Path:                s.Path,
		Notes:               s.Notes,
		FileSize:            s.FileSize,
		Transcript:          s.Transcript,
		TranscriptTokens:    s.TranscriptTokens,
		TranscriptionStatus: string(s.TranscriptionStatus),
		Transformed:         s.Transformed,
		TransformPrompt:     s.TransformPrompt,
		TransformStale:      s.TransformStale,
		InProgress:          inProgress,
	}
}

// SessionListResponse wraps a session list
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int               `json:"total"`
}

// TranscriptionResponse is returned by POST /sessions/:id/transcribe
type TranscriptionResponse struct {
	SessionID int64   `json:"session_id"`
	Status    string  `json:"status"`
	Text      string  `json:"text,omitempty"`
	Language  string  `json:"language,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Tokens    int     `json:"tokens"`
	Cached    bool    `json:"cached"`
}

// TransformationResponse is returned by POST /sessions/:id/transform
type TransformationResponse struct {
	SessionID int64  `json:"session_id"`
	Status    string `json:"status"`
	Prompt    string `json:"prompt"`
	Text      string `json:"text,omitempty"`
	Tokens    int    `json:"tokens"`
}

// ArchiveResponse is returned by POST /sessions/:id/archive
type ArchiveResponse struct {
	SessionID  int64     `json:"session_id"`
	Key        string    `json:"key"`
	URL        string    `json:"url,omitempty"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}
