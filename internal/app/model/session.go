package model

import (
	"os"
	"strings"
	"time"
)

// TranscriptionStatus tracks the transcription stage of a session
type TranscriptionStatus string

const (
	StatusNone      TranscriptionStatus = ""
	StatusPending   TranscriptionStatus = "pending"
	StatusCompleted TranscriptionStatus = "completed"
	StatusError     TranscriptionStatus = "error"
)

// Session is one recorded audio session and its AI pipeline results.
type Session struct {
	ID                  int64               `json:"id"`
	Title               string              `json:"title"`
	RecordedAt          time.Time           `json:"recorded_at"`
	DurationSec         float64             `json:"duration_sec"`
	SampleRate          int                 `json:"sample_rate"`
	Channels            int                 `json:"channels"`
	Path                string              `json:"path"`
	Notes               string              `json:"notes"`
	Transcript          *string             `json:"transcript,omitempty"`
	TranscriptTokens    int                 `json:"transcript_tokens"`
	TranscriptionStatus TranscriptionStatus `json:"transcription_status"`
	Transformed         *string             `json:"transformed,omitempty"`
	TransformPrompt     string              `json:"transform_prompt,omitempty"`
	TransformStale      bool                `json:"transform_stale"`

	// FileSize is derived from the artifact on read, 0 when the file is missing.
	FileSize int64 `json:"file_size"`
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeNewlines rewrites CRLF and lone CR line breaks as LF.
// Titles and notes are stored in this form.
func NormalizeNewlines(s string) string {
	return newlineReplacer.Replace(s)
}

// HasTranscript reports whether a non-empty transcript is present.
func (s *Session) HasTranscript() bool {
	return s.Transcript != nil && *s.Transcript != ""
}

// TranscriptText returns the transcript or an empty string
func (s *Session) TranscriptText() string {
	if s.Transcript == nil {
		return ""
	}
	return *s.Transcript
}

// TransformedText returns the transformed text or an empty string
func (s *Session) TransformedText() string {
	if s.Transformed == nil {
		return ""
	}
	return *s.Transformed
}

// RefreshFileSize stats the artifact and updates FileSize.
func (s *Session) RefreshFileSize() {
	s.FileSize = 0
	if s.Path == "" {
		return
	}
	if info, err := os.Stat(s.Path); err == nil && !info.IsDir() {
		s.FileSize = info.Size()
	}
}

// SessionPatch is a partial update. Nil fields are left unchanged.
type SessionPatch struct {
	Title               *string
	Notes               *string
	Path                *string
	Transcript          *string
	TranscriptTokens    *int
	TranscriptionStatus *TranscriptionStatus
	Transformed         *string
	TransformPrompt     *string
	TransformStale      *bool
}

// IsEmpty reports whether the patch changes nothing
func (p SessionPatch) IsEmpty() bool {
	return p.Title == nil && p.Notes == nil && p.Path == nil && p.Transcript == nil &&
		p.TranscriptTokens == nil && p.TranscriptionStatus == nil && p.Transformed == nil &&
		p.TransformPrompt == nil && p.TransformStale == nil
}

// Apply copies the set fields of the patch onto s.
func (p SessionPatch) Apply(s *Session) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.Transcript != nil {
		v := *p.Transcript
		s.Transcript = &v
	}
	if p.TranscriptTokens != nil {
		s.TranscriptTokens = *p.TranscriptTokens
	}
	if p.TranscriptionStatus != nil {
		s.TranscriptionStatus = *p.TranscriptionStatus
	}
	if p.Transformed != nil {
		v := *p.Transformed
		s.Transformed = &v
	}
	if p.TransformPrompt != nil {
		s.TransformPrompt = *p.TransformPrompt
	}
	if p.TransformStale != nil {
		s.TransformStale = *p.TransformStale
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
