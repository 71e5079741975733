package model

import "time"

// AudioArtifact is a finished recording on disk.
type AudioArtifact struct {
	Path        string  `json:"path" validate:"required"`
	DurationSec float64 `json:"duration_sec" validate:"gte=0"`
	SampleRate  int     `json:"sample_rate" validate:"gt=0"`
	Channels    int     `json:"channels" validate:"gt=0"`
}

// Metadata is the user supplied part of a new session
type Metadata struct {
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recorded_at"`
}
