package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"audio-sessions/internal/app/api"
)

// TranscriptCache stores transcription results keyed by audio content hash.
type TranscriptCache interface {
	Get(ctx context.Context, key string) (api.Transcription, bool, error)
	Put(ctx context.Context, key string, t api.Transcription) error
}

// KeyForFile returns the SHA-256 of the file content in hex.
func KeyForFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Nop never hits
type Nop struct{}

func (Nop) Get(context.Context, string) (api.Transcription, bool, error) {
	return api.Transcription{}, false, nil
}

func (Nop) Put(context.Context, string, api.Transcription) error { return nil }
