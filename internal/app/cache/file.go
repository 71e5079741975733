package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"audio-sessions/internal/app/api"
)

// FileCache keeps one JSON document per audio hash in a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *FileCache) Get(_ context.Context, key string) (api.Transcription, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if os.IsNotExist(err) {
		return api.Transcription{}, false, nil
	}
	if err != nil {
		return api.Transcription{}, false, err
	}

	var t api.Transcription
	if err := json.Unmarshal(data, &t); err != nil {
		return api.Transcription{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return t, true, nil
}

func (c *FileCache) Put(_ context.Context, key string, t api.Transcription) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}

	// write then rename so readers never see a partial entry
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}
