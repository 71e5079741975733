package services

import (
	"context"
	"time"

	"audio-sessions/internal/api/v1/dto"
	"audio-sessions/internal/app/repository"
	"audio-sessions/internal/app/storage"
)

const presignExpiry = time.Hour

// archiveService implements ArchiveService
type archiveService struct {
	store    repository.SessionStore
	archiver storage.Archiver
}

// NewArchiveService creates a new archive service
func NewArchiveService(store repository.SessionStore, archiver storage.Archiver) ArchiveService {
	return &archiveService{store: store, archiver: archiver}
}

// ArchiveSession uploads the session audio and returns a presigned download url
func (s *archiveService) ArchiveSession(ctx context.Context, id int64) (*dto.ArchiveResponse, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.archiver.Archive(ctx, sess)
	if err != nil {
		return nil, err
	}

	url := res.URL
	if signed, err := s.archiver.PresignedURL(ctx, res.Key, presignExpiry); err == nil {
		url = signed
	}
	return &dto.ArchiveResponse{
		SessionID:  id,
		Key:        res.Key,
		URL:        url,
		Size:       res.Size,
		UploadedAt: res.UploadedAt,
	}, nil
}
