package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
)

// Archiver copies session audio to object storage
type Archiver interface {
	Archive(ctx context.Context, s *model.Session) (*ArchiveResult, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ArchiveResult describes an uploaded artifact
type ArchiveResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Config holds object storage connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioArchiver implements Archiver using MinIO or any S3 compatible endpoint
type MinioArchiver struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// NewMinioArchiver connects and makes sure the bucket exists
func NewMinioArchiver(ctx context.Context, cfg Config) (*MinioArchiver, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.RequiredField("archive endpoint")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "audio-sessions"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, apperrors.ErrIO.With(fmt.Errorf("failed to check bucket existence: %w", err))
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, apperrors.ErrIO.With(fmt.Errorf("failed to create bucket: %w", err))
		}
	}

	return &MinioArchiver{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
	}, nil
}

// ObjectKey returns the object key for a session artifact
func ObjectKey(id int64, path string) string {
	return fmt.Sprintf("sessions/%d/%s-%s", id, uuid.NewString(), filepath.Base(path))
}

// Archive uploads a copy of the session audio. The local file is left in place.
func (a *MinioArchiver) Archive(ctx context.Context, s *model.Session) (*ArchiveResult, error) {
	info, err := os.Stat(s.Path)
	if err != nil || info.IsDir() {
		return nil, apperrors.ErrArtifactMissing.Withf("%s", s.Path)
	}

	key := ObjectKey(s.ID, s.Path)
	uploaded, err := a.client.FPutObject(ctx, a.bucket, key, s.Path, minio.PutObjectOptions{
		ContentType: contentType(s.Path),
		UserMetadata: map[string]string{
			"session-id":  strconv.FormatInt(s.ID, 10),
			"title":       s.Title,
			"recorded-at": s.RecordedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, apperrors.ErrIO.With(fmt.Errorf("failed to upload file to MinIO: %w", err))
	}

	return &ArchiveResult{
		Key:        key,
		URL:        a.fileURL(key),
		Size:       uploaded.Size,
		UploadedAt: time.Now(),
	}, nil
}

// PresignedURL returns a time limited download link for key
func (a *MinioArchiver) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", apperrors.ErrIO.With(fmt.Errorf("failed to generate presigned URL: %w", err))
	}
	return u.String(), nil
}

func (a *MinioArchiver) fileURL(key string) string {
	protocol := "http"
	if a.useSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, a.endpoint, a.bucket, key)
}

func contentType(path string) string {
	switch filepath.Ext(path) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
