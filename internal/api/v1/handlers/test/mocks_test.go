package test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"audio-sessions/internal/api/v1/dto"
)

type mockSessionService struct {
	mock.Mock
}

func (m *mockSessionService) ListSessions(ctx context.Context, query dto.ListSessionsQuery) (*dto.SessionListResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionListResponse), args.Error(1)
}

func (m *mockSessionService) GetSession(ctx context.Context, id int64) (*dto.SessionResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *mockSessionService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *mockSessionService) UpdateSession(ctx context.Context, id int64, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *mockSessionService) DeleteSession(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionService) Transcribe(ctx context.Context, id int64, apiKey string) (*dto.TranscriptionResponse, error) {
	args := m.Called(ctx, id, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TranscriptionResponse), args.Error(1)
}

func (m *mockSessionService) StartTranscription(ctx context.Context, id int64, apiKey string) (*dto.TranscriptionResponse, error) {
	args := m.Called(ctx, id, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TranscriptionResponse), args.Error(1)
}

func (m *mockSessionService) Transform(ctx context.Context, id int64, req *dto.TransformRequest, apiKey string) (*dto.TransformationResponse, error) {
	args := m.Called(ctx, id, req, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TransformationResponse), args.Error(1)
}

type mockExportService struct {
	mock.Mock
}

func (m *mockExportService) ExportSessions(ctx context.Context, req dto.ExportRequest, writer io.Writer) error {
	args := m.Called(ctx, req, writer)
	if fn, ok := args.Get(0).(func(io.Writer)); ok {
		fn(writer)
		return nil
	}
	return args.Error(0)
}
