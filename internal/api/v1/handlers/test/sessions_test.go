package test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"audio-sessions/internal/api/v1/dto"
	"audio-sessions/internal/api/v1/routes"
	apperrors "audio-sessions/internal/app/errors"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *mockSessionService, *mockExportService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	sessions := &mockSessionService{}
	exports := &mockExportService{}
	routes.RegisterRoutes(router.Group("/api/v1"), &routes.ServiceContainer{
		SessionService: sessions,
		ExportService:  exports,
	})
	t.Cleanup(func() {
		sessions.AssertExpectations(t)
		exports.AssertExpectations(t)
	})
	return router, sessions, exports
}

func perform(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSessionHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMocks     func(*mockSessionService)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name: "found",
			path: "/api/v1/sessions/3",
			setupMocks: func(ms *mockSessionService) {
				ms.On("GetSession", mock.Anything, int64(3)).
					Return(&dto.SessionResponse{ID: 3, Title: "standup"}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(3), body["id"])
				assert.Equal(t, "standup", body["title"])
			},
		},
		{
			name: "not found",
			path: "/api/v1/sessions/9",
			setupMocks: func(ms *mockSessionService) {
				ms.On("GetSession", mock.Anything, int64(9)).Return(nil, apperrors.NotFound(9))
			},
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "not_found", body["kind"])
			},
		},
		{
			name:           "invalid id",
			path:           "/api/v1/sessions/abc",
			setupMocks:     func(ms *mockSessionService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "bad_request", body["kind"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sessions, _ := setupTestRouter(t)
			tt.setupMocks(sessions)

			w := perform(router, http.MethodGet, tt.path, nil, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.validateBody(t, decode(t, w))
		})
	}
}

func TestSessionHandler_List(t *testing.T) {
	router, sessions, _ := setupTestRouter(t)
	sessions.On("ListSessions", mock.Anything, dto.ListSessionsQuery{Query: "standup"}).
		Return(&dto.SessionListResponse{
			Sessions: []dto.SessionResponse{{ID: 2}, {ID: 1}},
			Total:    2,
		}, nil)

	w := perform(router, http.MethodGet, "/api/v1/sessions?q=standup", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))
	body := decode(t, w)
	assert.Len(t, body["sessions"], 2)
}

func TestSessionHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		request        interface{}
		setupMocks     func(*mockSessionService)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:    "created",
			request: dto.CreateSessionRequest{Path: "/tmp/a.wav", Title: "t"},
			setupMocks: func(ms *mockSessionService) {
				ms.On("CreateSession", mock.Anything, mock.MatchedBy(func(r *dto.CreateSessionRequest) bool {
					return r.Path == "/tmp/a.wav"
				})).Return(&dto.SessionResponse{ID: 1, Path: "/tmp/a.wav"}, nil)
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(1), body["id"])
			},
		},
		{
			name:           "missing path",
			request:        dto.CreateSessionRequest{Title: "t"},
			setupMocks:     func(ms *mockSessionService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "validation", body["kind"])
				assert.NotNil(t, body["details"])
			},
		},
		{
			name:    "audio file missing",
			request: dto.CreateSessionRequest{Path: "/nope.wav"},
			setupMocks: func(ms *mockSessionService) {
				ms.On("CreateSession", mock.Anything, mock.Anything).
					Return(nil, apperrors.ErrArtifactMissing.With(errors.New("/nope.wav")))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "validation", body["kind"])
			},
		},
		{
			name:    "store down",
			request: dto.CreateSessionRequest{Path: "/tmp/a.wav"},
			setupMocks: func(ms *mockSessionService) {
				ms.On("CreateSession", mock.Anything, mock.Anything).
					Return(nil, apperrors.ErrPersistence.With(errors.New("database is locked")))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "internal", body["kind"])
				assert.NotContains(t, body["message"], "locked")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sessions, _ := setupTestRouter(t)
			tt.setupMocks(sessions)

			w := perform(router, http.MethodPost, "/api/v1/sessions", tt.request, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.validateBody(t, decode(t, w))
		})
	}
}

func TestSessionHandler_Update(t *testing.T) {
	router, sessions, _ := setupTestRouter(t)
	title := "renamed"
	sessions.On("UpdateSession", mock.Anything, int64(5), &dto.UpdateSessionRequest{Title: &title}).
		Return(&dto.SessionResponse{ID: 5, Title: title}, nil)

	w := perform(router, http.MethodPatch, "/api/v1/sessions/5", map[string]string{"title": title}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, title, decode(t, w)["title"])

	w = perform(router, http.MethodPatch, "/api/v1/sessions/5", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	router, sessions, _ := setupTestRouter(t)
	sessions.On("DeleteSession", mock.Anything, int64(7)).Return(nil).Once()
	sessions.On("DeleteSession", mock.Anything, int64(7)).Return(apperrors.NotFound(7)).Once()

	w := perform(router, http.MethodDelete, "/api/v1/sessions/7", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(router, http.MethodDelete, "/api/v1/sessions/7", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_Transcribe(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		headers        map[string]string
		setupMocks     func(*mockSessionService)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:    "sync with header key",
			path:    "/api/v1/sessions/1/transcribe",
			headers: map[string]string{"X-API-Key": "sk-header"},
			setupMocks: func(ms *mockSessionService) {
				ms.On("Transcribe", mock.Anything, int64(1), "sk-header").
					Return(&dto.TranscriptionResponse{SessionID: 1, Status: "completed", Text: "hallo"}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "hallo", body["text"])
			},
		},
		{
			name: "async",
			path: "/api/v1/sessions/1/transcribe?async=true",
			setupMocks: func(ms *mockSessionService) {
				ms.On("StartTranscription", mock.Anything, int64(1), "").
					Return(&dto.TranscriptionResponse{SessionID: 1, Status: "pending"}, nil)
			},
			expectedStatus: http.StatusAccepted,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "pending", body["status"])
			},
		},
		{
			name: "missing credential",
			path: "/api/v1/sessions/1/transcribe",
			setupMocks: func(ms *mockSessionService) {
				ms.On("Transcribe", mock.Anything, int64(1), "").Return(nil, apperrors.ErrMissingCredential)
			},
			expectedStatus: http.StatusUnauthorized,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "unauthorized", body["kind"])
			},
		},
		{
			name: "already in progress",
			path: "/api/v1/sessions/1/transcribe",
			setupMocks: func(ms *mockSessionService) {
				ms.On("Transcribe", mock.Anything, int64(1), "").Return(nil, apperrors.ErrAlreadyInProgress)
			},
			expectedStatus: http.StatusConflict,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "conflict", body["kind"])
			},
		},
		{
			name: "service failure",
			path: "/api/v1/sessions/1/transcribe",
			setupMocks: func(ms *mockSessionService) {
				ms.On("Transcribe", mock.Anything, int64(1), "").
					Return(nil, apperrors.ErrTranscriptionFailed.With(errors.New("rate limited")))
			},
			expectedStatus: http.StatusBadGateway,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Contains(t, body["message"], "rate limited")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sessions, _ := setupTestRouter(t)
			tt.setupMocks(sessions)

			w := perform(router, http.MethodPost, tt.path, nil, tt.headers)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.validateBody(t, decode(t, w))
		})
	}
}

func TestSessionHandler_Transform(t *testing.T) {
	router, sessions, _ := setupTestRouter(t)
	sessions.On("Transform", mock.Anything, int64(2), &dto.TransformRequest{Prompt: "summarize"}, "").
		Return(nil, apperrors.ErrNoTranscription)

	w := perform(router, http.MethodPost, "/api/v1/sessions/2/transform", dto.TransformRequest{Prompt: "summarize"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = perform(router, http.MethodPost, "/api/v1/sessions/2/transform", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "is required", decode(t, w)["details"].(map[string]interface{})["prompt"])
}

func TestExportHandler_Export(t *testing.T) {
	router, _, exports := setupTestRouter(t)
	exports.On("ExportSessions", mock.Anything, dto.ExportRequest{Format: "csv", IDs: []int64{1, 2, 3}}, mock.Anything).
		Return(func(w io.Writer) { _, _ = io.WriteString(w, "ID,Title\n") })

	w := perform(router, http.MethodGet, "/api/v1/sessions/export?ids=1,2&ids=3", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sessions.csv")
	assert.Equal(t, "ID,Title\n", w.Body.String())

	w = perform(router, http.MethodGet, "/api/v1/sessions/export?format=json", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, http.MethodGet, "/api/v1/sessions/export?ids=x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
