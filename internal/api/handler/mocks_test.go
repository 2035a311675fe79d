package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/service"
)

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeBase64(ctx context.Context, data, sessionID string) (*domain.AnalysisResponse, error) {
	args := m.Called(ctx, data, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResponse), args.Error(1)
}

func (m *MockAnalysisService) AnalyzeUpload(ctx context.Context, upload service.Upload, sessionID string) (*domain.AnalysisResponse, error) {
	args := m.Called(ctx, upload, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResponse), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) List(ctx context.Context, sessionID string, limit int) ([]domain.AnalysisHistory, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisHistory), args.Error(1)
}

func (m *MockHistoryService) Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisHistory), args.Error(1)
}

func (m *MockHistoryService) Summary(ctx context.Context, sessionID string) (*domain.AnalyticsSummary, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalyticsSummary), args.Error(1)
}

func (m *MockHistoryService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHistoryService) Clear(ctx context.Context, sessionID string) (*service.ClearResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ClearResult), args.Error(1)
}

type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) Create(ctx context.Context, clientName string) (*domain.StatusCheck, error) {
	args := m.Called(ctx, clientName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusCheck), args.Error(1)
}

func (m *MockStatusService) List(ctx context.Context) ([]domain.StatusCheck, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusCheck), args.Error(1)
}
