package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/face"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/ws"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) AnalyzeBase64(ctx context.Context, data string) face.Result {
	args := m.Called(ctx, data)
	return args.Get(0).(face.Result)
}

func (m *MockAnalyzer) AnalyzeBytes(ctx context.Context, data []byte) face.Result {
	args := m.Called(ctx, data)
	return args.Get(0).(face.Result)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, h *domain.AnalysisHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHistoryRepository) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.AnalysisHistory, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisHistory), args.Error(1)
}

func (m *MockHistoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisHistory), args.Error(1)
}

func (m *MockHistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHistoryRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) Create(ctx context.Context, s *domain.StatusCheck) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStatusRepository) List(ctx context.Context, limit int) ([]domain.StatusCheck, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusCheck), args.Error(1)
}

type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Get(ctx context.Context, sessionID string) (*domain.AnalyticsSummary, bool) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.AnalyticsSummary), args.Bool(1)
}

func (m *MockSummaryCache) Version() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

func (m *MockSummaryCache) Set(ctx context.Context, sessionID string, summary domain.AnalyticsSummary, version uint64) {
	m.Called(ctx, sessionID, summary, version)
}

func (m *MockSummaryCache) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Broadcast(sessionID string, eventType ws.EventType, data interface{}) {
	m.Called(sessionID, eventType, data)
}

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return nil
}
