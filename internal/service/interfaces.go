package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/face"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/ws"
)

// Analyzer is the face pipeline as the services see it.
type Analyzer interface {
	AnalyzeBase64(ctx context.Context, data string) face.Result
	AnalyzeBytes(ctx context.Context, data []byte) face.Result
}

type HistoryRepositoryInterface interface {
	Create(ctx context.Context, h *domain.AnalysisHistory) error
	List(ctx context.Context, filter domain.HistoryFilter) ([]domain.AnalysisHistory, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisHistory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}

type StatusRepositoryInterface interface {
	Create(ctx context.Context, s *domain.StatusCheck) error
	List(ctx context.Context, limit int) ([]domain.StatusCheck, error)
}

// SummaryCache is satisfied by *cache.SummaryCache, including a nil one.
type SummaryCache interface {
	Get(ctx context.Context, sessionID string) (*domain.AnalyticsSummary, bool)
	Version() uint64
	Set(ctx context.Context, sessionID string, summary domain.AnalyticsSummary, version uint64)
	Invalidate(ctx context.Context)
}

// Broadcaster publishes live events; *ws.Hub implements it.
type Broadcaster interface {
	Broadcast(sessionID string, eventType ws.EventType, data interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, ws.EventType, interface{}) {}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.AnalyticsSummary, bool) { return nil, false }
func (noopCache) Version() uint64                                              { return 0 }
func (noopCache) Set(context.Context, string, domain.AnalyticsSummary, uint64) {}
func (noopCache) Invalidate(context.Context)                                   {}
