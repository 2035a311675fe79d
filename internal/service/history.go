package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/analytics"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/ws"
)

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
	// SummaryWindow caps how many entries a summary is computed over.
	SummaryWindow = 1000
)

// ClearResult is returned by a bulk history delete.
type ClearResult struct {
	DeletedCount int64  `json:"deleted_count"`
	Message      string `json:"message"`
}

type HistoryService struct {
	repo        HistoryRepositoryInterface
	cache       SummaryCache
	broadcaster Broadcaster
	auditLogger audit.Logger
	logger      *slog.Logger
}

type HistoryOption func(*HistoryService)

func WithHistoryCache(c SummaryCache) HistoryOption {
	return func(s *HistoryService) {
		s.cache = c
	}
}

func WithHistoryBroadcaster(b Broadcaster) HistoryOption {
	return func(s *HistoryService) {
		s.broadcaster = b
	}
}

func WithHistoryAuditLogger(l audit.Logger) HistoryOption {
	return func(s *HistoryService) {
		s.auditLogger = l
	}
}

func NewHistoryService(repo HistoryRepositoryInterface, logger *slog.Logger, opts ...HistoryOption) *HistoryService {
	s := &HistoryService{
		repo:        repo,
		cache:       noopCache{},
		broadcaster: noopBroadcaster{},
		auditLogger: &audit.NoOpLogger{},
		logger:      logger.With("component", "history_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns entries newest first. limit <= 0 means the default and is
// capped at MaxHistoryLimit.
func (s *HistoryService) List(ctx context.Context, sessionID string, limit int) ([]domain.AnalysisHistory, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	history, err := s.repo.List(ctx, domain.HistoryFilter{SessionID: sessionID, Limit: limit})
	if err != nil {
		return nil, domain.ErrHistoryFailed.WithError(err)
	}
	return history, nil
}

func (s *HistoryService) Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisHistory, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryNotFound) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, domain.ErrHistoryFailed.WithError(err)
	}
	return h, nil
}

// Summary aggregates at most SummaryWindow of the newest entries.
func (s *HistoryService) Summary(ctx context.Context, sessionID string) (*domain.AnalyticsSummary, error) {
	if cached, ok := s.cache.Get(ctx, sessionID); ok {
		return cached, nil
	}
	version := s.cache.Version()

	history, err := s.repo.List(ctx, domain.HistoryFilter{SessionID: sessionID, Limit: SummaryWindow})
	if err != nil {
		return nil, domain.ErrSummaryFailed.WithError(err)
	}

	summary := analytics.Summarize(history)
	s.cache.Set(ctx, sessionID, summary, version)

	return &summary, nil
}

func (s *HistoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrHistoryNotFound) {
			return domain.ErrHistoryNotFound
		}
		return domain.ErrHistoryFailed.WithError(err)
	}

	s.cache.Invalidate(ctx)
	_ = s.auditLogger.Log(ctx, audit.Event{
		EventType:  audit.EventHistoryDeleted,
		AnalysisID: id.String(),
		Success:    true,
	})
	s.broadcaster.Broadcast("", ws.EventHistoryDeleted, map[string]interface{}{"id": id})

	return nil
}

// Clear deletes every entry of sessionID, or all entries when sessionID is
// empty. Matching nothing is not an error.
func (s *HistoryService) Clear(ctx context.Context, sessionID string) (*ClearResult, error) {
	deleted, err := s.repo.DeleteBySession(ctx, sessionID)
	if err != nil {
		return nil, domain.ErrHistoryFailed.WithError(err)
	}

	if deleted > 0 {
		s.cache.Invalidate(ctx)
	}

	s.logger.InfoContext(ctx, "history cleared",
		slog.String("session_id", sessionID),
		slog.Int64("deleted_count", deleted),
	)
	_ = s.auditLogger.Log(ctx, audit.Event{
		EventType: audit.EventHistoryCleared,
		SessionID: sessionID,
		Success:   true,
		Metadata:  map[string]string{"deleted_count": fmt.Sprint(deleted)},
	})
	s.broadcaster.Broadcast(sessionID, ws.EventHistoryCleared, map[string]interface{}{"deleted_count": deleted})

	return &ClearResult{
		DeletedCount: deleted,
		Message:      fmt.Sprintf("Cleared %d history entries", deleted),
	}, nil
}
