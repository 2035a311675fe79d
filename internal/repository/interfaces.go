package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use. pgxmock
// pools satisfy it too.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// HistoryRepositoryInterface defines operations for analysis history access
type HistoryRepositoryInterface interface {
	Create(ctx context.Context, h *domain.AnalysisHistory) error
	List(ctx context.Context, filter domain.HistoryFilter) ([]domain.AnalysisHistory, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisHistory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteBySession removes every entry of sessionID, or every entry when
	// sessionID is empty, and reports how many were removed.
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}

// StatusRepositoryInterface defines operations for status checks
type StatusRepositoryInterface interface {
	Create(ctx context.Context, s *domain.StatusCheck) error
	List(ctx context.Context, limit int) ([]domain.StatusCheck, error)
}
