package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

const (
	DefaultStatusLimit = 100
	MaxStatusLimit     = 1000
)

type StatusRepository struct {
	pool PgxPool
}

func NewStatusRepository(pool PgxPool) *StatusRepository {
	return &StatusRepository{pool: pool}
}

var _ StatusRepositoryInterface = (*StatusRepository)(nil)

func (r *StatusRepository) Create(ctx context.Context, s *domain.StatusCheck) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO status_checks (id, client_name, timestamp)
		VALUES ($1, $2, $3)
	`, s.ID, s.ClientName, s.Timestamp)
	if err != nil {
		return fmt.Errorf("create status check: %w", err)
	}

	return nil
}

func (r *StatusRepository) List(ctx context.Context, limit int) ([]domain.StatusCheck, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_name, timestamp
		FROM status_checks
		ORDER BY timestamp DESC
		LIMIT $1
	`, normalizeLimit(limit, DefaultStatusLimit, MaxStatusLimit))
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	defer rows.Close()

	checks := make([]domain.StatusCheck, 0)
	for rows.Next() {
		var s domain.StatusCheck
		if err := rows.Scan(&s.ID, &s.ClientName, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("list status checks: scan: %w", err)
		}
		checks = append(checks, s)
	}

	return checks, rows.Err()
}
