package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

type HistoryRepository struct {
	pool PgxPool
}

func NewHistoryRepository(pool PgxPool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

var _ HistoryRepositoryInterface = (*HistoryRepository)(nil)

// Create stores the entry and its per-face rows in one transaction.
func (r *HistoryRepository) Create(ctx context.Context, h *domain.AnalysisHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create history: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO analysis_history (id, timestamp, faces_count, avg_age, emotions, races, processing_time_ms, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		h.ID,
		h.Timestamp,
		h.FacesCount,
		h.AvgAge,
		nonNil(h.Emotions),
		nonNil(h.Races),
		h.ProcessingTimeMs,
		sessionArg(h.SessionID),
	)
	if err != nil {
		return fmt.Errorf("create history: %w", err)
	}

	for i := range h.Faces {
		f := &h.Faces[i]
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		f.AnalysisID = h.ID

		_, err = tx.Exec(ctx, `
			INSERT INTO analysis_faces (
				id, analysis_id, face_index, bbox_x, bbox_y, bbox_width, bbox_height, confidence,
				age, age_confidence, race, race_confidence, emotion, emotion_confidence, landmarks
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`,
			f.ID,
			f.AnalysisID,
			f.FaceIndex,
			f.BoundingBox.X,
			f.BoundingBox.Y,
			f.BoundingBox.Width,
			f.BoundingBox.Height,
			f.Confidence,
			f.Age,
			f.AgeConfidence,
			f.Race,
			f.RaceConfidence,
			f.Emotion,
			f.EmotionConfidence,
			landmarksToVector(f.Landmarks),
		)
		if err != nil {
			return fmt.Errorf("create history face %d: %w", f.FaceIndex, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("create history: commit: %w", err)
	}

	return nil
}

// List returns entries newest first. Faces are not loaded.
func (r *HistoryRepository) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.AnalysisHistory, error) {
	limit := normalizeLimit(filter.Limit, DefaultHistoryLimit, MaxHistoryLimit)

	var (
		rows pgx.Rows
		err  error
	)
	if filter.SessionID != "" {
		rows, err = r.pool.Query(ctx, `
			SELECT id, timestamp, faces_count, avg_age, emotions, races, processing_time_ms, session_id
			FROM analysis_history
			WHERE session_id = $1
			ORDER BY timestamp DESC
			LIMIT $2
		`, filter.SessionID, limit)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT id, timestamp, faces_count, avg_age, emotions, races, processing_time_ms, session_id
			FROM analysis_history
			ORDER BY timestamp DESC
			LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	history := make([]domain.AnalysisHistory, 0)
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("list history: scan: %w", err)
		}
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return history, nil
}

func (r *HistoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisHistory, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, timestamp, faces_count, avg_age, emotions, races, processing_time_ms, session_id
		FROM analysis_history
		WHERE id = $1
	`, id)

	h, err := scanHistory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	faces, err := r.listFaces(ctx, id)
	if err != nil {
		return nil, err
	}
	h.Faces = faces

	return &h, nil
}

func (r *HistoryRepository) listFaces(ctx context.Context, analysisID uuid.UUID) ([]domain.FaceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, analysis_id, face_index, bbox_x, bbox_y, bbox_width, bbox_height, confidence,
		       age, age_confidence, race, race_confidence, emotion, emotion_confidence, landmarks
		FROM analysis_faces
		WHERE analysis_id = $1
		ORDER BY face_index
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("list history faces: %w", err)
	}
	defer rows.Close()

	faces := make([]domain.FaceRecord, 0)
	for rows.Next() {
		var (
			f         domain.FaceRecord
			landmarks *pgvector.Vector
		)
		err := rows.Scan(
			&f.ID,
			&f.AnalysisID,
			&f.FaceIndex,
			&f.BoundingBox.X,
			&f.BoundingBox.Y,
			&f.BoundingBox.Width,
			&f.BoundingBox.Height,
			&f.Confidence,
			&f.Age,
			&f.AgeConfidence,
			&f.Race,
			&f.RaceConfidence,
			&f.Emotion,
			&f.EmotionConfidence,
			&landmarks,
		)
		if err != nil {
			return nil, fmt.Errorf("list history faces: scan: %w", err)
		}
		f.Landmarks = vectorToLandmarks(landmarks)
		faces = append(faces, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history faces: %w", err)
	}

	return faces, nil
}

// Delete removes one entry; its faces go with it through ON DELETE CASCADE.
func (r *HistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM analysis_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrHistoryNotFound
	}

	return nil
}

func (r *HistoryRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	var (
		sql  = `DELETE FROM analysis_history`
		args []any
	)
	if sessionID != "" {
		sql += ` WHERE session_id = $1`
		args = append(args, sessionID)
	}

	result, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete history by session: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanHistory(row pgx.Row) (domain.AnalysisHistory, error) {
	var h domain.AnalysisHistory
	err := row.Scan(
		&h.ID,
		&h.Timestamp,
		&h.FacesCount,
		&h.AvgAge,
		&h.Emotions,
		&h.Races,
		&h.ProcessingTimeMs,
		&h.SessionID,
	)
	if h.Emotions == nil {
		h.Emotions = []string{}
	}
	if h.Races == nil {
		h.Races = []string{}
	}
	return h, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
