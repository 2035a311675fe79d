package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

var historyColumns = []string{
	"id", "timestamp", "faces_count", "avg_age", "emotions", "races", "processing_time_ms", "session_id",
}

var faceColumns = []string{
	"id", "analysis_id", "face_index", "bbox_x", "bbox_y", "bbox_width", "bbox_height", "confidence",
	"age", "age_confidence", "race", "race_confidence", "emotion", "emotion_confidence", "landmarks",
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func ptr[T any](v T) *T {
	return &v
}

func TestHistoryRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		history   *domain.AnalysisHistory
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   string
	}{
		{
			name: "entry with faces",
			history: &domain.AnalysisHistory{
				FacesCount:       2,
				AvgAge:           31.5,
				Emotions:         []string{"Happy", "Sad"},
				Races:            []string{"Asian", "White"},
				ProcessingTimeMs: 42.5,
				SessionID:        ptr("session-1"),
				Faces: []domain.FaceRecord{
					{FaceIndex: 0, Age: 30, Landmarks: []domain.Point{{X: 1, Y: 2}}},
					{FaceIndex: 1, Age: 33},
				},
			},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO analysis_history").
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 2, 31.5, []string{"Happy", "Sad"}, []string{"Asian", "White"}, 42.5, "session-1").
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec("INSERT INTO analysis_faces").
					WithArgs(
						pgxmock.AnyArg(), pgxmock.AnyArg(), 0, 0, 0, 0, 0, 0.0,
						30, 0.0, "", 0.0, "", 0.0, pgxmock.AnyArg(),
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec("INSERT INTO analysis_faces").
					WithArgs(
						pgxmock.AnyArg(), pgxmock.AnyArg(), 1, 0, 0, 0, 0, 0.0,
						33, 0.0, "", 0.0, "", 0.0, pgxmock.AnyArg(),
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "entry without session",
			history: &domain.AnalysisHistory{
				FacesCount: 1,
				AvgAge:     20,
			},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO analysis_history").
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 1, 20.0, []string{}, []string{}, 0.0, nil).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectCommit()
			},
		},
		{
			name:    "begin fails",
			history: &domain.AnalysisHistory{FacesCount: 1},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			wantErr: "create history: begin",
		},
		{
			name: "face insert fails and rolls back",
			history: &domain.AnalysisHistory{
				FacesCount: 1,
				Faces:      []domain.FaceRecord{{FaceIndex: 0}},
			},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO analysis_history").
					WithArgs(anyArgs(8)...).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec("INSERT INTO analysis_faces").
					WithArgs(anyArgs(15)...).
					WillReturnError(errors.New("constraint violation"))
				mock.ExpectRollback()
			},
			wantErr: "create history face 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewHistoryRepository(mock)
			err = repo.Create(context.Background(), tt.history)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, tt.history.ID)
				assert.False(t, tt.history.Timestamp.IsZero())
				for _, f := range tt.history.Faces {
					assert.NotEqual(t, uuid.Nil, f.ID)
					assert.Equal(t, tt.history.ID, f.AnalysisID)
				}
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHistoryRepository_List(t *testing.T) {
	now := time.Now().UTC()
	first, second := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		filter    domain.HistoryFilter
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantIDs   []uuid.UUID
		wantErr   bool
	}{
		{
			name:   "all sessions with default limit",
			filter: domain.HistoryFilter{},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(historyColumns).
					AddRow(first, now, 1, 30.0, []string{"Happy"}, []string{"Asian"}, 12.0, (*string)(nil)).
					AddRow(second, now.Add(-time.Minute), 2, 40.0, []string{"Sad", "Happy"}, []string{"Black", "White"}, 15.0, ptr("s1"))
				mock.ExpectQuery("FROM analysis_history ORDER BY timestamp DESC LIMIT").
					WithArgs(DefaultHistoryLimit).
					WillReturnRows(rows)
			},
			wantIDs: []uuid.UUID{first, second},
		},
		{
			name:   "one session with capped limit",
			filter: domain.HistoryFilter{SessionID: "s1", Limit: 5000},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(historyColumns).
					AddRow(second, now, 2, 40.0, []string{"Sad", "Happy"}, []string{"Black", "White"}, 15.0, ptr("s1"))
				mock.ExpectQuery("WHERE session_id = \\$1").
					WithArgs("s1", MaxHistoryLimit).
					WillReturnRows(rows)
			},
			wantIDs: []uuid.UUID{second},
		},
		{
			name:   "empty result is an empty slice",
			filter: domain.HistoryFilter{Limit: 10},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("FROM analysis_history").
					WithArgs(10).
					WillReturnRows(pgxmock.NewRows(historyColumns))
			},
			wantIDs: []uuid.UUID{},
		},
		{
			name:   "query error",
			filter: domain.HistoryFilter{},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("FROM analysis_history").
					WithArgs(DefaultHistoryLimit).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			got, err := NewHistoryRepository(mock).List(context.Background(), tt.filter)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "list history")
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				ids := make([]uuid.UUID, len(got))
				for i, h := range got {
					ids[i] = h.ID
				}
				assert.Equal(t, tt.wantIDs, ids)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHistoryRepository_GetByID(t *testing.T) {
	id := uuid.New()
	faceID := uuid.New()
	now := time.Now().UTC()

	t.Run("entry with faces", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("FROM analysis_history WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(historyColumns).
				AddRow(id, now, 1, 28.0, []string{"Happy"}, []string{"Asian"}, 9.5, ptr("s1")))

		landmarks := pgvector.NewVector([]float32{10, 20, 30, 40})
		mock.ExpectQuery("FROM analysis_faces WHERE analysis_id = \\$1 ORDER BY face_index").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(faceColumns).
				AddRow(faceID, id, 0, 5, 6, 70, 80, 0.98, 28, 0.7, "Asian", 0.6, "Happy", 0.9, &landmarks))

		got, err := NewHistoryRepository(mock).GetByID(context.Background(), id)
		require.NoError(t, err)

		assert.Equal(t, id, got.ID)
		assert.Equal(t, "s1", *got.SessionID)
		require.Len(t, got.Faces, 1)
		assert.Equal(t, domain.BoundingBox{X: 5, Y: 6, Width: 70, Height: 80}, got.Faces[0].BoundingBox)
		assert.Equal(t, []domain.Point{{X: 10, Y: 20}, {X: 30, Y: 40}}, got.Faces[0].Landmarks)
		assert.Equal(t, "Happy", got.Faces[0].Emotion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("FROM analysis_history WHERE id = \\$1").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err = NewHistoryRepository(mock).GetByID(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrHistoryNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHistoryRepository_Delete(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: domain.ErrHistoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectExec("DELETE FROM analysis_history WHERE id = \\$1").
				WithArgs(id).
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err = NewHistoryRepository(mock).Delete(context.Background(), id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHistoryRepository_DeleteBySession(t *testing.T) {
	t.Run("one session", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM analysis_history WHERE session_id = \\$1").
			WithArgs("s1").
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		n, err := NewHistoryRepository(mock).DeleteBySession(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown session removes nothing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM analysis_history WHERE session_id = \\$1").
			WithArgs("nobody").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		n, err := NewHistoryRepository(mock).DeleteBySession(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("every session", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("^DELETE FROM analysis_history$").
			WillReturnResult(pgxmock.NewResult("DELETE", 7))

		n, err := NewHistoryRepository(mock).DeleteBySession(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLandmarkVector(t *testing.T) {
	assert.Nil(t, landmarksToVector(nil))
	assert.Equal(t, []domain.Point{}, vectorToLandmarks(nil))

	points := []domain.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}
	vec := landmarksToVector(points)
	require.NotNil(t, vec)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, vec.Slice())
	assert.Equal(t, points, vectorToLandmarks(vec))
}
