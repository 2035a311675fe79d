package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

// MemoryHistoryRepository keeps history in process memory. It backs the API
// when no DATABASE_URL is configured and is lost on restart.
type MemoryHistoryRepository struct {
	mu      sync.RWMutex
	entries []domain.AnalysisHistory
}

func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{}
}

var _ HistoryRepositoryInterface = (*MemoryHistoryRepository)(nil)

func (r *MemoryHistoryRepository) Create(_ context.Context, h *domain.AnalysisHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}
	for i := range h.Faces {
		if h.Faces[i].ID == uuid.Nil {
			h.Faces[i].ID = uuid.New()
		}
		h.Faces[i].AnalysisID = h.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, cloneHistory(*h))
	return nil
}

func (r *MemoryHistoryRepository) List(_ context.Context, filter domain.HistoryFilter) ([]domain.AnalysisHistory, error) {
	limit := normalizeLimit(filter.Limit, DefaultHistoryLimit, MaxHistoryLimit)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.AnalysisHistory, 0, min(limit, len(r.entries)))
	for _, h := range r.newestFirst() {
		if !matchesSession(h, filter.SessionID) {
			continue
		}
		h.Faces = nil
		out = append(out, cloneHistory(h))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryHistoryRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.AnalysisHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.entries {
		if h.ID == id {
			c := cloneHistory(h)
			if c.Faces == nil {
				c.Faces = []domain.FaceRecord{}
			}
			return &c, nil
		}
	}
	return nil, domain.ErrHistoryNotFound
}

func (r *MemoryHistoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.entries)
	r.entries = slices.DeleteFunc(r.entries, func(h domain.AnalysisHistory) bool {
		return h.ID == id
	})
	if len(r.entries) == before {
		return domain.ErrHistoryNotFound
	}
	return nil
}

func (r *MemoryHistoryRepository) DeleteBySession(_ context.Context, sessionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.entries)
	r.entries = slices.DeleteFunc(r.entries, func(h domain.AnalysisHistory) bool {
		return matchesSession(h, sessionID)
	})
	return int64(before - len(r.entries)), nil
}

// newestFirst must be called with the lock held.
func (r *MemoryHistoryRepository) newestFirst() []domain.AnalysisHistory {
	sorted := slices.Clone(r.entries)
	slices.SortStableFunc(sorted, func(a, b domain.AnalysisHistory) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return sorted
}

func matchesSession(h domain.AnalysisHistory, sessionID string) bool {
	if sessionID == "" {
		return true
	}
	return h.SessionID != nil && *h.SessionID == sessionID
}

func cloneHistory(h domain.AnalysisHistory) domain.AnalysisHistory {
	h.Emotions = slices.Clone(h.Emotions)
	h.Races = slices.Clone(h.Races)
	if h.SessionID != nil {
		s := *h.SessionID
		h.SessionID = &s
	}
	if h.Faces != nil {
		faces := make([]domain.FaceRecord, len(h.Faces))
		for i, f := range h.Faces {
			f.Landmarks = slices.Clone(f.Landmarks)
			faces[i] = f
		}
		h.Faces = faces
	}
	return h
}

// MemoryStatusRepository is the in-memory status check store.
type MemoryStatusRepository struct {
	mu     sync.RWMutex
	checks []domain.StatusCheck
}

func NewMemoryStatusRepository() *MemoryStatusRepository {
	return &MemoryStatusRepository{}
}

var _ StatusRepositoryInterface = (*MemoryStatusRepository)(nil)

func (r *MemoryStatusRepository) Create(_ context.Context, s *domain.StatusCheck) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.checks = append(r.checks, *s)
	return nil
}

func (r *MemoryStatusRepository) List(_ context.Context, limit int) ([]domain.StatusCheck, error) {
	limit = normalizeLimit(limit, DefaultStatusLimit, MaxStatusLimit)

	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := slices.Clone(r.checks)
	slices.SortStableFunc(sorted, func(a, b domain.StatusCheck) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if sorted == nil {
		sorted = []domain.StatusCheck{}
	}
	return sorted, nil
}
