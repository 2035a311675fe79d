package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/analytics"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/face"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/media"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/ws"
)

const DefaultMaxUploadBytes = 10 << 20

// Upload is a multipart image as received by the API.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type AnalysisService struct {
	analyzer       Analyzer
	historyRepo    HistoryRepositoryInterface
	cache          SummaryCache
	broadcaster    Broadcaster
	auditLogger    audit.Logger
	maxUploadBytes int
	logger         *slog.Logger
}

type AnalysisOption func(*AnalysisService)

func WithSummaryCache(c SummaryCache) AnalysisOption {
	return func(s *AnalysisService) {
		s.cache = c
	}
}

func WithBroadcaster(b Broadcaster) AnalysisOption {
	return func(s *AnalysisService) {
		s.broadcaster = b
	}
}

func WithAuditLogger(l audit.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		s.auditLogger = l
	}
}

func WithMaxUploadBytes(n int) AnalysisOption {
	return func(s *AnalysisService) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func NewAnalysisService(analyzer Analyzer, historyRepo HistoryRepositoryInterface, logger *slog.Logger, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		analyzer:       analyzer,
		historyRepo:    historyRepo,
		cache:          noopCache{},
		broadcaster:    noopBroadcaster{},
		auditLogger:    &audit.NoOpLogger{},
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         logger.With("component", "analysis_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeBase64 analyses a base64 payload. An undecodable payload is not an
// error: it yields zero faces.
func (s *AnalysisService) AnalyzeBase64(ctx context.Context, data, sessionID string) (*domain.AnalysisResponse, error) {
	start := time.Now()
	result := s.analyzer.AnalyzeBase64(ctx, data)
	elapsed := since(start)

	info := domain.ImageInfo{
		Format: "base64",
		Width:  result.Width,
		Height: result.Height,
	}

	return s.complete(ctx, result, elapsed, info, sessionID)
}

// AnalyzeUpload analyses a multipart file. Non-image content types and
// oversized files are rejected before decoding.
func (s *AnalysisService) AnalyzeUpload(ctx context.Context, upload Upload, sessionID string) (*domain.AnalysisResponse, error) {
	if !strings.HasPrefix(strings.ToLower(upload.ContentType), "image/") {
		return nil, domain.ErrNotAnImage
	}
	if len(upload.Data) > s.maxUploadBytes {
		return nil, domain.ErrImageTooLarge
	}

	start := time.Now()
	result := s.analyzer.AnalyzeBytes(ctx, upload.Data)
	elapsed := since(start)

	info := domain.ImageInfo{
		Format:      result.Format,
		Filename:    upload.Filename,
		Size:        int64(len(upload.Data)),
		ContentType: upload.ContentType,
		Width:       result.Width,
		Height:      result.Height,
	}
	if result.Decoded {
		info.Exif = media.ReadExif(upload.Data)
	}

	return s.complete(ctx, result, elapsed, info, sessionID)
}

func (s *AnalysisService) complete(ctx context.Context, result face.Result, elapsedMs float64, info domain.ImageInfo, sessionID string) (*domain.AnalysisResponse, error) {
	faces := result.Faces
	info.FacesFound = len(faces)

	resp := &domain.AnalysisResponse{
		ID:               uuid.New(),
		Timestamp:        time.Now().UTC(),
		FacesDetected:    len(faces),
		TotalConfidence:  analytics.TotalConfidence(faces),
		Results:          toFaceResults(faces),
		ProcessingTimeMs: elapsedMs,
		ImageInfo:        info,
	}

	if len(faces) > 0 {
		entry := newHistoryEntry(resp, faces, sessionID)
		if err := s.historyRepo.Create(ctx, entry); err != nil {
			s.logAudit(ctx, resp, sessionID, err)
			return nil, domain.ErrAnalysisFailed.WithError(err)
		}
		s.cache.Invalidate(ctx)
	}

	s.logger.InfoContext(ctx, "analysis completed",
		slog.String("analysis_id", resp.ID.String()),
		slog.Int("faces_detected", resp.FacesDetected),
		slog.Float64("processing_time_ms", resp.ProcessingTimeMs),
		slog.Bool("decoded", result.Decoded),
	)

	s.logAudit(ctx, resp, sessionID, nil)
	s.broadcaster.Broadcast(sessionID, ws.EventAnalysisCompleted, map[string]interface{}{
		"id":                 resp.ID,
		"faces_detected":     resp.FacesDetected,
		"total_confidence":   resp.TotalConfidence,
		"processing_time_ms": resp.ProcessingTimeMs,
	})

	return resp, nil
}

func (s *AnalysisService) logAudit(ctx context.Context, resp *domain.AnalysisResponse, sessionID string, err error) {
	event := audit.Event{
		EventType:  audit.EventAnalysisCompleted,
		SessionID:  sessionID,
		AnalysisID: resp.ID.String(),
		Success:    err == nil,
		Metadata: map[string]string{
			"faces_detected": strconv.Itoa(resp.FacesDetected),
		},
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.auditLogger.Log(ctx, event)
}

// toFaceResults numbers faces from 1.
func toFaceResults(faces []domain.FaceAnalysisResult) []domain.FaceResult {
	results := make([]domain.FaceResult, 0, len(faces))
	for i, f := range faces {
		landmarks := f.Landmarks
		if len(landmarks) > domain.MaxLandmarks {
			landmarks = landmarks[:domain.MaxLandmarks]
		}
		if landmarks == nil {
			landmarks = []domain.Point{}
		}

		results = append(results, domain.FaceResult{
			FaceID:         i + 1,
			BoundingBox:    f.BoundingBox,
			Confidence:     f.Confidence,
			Age:            f.Age,
			Race:           f.Category,
			Emotion:        f.Emotion,
			Landmarks:      landmarks,
			LandmarksCount: len(landmarks),
		})
	}
	return results
}

func newHistoryEntry(resp *domain.AnalysisResponse, faces []domain.FaceAnalysisResult, sessionID string) *domain.AnalysisHistory {
	entry := &domain.AnalysisHistory{
		ID:               resp.ID,
		Timestamp:        resp.Timestamp,
		FacesCount:       len(faces),
		AvgAge:           analytics.AverageAge(faces),
		Emotions:         make([]string, 0, len(faces)),
		Races:            make([]string, 0, len(faces)),
		ProcessingTimeMs: resp.ProcessingTimeMs,
		Faces:            make([]domain.FaceRecord, 0, len(faces)),
	}
	if sessionID != "" {
		entry.SessionID = &sessionID
	}

	for i, f := range resp.Results {
		entry.Emotions = append(entry.Emotions, f.Emotion.Value)
		entry.Races = append(entry.Races, f.Race.Value)
		entry.Faces = append(entry.Faces, domain.FaceRecord{
			AnalysisID:        resp.ID,
			FaceIndex:         i,
			BoundingBox:       f.BoundingBox,
			Confidence:        f.Confidence,
			Age:               f.Age.Value,
			AgeConfidence:     f.Age.Confidence,
			Race:              f.Race.Value,
			RaceConfidence:    f.Race.Confidence,
			Emotion:           f.Emotion.Value,
			EmotionConfidence: f.Emotion.Confidence,
			Landmarks:         f.Landmarks,
		})
	}

	return entry
}

func since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
