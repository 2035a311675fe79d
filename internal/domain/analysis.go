package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxLandmarks limita os pontos de referência retornados e persistidos por face
const MaxLandmarks = 10

// FallbackConfidence is the confidence reported for every stub value.
const FallbackConfidence = 0.5

// Pipeline slot names, also used as keys in /api/models/info
const (
	SlotDetection = "face_detection"
	SlotAge       = "age_estimation"
	SlotEmotion   = "emotion_recognition"
	SlotCategory  = "race_classification"
	SlotLandmarks = "landmarks"
)

// BoundingBox representa a região de uma face em pixels
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Clamp returns the box intersected with an image of the given size.
// A box entirely outside the image collapses to zero width or height.
func (b BoundingBox) Clamp(width, height int) BoundingBox {
	x1 := clampInt(b.X, 0, width)
	y1 := clampInt(b.Y, 0, height)
	x2 := clampInt(b.X+b.Width, 0, width)
	y2 := clampInt(b.Y+b.Height, 0, height)

	return BoundingBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// AttributeValue is one classifier output. Fallback is set when the value
// came from the fallback strategy instead of a model.
type AttributeValue[T any] struct {
	Value      T       `json:"value"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback"`
}

// FaceAnalysisResult representa o resultado completo de uma face analisada
type FaceAnalysisResult struct {
	FaceDetected bool                   `json:"face_detected"`
	Confidence   float64                `json:"confidence"`
	BoundingBox  BoundingBox            `json:"bbox"`
	Age          AttributeValue[int]    `json:"age"`
	Category     AttributeValue[string] `json:"race"`
	Emotion      AttributeValue[string] `json:"emotion"`
	Landmarks    []Point                `json:"landmarks"`
}

// FaceResult is the per-face entry of an AnalysisResponse.
type FaceResult struct {
	FaceID         int                    `json:"face_id"`
	BoundingBox    BoundingBox            `json:"bbox"`
	Confidence     float64                `json:"confidence"`
	Age            AttributeValue[int]    `json:"age"`
	Race           AttributeValue[string] `json:"race"`
	Emotion        AttributeValue[string] `json:"emotion"`
	Landmarks      []Point                `json:"landmarks"`
	LandmarksCount int                    `json:"landmarks_count"`
}

type ExifInfo struct {
	CameraMake  string     `json:"camera_make,omitempty"`
	CameraModel string     `json:"camera_model,omitempty"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	Orientation int        `json:"orientation,omitempty"`
}

type ImageInfo struct {
	Format      string    `json:"format,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Size        int64     `json:"size,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Exif        *ExifInfo `json:"exif,omitempty"`
	FacesFound  int       `json:"faces_found"`
}

type AnalysisResponse struct {
	ID               uuid.UUID    `json:"id"`
	Timestamp        time.Time    `json:"timestamp"`
	FacesDetected    int          `json:"faces_detected"`
	TotalConfidence  float64      `json:"total_confidence"`
	Results          []FaceResult `json:"results"`
	ProcessingTimeMs float64      `json:"processing_time_ms"`
	ImageInfo        ImageInfo    `json:"image_info"`
}

// AnalysisHistory representa um registro persistido de análise
type AnalysisHistory struct {
	ID               uuid.UUID    `json:"id"`
	Timestamp        time.Time    `json:"timestamp"`
	FacesCount       int          `json:"faces_count"`
	AvgAge           float64      `json:"avg_age"`
	Emotions         []string     `json:"emotions"`
	Races            []string     `json:"races"`
	ProcessingTimeMs float64      `json:"processing_time_ms"`
	SessionID        *string      `json:"session_id"`
	Faces            []FaceRecord `json:"faces,omitempty"`
}

// FaceRecord is one analysed face stored alongside its history entry.
type FaceRecord struct {
	ID                uuid.UUID   `json:"id"`
	AnalysisID        uuid.UUID   `json:"analysis_id"`
	FaceIndex         int         `json:"face_index"`
	BoundingBox       BoundingBox `json:"bbox"`
	Confidence        float64     `json:"confidence"`
	Age               int         `json:"age"`
	AgeConfidence     float64     `json:"age_confidence"`
	Race              string      `json:"race"`
	RaceConfidence    float64     `json:"race_confidence"`
	Emotion           string      `json:"emotion"`
	EmotionConfidence float64     `json:"emotion_confidence"`
	Landmarks         []Point     `json:"landmarks"`
}

// HistoryFilter selects history entries. An empty SessionID matches every session.
type HistoryFilter struct {
	SessionID string
	Limit     int
}

type AnalyticsSummary struct {
	TotalAnalyses       int            `json:"total_analyses"`
	TotalFaces          int            `json:"total_faces"`
	AvgAge              float64        `json:"avg_age"`
	EmotionDistribution map[string]int `json:"emotion_distribution"`
	RaceDistribution    map[string]int `json:"race_distribution"`
	AvgProcessingTime   float64        `json:"avg_processing_time"`
}

type StatusCheck struct {
	ID         uuid.UUID `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// ModelStatus describes one pipeline slot as decided at startup.
type ModelStatus struct {
	Name    string `json:"name"`
	Backend string `json:"backend"`
	Loaded  bool   `json:"loaded"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampConfidence pins a score into [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 || math.IsNaN(c) {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
