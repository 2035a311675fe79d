package provider

import (
	"context"
	"image"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

// FaceDetector localiza faces em uma imagem
type FaceDetector interface {
	// DetectFaces returns every face found in img. An empty slice is a
	// valid result.
	DetectFaces(ctx context.Context, img image.Image) ([]DetectedFace, error)
}

// AgeEstimator estimates an age in years from a cropped face.
type AgeEstimator interface {
	EstimateAge(ctx context.Context, face image.Image) (int, float64, error)
}

// EmotionClassifier returns the dominant expression of a cropped face.
type EmotionClassifier interface {
	ClassifyEmotion(ctx context.Context, face image.Image) (string, float64, error)
}

// CategoryClassifier returns the demographic category of a cropped face,
// exposed by the API under the "race" key.
type CategoryClassifier interface {
	ClassifyCategory(ctx context.Context, face image.Image) (string, float64, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox    `json:"bounding_box"`
	Confidence  float64        `json:"confidence"`
	Landmarks   []domain.Point `json:"landmarks,omitempty"`
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pixels rounds the box to integer pixel coordinates.
func (b BoundingBox) Pixels() domain.BoundingBox {
	return domain.BoundingBox{
		X:      int(b.X + 0.5),
		Y:      int(b.Y + 0.5),
		Width:  int(b.Width + 0.5),
		Height: int(b.Height + 0.5),
	}
}

// Emotion labels reported by the API
const (
	EmotionHappy    = "Happy"
	EmotionSad      = "Sad"
	EmotionAngry    = "Angry"
	EmotionFear     = "Fear"
	EmotionSurprise = "Surprise"
	EmotionDisgust  = "Disgust"
	EmotionNeutral  = "Neutral"
)

// Emotions is the canonical label set, in display order.
var Emotions = []string{
	EmotionHappy, EmotionSad, EmotionAngry, EmotionFear,
	EmotionSurprise, EmotionDisgust, EmotionNeutral,
}

// Categories is the label set used when a category has to be invented.
var Categories = []string{
	"Asian", "Black", "Indian", "White", "Middle Eastern", "Mixed", "Other",
}

var emotionAliases = map[string]string{
	"happy":     EmotionHappy,
	"happiness": EmotionHappy,
	"sad":       EmotionSad,
	"sadness":   EmotionSad,
	"angry":     EmotionAngry,
	"anger":     EmotionAngry,
	"fear":      EmotionFear,
	"fearful":   EmotionFear,
	"surprise":  EmotionSurprise,
	"surprised": EmotionSurprise,
	"disgust":   EmotionDisgust,
	"disgusted": EmotionDisgust,
	"neutral":   EmotionNeutral,
}

// NormalizeEmotion maps backend emotion names onto the canonical labels.
// Unknown names are passed through title-cased.
func NormalizeEmotion(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if canonical, ok := emotionAliases[key]; ok {
		return canonical
	}
	return TitleCase(key)
}

// TitleCase upper-cases the first letter of every space separated word.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
