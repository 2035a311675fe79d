package deepface

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/media"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels

	// age is a regression output and carries no score of its own
	ageConfidence = 0.7
)

// Provider implements the detector and the three classifiers on top of
// the DeepFace REST service.
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Ping reports whether the service is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// DetectFaces detects faces in the image
func (p *Provider) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	imageBase64, err := media.EncodeBase64JPEG(img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	bounds := img.Bounds()

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		area := result.FacialArea
		if area.W <= 0 || area.H <= 0 {
			continue
		}
		if isNoFaceResult(result, bounds.Dx(), bounds.Dy()) {
			continue
		}

		confidence := result.FaceConfidence
		if confidence <= 0 {
			confidence = calculateConfidence(float64(area.W * area.H))
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(area.X),
				Y:      float64(area.Y),
				Width:  float64(area.W),
				Height: float64(area.H),
			},
			Confidence: domain.ClampConfidence(confidence),
			Landmarks:  eyeLandmarks(area),
		})
	}

	return faces, nil
}

// isNoFaceResult reports the placeholder /represent returns when detection
// is not enforced and nothing was found: the whole image with a zero score.
func isNoFaceResult(result RepresentResult, width, height int) bool {
	area := result.FacialArea
	return result.FaceConfidence <= 0 &&
		area.X <= 0 && area.Y <= 0 &&
		area.W >= width && area.H >= height
}

// calculateConfidence estimates confidence based on face area, used when
// the detector backend reports no face_confidence.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5 // Low confidence for very small faces
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

func eyeLandmarks(area FacialArea) []domain.Point {
	var points []domain.Point
	for _, eye := range [][]int{area.LeftEye, area.RightEye} {
		if len(eye) == 2 {
			points = append(points, domain.Point{X: eye[0], Y: eye[1]})
		}
	}
	return points
}

// EstimateAge runs the age action on a cropped face.
func (p *Provider) EstimateAge(ctx context.Context, face image.Image) (int, float64, error) {
	result, err := p.analyze(ctx, face, ActionAge)
	if err != nil {
		return 0, 0, fmt.Errorf("estimate age: %w", err)
	}
	if result.Age <= 0 {
		return 0, 0, fmt.Errorf("estimate age: %w", ErrEmptyPrediction)
	}

	return int(math.Round(result.Age)), ageConfidence, nil
}

// ClassifyEmotion runs the emotion action on a cropped face.
func (p *Provider) ClassifyEmotion(ctx context.Context, face image.Image) (string, float64, error) {
	result, err := p.analyze(ctx, face, ActionEmotion)
	if err != nil {
		return "", 0, fmt.Errorf("classify emotion: %w", err)
	}

	label, score, ok := dominant(result.DominantEmotion, result.Emotion)
	if !ok {
		return "", 0, fmt.Errorf("classify emotion: %w", ErrEmptyPrediction)
	}

	return provider.NormalizeEmotion(label), score, nil
}

// ClassifyCategory runs the race action on a cropped face.
func (p *Provider) ClassifyCategory(ctx context.Context, face image.Image) (string, float64, error) {
	result, err := p.analyze(ctx, face, ActionRace)
	if err != nil {
		return "", 0, fmt.Errorf("classify category: %w", err)
	}

	label, score, ok := dominant(result.DominantRace, result.Race)
	if !ok {
		return "", 0, fmt.Errorf("classify category: %w", ErrEmptyPrediction)
	}

	return provider.TitleCase(label), score, nil
}

func (p *Provider) analyze(ctx context.Context, face image.Image, action string) (*AnalyzeResult, error) {
	imageBase64, err := media.EncodeBase64JPEG(face)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Analyze(ctx, imageBase64, action)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	return &resp.Results[0], nil
}

// dominant picks the reported dominant label, or the highest score when
// the service omitted it. Scores come back as percentages.
func dominant(label string, scores map[string]float64) (string, float64, bool) {
	if label == "" {
		best := -1.0
		for k, v := range scores {
			if v > best || (v == best && k < label) {
				label, best = k, v
			}
		}
	}
	if label == "" {
		return "", 0, false
	}

	return label, domain.ClampConfidence(scores[label] / 100), true
}

var (
	_ provider.FaceDetector       = (*Provider)(nil)
	_ provider.AgeEstimator       = (*Provider)(nil)
	_ provider.EmotionClassifier  = (*Provider)(nil)
	_ provider.CategoryClassifier = (*Provider)(nil)
)
