package rekognition

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/media"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// Provider implements the detector, age and emotion slots on AWS Rekognition.
// Rekognition has no demographic classifier, so CategoryClassifier is not
// implemented.
type Provider struct {
	client      *Client
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

var (
	_ provider.FaceDetector      = (*Provider)(nil)
	_ provider.AgeEstimator      = (*Provider)(nil)
	_ provider.EmotionClassifier = (*Provider)(nil)
)

// NewProvider loads AWS credentials and returns a ready provider
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return NewProviderWithClient(client, opts...), nil
}

func NewProviderWithClient(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// logAudit logs an audit event if an audit logger is configured
// Audit failure does not affect the operation (fire-and-forget)
func (p *Provider) logAudit(ctx context.Context, eventType audit.EventType, success bool, err error, metadata map[string]string) {
	if p.auditLogger == nil {
		return
	}

	event := audit.Event{
		EventType: eventType,
		Provider:  "rekognition",
		Success:   success,
		Metadata:  metadata,
	}

	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

func (p *Provider) detect(ctx context.Context, img image.Image) ([]types.FaceDetail, error) {
	data, err := media.EncodeJPEG(img)
	if err != nil {
		return nil, err
	}
	if err := validateImage(data); err != nil {
		return nil, err
	}
	return p.client.DetectFaces(ctx, data)
}

// DetectFaces detects faces using the DetectFaces API. Rekognition reports
// geometry as ratios of the image size, converted here to pixels.
// Returns an empty slice if no faces are detected (not an error)
func (p *Provider) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	details, err := p.detect(ctx, img)
	if err != nil {
		p.logAudit(ctx, audit.EventFaceDetected, false, err, nil)
		return nil, err
	}

	width := float64(img.Bounds().Dx())
	height := float64(img.Bounds().Dy())

	faces := make([]provider.DetectedFace, 0, len(details))
	for _, detail := range details {
		if detail.BoundingBox == nil {
			continue
		}
		box := detail.BoundingBox

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(aws.ToFloat32(box.Left)) * width,
				Y:      float64(aws.ToFloat32(box.Top)) * height,
				Width:  float64(aws.ToFloat32(box.Width)) * width,
				Height: float64(aws.ToFloat32(box.Height)) * height,
			},
			Confidence: domain.ClampConfidence(float64(aws.ToFloat32(detail.Confidence)) / 100),
			Landmarks:  landmarks(detail.Landmarks, width, height),
		})
	}

	p.logAudit(ctx, audit.EventFaceDetected, true, nil, map[string]string{
		"faces_count": strconv.Itoa(len(faces)),
	})

	return faces, nil
}

func landmarks(marks []types.Landmark, width, height float64) []domain.Point {
	if len(marks) == 0 {
		return nil
	}
	points := make([]domain.Point, 0, len(marks))
	for _, m := range marks {
		if m.X == nil || m.Y == nil {
			continue
		}
		points = append(points, domain.Point{
			X: int(float64(*m.X)*width + 0.5),
			Y: int(float64(*m.Y)*height + 0.5),
		})
	}
	return points
}

// primaryFace returns the largest face found in a crop.
func (p *Provider) primaryFace(ctx context.Context, face image.Image) (*types.FaceDetail, error) {
	details, err := p.detect(ctx, face)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrNoFaceDetected
	}

	best := 0
	bestArea := float32(-1)
	for i, d := range details {
		if d.BoundingBox == nil {
			continue
		}
		if area := aws.ToFloat32(d.BoundingBox.Width) * aws.ToFloat32(d.BoundingBox.Height); area > bestArea {
			best, bestArea = i, area
		}
	}
	return &details[best], nil
}

// EstimateAge uses the midpoint of the AgeRange reported for the crop.
func (p *Provider) EstimateAge(ctx context.Context, face image.Image) (int, float64, error) {
	detail, err := p.primaryFace(ctx, face)
	if err != nil {
		return 0, 0, fmt.Errorf("estimate age: %w", err)
	}
	if detail.AgeRange == nil || detail.AgeRange.Low == nil || detail.AgeRange.High == nil {
		return 0, 0, fmt.Errorf("estimate age: %w", ErrNoFaceDetected)
	}

	low, high := *detail.AgeRange.Low, *detail.AgeRange.High
	age := int(low+high+1) / 2

	return age, domain.ClampConfidence(float64(aws.ToFloat32(detail.Confidence)) / 100), nil
}

// ClassifyEmotion returns the highest confidence entry of Emotions.
func (p *Provider) ClassifyEmotion(ctx context.Context, face image.Image) (string, float64, error) {
	detail, err := p.primaryFace(ctx, face)
	if err != nil {
		return "", 0, fmt.Errorf("classify emotion: %w", err)
	}

	emotions := make([]types.Emotion, 0, len(detail.Emotions))
	for _, e := range detail.Emotions {
		if e.Confidence != nil && e.Type != "" && e.Type != types.EmotionNameUnknown {
			emotions = append(emotions, e)
		}
	}
	if len(emotions) == 0 {
		return "", 0, fmt.Errorf("classify emotion: %w", ErrNoFaceDetected)
	}

	sort.SliceStable(emotions, func(i, j int) bool {
		return *emotions[i].Confidence > *emotions[j].Confidence
	})
	top := emotions[0]

	return provider.NormalizeEmotion(string(top.Type)), domain.ClampConfidence(float64(*top.Confidence) / 100), nil
}
