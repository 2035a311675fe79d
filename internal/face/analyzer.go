package face

import (
	"context"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/media"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider"
)

// Pipeline is the set of slots an Analyzer runs. A nil Detector means
// detection is unavailable and every image yields zero faces.
type Pipeline struct {
	Detector        provider.FaceDetector
	DetectorBackend string
	Age             *Model[int]
	Emotion         *Model[string]
	Category        *Model[string]
}

// Result is the outcome of analysing encoded image bytes.
type Result struct {
	Faces  []domain.FaceAnalysisResult
	Width  int
	Height int
	Format string
	// Decoded is false when the payload could not be read as an image.
	Decoded bool
}

// Analyzer runs detection, cropping and per-face attribute inference.
// It is safe for concurrent use once built.
type Analyzer struct {
	pipeline     Pipeline
	cropper      *media.Cropper
	maxLandmarks int
	device       string
	logger       *slog.Logger
}

type Option func(*Analyzer)

func WithCropper(c *media.Cropper) Option {
	return func(a *Analyzer) {
		a.cropper = c
	}
}

func WithDevice(device string) Option {
	return func(a *Analyzer) {
		a.device = device
	}
}

func WithMaxLandmarks(n int) Option {
	return func(a *Analyzer) {
		a.maxLandmarks = n
	}
}

func NewAnalyzer(p Pipeline, logger *slog.Logger, opts ...Option) *Analyzer {
	fb := FixedFallbacks()
	if p.Age == nil {
		p.Age = Unavailable(domain.SlotAge, fb.Age)
	}
	if p.Emotion == nil {
		p.Emotion = Unavailable(domain.SlotEmotion, fb.Emotion)
	}
	if p.Category == nil {
		p.Category = Unavailable(domain.SlotCategory, fb.Category)
	}
	if p.Detector == nil {
		p.DetectorBackend = "none"
	}

	a := &Analyzer{
		pipeline:     p,
		cropper:      media.NewCropper(),
		maxLandmarks: domain.MaxLandmarks,
		device:       "cpu",
		logger:       logger.With("component", "analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeBase64 decodes a base64 payload (a data URL prefix is accepted)
// and analyses it. Undecodable payloads yield an empty result.
func (a *Analyzer) AnalyzeBase64(ctx context.Context, data string) Result {
	raw, err := media.DecodeBase64(data)
	if err != nil {
		a.logger.WarnContext(ctx, "base64 payload rejected", slog.String("error", err.Error()))
		return Result{Faces: []domain.FaceAnalysisResult{}}
	}
	return a.AnalyzeBytes(ctx, raw)
}

// AnalyzeBytes decodes raw image bytes and analyses them. Undecodable
// payloads yield an empty result.
func (a *Analyzer) AnalyzeBytes(ctx context.Context, data []byte) Result {
	img, format, err := media.Decode(data)
	if err != nil {
		a.logger.WarnContext(ctx, "image decode failed", slog.String("error", err.Error()))
		return Result{Faces: []domain.FaceAnalysisResult{}}
	}

	bounds := img.Bounds()
	return Result{
		Faces:   a.Analyze(ctx, img),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Format:  format,
		Decoded: true,
	}
}

// Analyze runs the pipeline on a decoded image. Detector failures are
// logged and reported as zero faces; attribute failures fall back per slot.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image) []domain.FaceAnalysisResult {
	results := []domain.FaceAnalysisResult{}

	if a.pipeline.Detector == nil {
		a.logger.DebugContext(ctx, "face detector unavailable")
		return results
	}

	detections, err := a.pipeline.Detector.DetectFaces(ctx, img)
	if err != nil {
		a.logger.WarnContext(ctx, "face detection failed",
			slog.String("backend", a.pipeline.DetectorBackend),
			slog.String("error", err.Error()),
		)
		return results
	}

	bounds := img.Bounds()
	for i, det := range detections {
		bbox := det.BoundingBox.Pixels().Clamp(bounds.Dx(), bounds.Dy())
		if bbox.Empty() {
			a.logger.DebugContext(ctx, "skipping degenerate detection", slog.Int("index", i))
			continue
		}

		crop, err := a.cropper.Crop(img, bbox)
		if err != nil {
			a.logger.WarnContext(ctx, "face crop failed", slog.Int("index", i), slog.String("error", err.Error()))
			continue
		}

		results = append(results, a.analyzeFace(ctx, det, bbox, crop))
	}

	return results
}

func (a *Analyzer) analyzeFace(ctx context.Context, det provider.DetectedFace, bbox domain.BoundingBox, crop image.Image) domain.FaceAnalysisResult {
	landmarks := det.Landmarks
	if len(landmarks) > a.maxLandmarks {
		landmarks = landmarks[:a.maxLandmarks]
	}
	if landmarks == nil {
		landmarks = []domain.Point{}
	}

	age, err := a.pipeline.Age.Predict(ctx, crop)
	a.logFallback(ctx, a.pipeline.Age.Name(), err)

	category, err := a.pipeline.Category.Predict(ctx, crop)
	a.logFallback(ctx, a.pipeline.Category.Name(), err)

	emotion, err := a.pipeline.Emotion.Predict(ctx, crop)
	a.logFallback(ctx, a.pipeline.Emotion.Name(), err)

	return domain.FaceAnalysisResult{
		FaceDetected: true,
		Confidence:   domain.ClampConfidence(det.Confidence),
		BoundingBox:  bbox,
		Age:          age,
		Category:     category,
		Emotion:      emotion,
		Landmarks:    append([]domain.Point(nil), landmarks...),
	}
}

func (a *Analyzer) logFallback(ctx context.Context, slot string, err error) {
	if err == nil {
		return
	}
	a.logger.WarnContext(ctx, "inference failed, using fallback",
		slog.String("slot", slot),
		slog.String("error", err.Error()),
	)
}

// Models reports every slot as decided at startup.
func (a *Analyzer) Models() []domain.ModelStatus {
	detector := domain.ModelStatus{
		Name:    domain.SlotDetection,
		Backend: a.pipeline.DetectorBackend,
		Loaded:  a.pipeline.Detector != nil,
	}
	landmarks := detector
	landmarks.Name = domain.SlotLandmarks

	return []domain.ModelStatus{
		detector,
		a.pipeline.Age.Status(),
		a.pipeline.Emotion.Status(),
		a.pipeline.Category.Status(),
		landmarks,
	}
}

// Ready reports whether faces can be detected at all.
func (a *Analyzer) Ready() bool {
	return a.pipeline.Detector != nil
}

func (a *Analyzer) Device() string {
	return a.device
}
