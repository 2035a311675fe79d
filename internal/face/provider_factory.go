package face

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/config"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider/rekognition"
)

var errCategoryNotOffered = errors.New("rekognition offers no category classifier")

// backends lazily builds each provider at most once, remembering failures
// so every slot sharing a backend gets the same verdict.
type backends struct {
	cfg         *config.Config
	logger      *slog.Logger
	auditLogger audit.Logger

	deepface    *deepface.Provider
	deepfaceErr error
	deepfaceSet bool

	rekognition    *rekognition.Provider
	rekognitionErr error
	rekognitionSet bool

	mock *mock.Provider
}

// NewAnalyzerFromConfig builds the Analyzer once at startup. Each slot is
// Loaded when its backend answers and Unavailable otherwise; an unreachable
// backend never fails startup.
func NewAnalyzerFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger, auditLogger audit.Logger) (*Analyzer, error) {
	fallbacks, err := NewFallbacks(cfg.FallbackMode)
	if err != nil {
		return nil, err
	}

	b := &backends{cfg: cfg, logger: logger, auditLogger: auditLogger}

	var p Pipeline
	p.DetectorBackend = normalize(cfg.DetectorBackend)
	if det, err := b.detector(ctx, p.DetectorBackend); err != nil {
		logger.Warn("face detector unavailable",
			slog.String("backend", p.DetectorBackend),
			slog.String("error", err.Error()),
		)
	} else {
		p.Detector = det
	}

	p.Age = buildSlot(ctx, b, domain.SlotAge, normalize(cfg.AgeBackend), fallbacks.Age, b.age)
	p.Emotion = buildSlot(ctx, b, domain.SlotEmotion, normalize(cfg.EmotionBackend), fallbacks.Emotion, b.emotion)
	p.Category = buildSlot(ctx, b, domain.SlotCategory, normalize(cfg.CategoryBackend), fallbacks.Category, b.category)

	a := NewAnalyzer(p, logger, WithDevice(cfg.Device))
	for _, m := range a.Models() {
		logger.Info("model slot ready",
			slog.String("slot", m.Name),
			slog.String("backend", m.Backend),
			slog.Bool("loaded", m.Loaded),
		)
	}
	return a, nil
}

func normalize(backend string) string {
	return strings.ToLower(strings.TrimSpace(backend))
}

// buildSlot resolves one classifier slot through resolve.
func buildSlot[T any](ctx context.Context, b *backends, name, backend string, fallback Fallback[T],
	resolve func(context.Context, string) (Inference[T], error)) *Model[T] {
	infer, err := resolve(ctx, backend)
	if err != nil {
		b.logger.Warn("model unavailable, fallback will be used",
			slog.String("slot", name),
			slog.String("backend", backend),
			slog.String("error", err.Error()),
		)
		return Unavailable(name, fallback)
	}
	return Loaded(name, backend, infer, fallback)
}

func (b *backends) detector(ctx context.Context, backend string) (provider.FaceDetector, error) {
	switch backend {
	case config.BackendDeepFace:
		return b.deepFace(ctx)
	case config.BackendRekognition:
		return b.rekognitionProvider(ctx)
	case config.BackendMock:
		return b.mockProvider(), nil
	case config.BackendNone:
		return nil, errors.New("disabled by configuration")
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func (b *backends) age(ctx context.Context, backend string) (Inference[int], error) {
	switch backend {
	case config.BackendDeepFace:
		p, err := b.deepFace(ctx)
		if err != nil {
			return nil, err
		}
		return p.EstimateAge, nil
	case config.BackendRekognition:
		p, err := b.rekognitionProvider(ctx)
		if err != nil {
			return nil, err
		}
		return p.EstimateAge, nil
	case config.BackendMock:
		return b.mockProvider().EstimateAge, nil
	case config.BackendNone:
		return nil, errors.New("disabled by configuration")
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func (b *backends) emotion(ctx context.Context, backend string) (Inference[string], error) {
	switch backend {
	case config.BackendDeepFace:
		p, err := b.deepFace(ctx)
		if err != nil {
			return nil, err
		}
		return p.ClassifyEmotion, nil
	case config.BackendRekognition:
		p, err := b.rekognitionProvider(ctx)
		if err != nil {
			return nil, err
		}
		return p.ClassifyEmotion, nil
	case config.BackendMock:
		return b.mockProvider().ClassifyEmotion, nil
	case config.BackendNone:
		return nil, errors.New("disabled by configuration")
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func (b *backends) category(ctx context.Context, backend string) (Inference[string], error) {
	switch backend {
	case config.BackendDeepFace:
		p, err := b.deepFace(ctx)
		if err != nil {
			return nil, err
		}
		return p.ClassifyCategory, nil
	case config.BackendRekognition:
		return nil, errCategoryNotOffered
	case config.BackendMock:
		return b.mockProvider().ClassifyCategory, nil
	case config.BackendNone:
		return nil, errors.New("disabled by configuration")
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

// deepFace probes the service once with GET / within the probe timeout.
func (b *backends) deepFace(ctx context.Context) (*deepface.Provider, error) {
	if b.deepfaceSet {
		return b.deepface, b.deepfaceErr
	}
	b.deepfaceSet = true

	dfConfig := deepface.DefaultConfig()
	if b.cfg.DeepFaceURL != "" {
		dfConfig.BaseURL = b.cfg.DeepFaceURL
	}
	if b.cfg.DeepFaceTimeout > 0 {
		dfConfig.Timeout = b.cfg.DeepFaceTimeout
	}
	if b.cfg.DeepFaceDetector != "" {
		dfConfig.Detector = b.cfg.DeepFaceDetector
	}
	dfConfig.RetryCount = b.cfg.DeepFaceRetries

	p := deepface.NewProvider(dfConfig)

	probeCtx, cancel := context.WithTimeout(ctx, b.probeTimeout())
	defer cancel()

	if err := p.Ping(probeCtx); err != nil {
		b.deepfaceErr = err
		return nil, err
	}

	b.deepface = p
	return p, nil
}

func (b *backends) rekognitionProvider(ctx context.Context) (*rekognition.Provider, error) {
	if b.rekognitionSet {
		return b.rekognition, b.rekognitionErr
	}
	b.rekognitionSet = true

	rekConfig := rekognition.DefaultConfig()
	if b.cfg.AWSRegion != "" {
		rekConfig.Region = b.cfg.AWSRegion
	}

	var opts []rekognition.ProviderOption
	if b.auditLogger != nil {
		opts = append(opts, rekognition.WithAuditLogger(b.auditLogger))
	}

	probeCtx, cancel := context.WithTimeout(ctx, b.probeTimeout())
	defer cancel()

	p, err := rekognition.NewProvider(probeCtx, rekConfig, opts...)
	if err != nil {
		b.rekognitionErr = err
		return nil, err
	}

	b.rekognition = p
	return p, nil
}

func (b *backends) mockProvider() *mock.Provider {
	if b.mock == nil {
		b.mock = mock.New()
	}
	return b.mock
}

func (b *backends) probeTimeout() time.Duration {
	if b.cfg.ProbeTimeout > 0 {
		return b.cfg.ProbeTimeout
	}
	return 5 * time.Second
}
