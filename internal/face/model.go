package face

import (
	"context"
	"fmt"
	"image"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

// Inference is one attribute classifier call on a cropped face.
type Inference[T any] func(ctx context.Context, face image.Image) (T, float64, error)

// Model is a pipeline slot. Whether it is loaded is decided once, when the
// slot is built; an unavailable slot always answers with its fallback.
type Model[T any] struct {
	name     string
	backend  string
	infer    Inference[T]
	fallback Fallback[T]
}

// Loaded wraps a working backend.
func Loaded[T any](name, backend string, infer Inference[T], fallback Fallback[T]) *Model[T] {
	return &Model[T]{
		name:     name,
		backend:  backend,
		infer:    infer,
		fallback: fallback,
	}
}

// Unavailable builds a slot that only produces fallback values.
func Unavailable[T any](name string, fallback Fallback[T]) *Model[T] {
	return &Model[T]{
		name:     name,
		backend:  "none",
		fallback: fallback,
	}
}

func (m *Model[T]) Name() string {
	return m.name
}

func (m *Model[T]) IsLoaded() bool {
	return m.infer != nil
}

func (m *Model[T]) Status() domain.ModelStatus {
	return domain.ModelStatus{
		Name:    m.name,
		Backend: m.backend,
		Loaded:  m.IsLoaded(),
	}
}

// Predict runs the backend on face. The returned value is always usable:
// a non-nil error reports why the fallback was used instead.
func (m *Model[T]) Predict(ctx context.Context, face image.Image) (result domain.AttributeValue[T], err error) {
	if !m.IsLoaded() {
		return m.fallbackValue(), nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = m.fallbackValue()
			err = fmt.Errorf("%s: panic during inference: %v", m.name, r)
		}
	}()

	value, confidence, err := m.infer(ctx, face)
	if err != nil {
		return m.fallbackValue(), fmt.Errorf("%s: %w", m.name, err)
	}

	return domain.AttributeValue[T]{
		Value:      value,
		Confidence: domain.ClampConfidence(confidence),
	}, nil
}

func (m *Model[T]) fallbackValue() domain.AttributeValue[T] {
	return domain.AttributeValue[T]{
		Value:      m.fallback(),
		Confidence: domain.FallbackConfidence,
		Fallback:   true,
	}
}
