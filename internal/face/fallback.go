package face

import (
	"fmt"
	"math/rand/v2"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/config"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider"
)

// Fallback produces the value a slot reports when its model cannot answer.
type Fallback[T any] func() T

// Sentinel values of the fixed strategy
const (
	FixedAge      = 30
	FixedEmotion  = provider.EmotionNeutral
	FixedCategory = "Other"
)

// Fallbacks groups the per-slot strategies.
type Fallbacks struct {
	Age      Fallback[int]
	Emotion  Fallback[string]
	Category Fallback[string]
}

// Fixed always returns v.
func Fixed[T any](v T) Fallback[T] {
	return func() T { return v }
}

// RandomAge draws uniformly from [lo, hi]. intN must be safe for
// concurrent use when the analyzer serves concurrent requests.
func RandomAge(lo, hi int, intN func(int) int) Fallback[int] {
	return func() int {
		return lo + intN(hi-lo+1)
	}
}

// RandomChoice draws uniformly from choices.
func RandomChoice(choices []string, intN func(int) int) Fallback[string] {
	return func() string {
		return choices[intN(len(choices))]
	}
}

func FixedFallbacks() Fallbacks {
	return Fallbacks{
		Age:      Fixed(FixedAge),
		Emotion:  Fixed(FixedEmotion),
		Category: Fixed(FixedCategory),
	}
}

// RandomFallbacks draws ages in 18-65 and labels from the canonical sets.
// A nil intN uses the global math/rand/v2 source.
func RandomFallbacks(intN func(int) int) Fallbacks {
	if intN == nil {
		intN = rand.IntN
	}
	return Fallbacks{
		Age:      RandomAge(18, 65, intN),
		Emotion:  RandomChoice(provider.Emotions, intN),
		Category: RandomChoice(provider.Categories, intN),
	}
}

// NewFallbacks resolves FALLBACK_MODE.
func NewFallbacks(mode string) (Fallbacks, error) {
	switch mode {
	case config.FallbackFixed, "":
		return FixedFallbacks(), nil
	case config.FallbackRandom:
		return RandomFallbacks(nil), nil
	default:
		return Fallbacks{}, fmt.Errorf("unknown fallback mode %q", mode)
	}
}
