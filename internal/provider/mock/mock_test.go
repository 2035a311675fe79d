package mock

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider"
)

func solid(w, h int, c color.Color) image.Image {
	return imaging.New(w, h, c)
}

func TestProvider_DetectFaces(t *testing.T) {
	p := New()

	tests := []struct {
		name      string
		img       image.Image
		wantCount int
		wantBox   provider.BoundingBox
	}{
		{
			name:      "square image",
			img:       solid(300, 300, color.White),
			wantCount: 1,
			wantBox:   provider.BoundingBox{X: 75, Y: 75, Width: 150, Height: 150},
		},
		{
			name:      "landscape image",
			img:       solid(400, 200, color.White),
			wantCount: 1,
			wantBox:   provider.BoundingBox{X: 150, Y: 50, Width: 100, Height: 100},
		},
		{
			name:      "too small",
			img:       solid(32, 300, color.White),
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := p.DetectFaces(context.Background(), tt.img)

			require.NoError(t, err)
			require.NotNil(t, faces)
			require.Len(t, faces, tt.wantCount)

			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantBox, faces[0].BoundingBox)
				assert.Equal(t, 0.99, faces[0].Confidence)
				assert.Len(t, faces[0].Landmarks, 5)
				for _, lm := range faces[0].Landmarks {
					assert.GreaterOrEqual(t, float64(lm.X), tt.wantBox.X)
					assert.LessOrEqual(t, float64(lm.X), tt.wantBox.X+tt.wantBox.Width)
				}
			}
		})
	}
}

func TestProvider_Classifiers_Deterministic(t *testing.T) {
	p := New()
	ctx := context.Background()
	face := solid(224, 224, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	age1, conf1, err := p.EstimateAge(ctx, face)
	require.NoError(t, err)
	age2, conf2, err := p.EstimateAge(ctx, face)
	require.NoError(t, err)

	assert.Equal(t, age1, age2)
	assert.Equal(t, conf1, conf2)
	assert.GreaterOrEqual(t, age1, 18)
	assert.LessOrEqual(t, age1, 65)

	emotion, econf, err := p.ClassifyEmotion(ctx, face)
	require.NoError(t, err)
	assert.Contains(t, provider.Emotions, emotion)
	assert.GreaterOrEqual(t, econf, 0.6)
	assert.LessOrEqual(t, econf, 0.95)

	category, _, err := p.ClassifyCategory(ctx, face)
	require.NoError(t, err)
	assert.Contains(t, provider.Categories, category)
}
