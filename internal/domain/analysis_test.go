package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox_Clamp(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		w, h int
		want BoundingBox
	}{
		{
			name: "inside image is unchanged",
			box:  BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
			w:    100, h: 100,
			want: BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
		},
		{
			name: "negative origin is cut",
			box:  BoundingBox{X: -10, Y: -5, Width: 30, Height: 20},
			w:    100, h: 100,
			want: BoundingBox{X: 0, Y: 0, Width: 20, Height: 15},
		},
		{
			name: "overflow is cut at the edge",
			box:  BoundingBox{X: 80, Y: 90, Width: 50, Height: 50},
			w:    100, h: 100,
			want: BoundingBox{X: 80, Y: 90, Width: 20, Height: 10},
		},
		{
			name: "fully outside collapses",
			box:  BoundingBox{X: 200, Y: 200, Width: 10, Height: 10},
			w:    100, h: 100,
			want: BoundingBox{X: 100, Y: 100, Width: 0, Height: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.box.Clamp(tt.w, tt.h)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundingBox_Empty(t *testing.T) {
	assert.True(t, BoundingBox{Width: 0, Height: 5}.Empty())
	assert.True(t, BoundingBox{Width: 5, Height: -1}.Empty())
	assert.False(t, BoundingBox{Width: 1, Height: 1}.Empty())
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.3))
	assert.Equal(t, 1.0, ClampConfidence(97))
	assert.Equal(t, 0.42, ClampConfidence(0.42))
	assert.Equal(t, 0.0, ClampConfidence(math.NaN()))
}
