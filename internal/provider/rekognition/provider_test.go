package rekognition

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{R: 190, G: 150, B: 130, A: 255})
}

func newTestProvider(fn func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error), opts ...ProviderOption) (*Provider, *mockRekognitionAPI) {
	mock := &mockRekognitionAPI{detectFacesFunc: fn}
	return NewProviderWithClient(NewClientWithAPI(mock, DefaultConfig()), opts...), mock
}

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, "us-east-1", DefaultConfig().Region)
}

func TestDetectFaces_Success(t *testing.T) {
	recorder := &recordingAudit{}
	p, _ := newTestProvider(func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
		assert.Equal(t, []types.Attribute{types.AttributeAll}, params.Attributes)
		assert.NotEmpty(t, params.Image.Bytes)

		return &rekognition.DetectFacesOutput{
			FaceDetails: []types.FaceDetail{
				{
					BoundingBox: &types.BoundingBox{
						Left:   ptr(float32(0.1)),
						Top:    ptr(float32(0.2)),
						Width:  ptr(float32(0.3)),
						Height: ptr(float32(0.4)),
					},
					Confidence: ptr(float32(99.5)),
					Landmarks: []types.Landmark{
						{Type: types.LandmarkTypeEyeLeft, X: ptr(float32(0.25)), Y: ptr(float32(0.3))},
						{Type: types.LandmarkTypeNose, X: ptr(float32(0.5)), Y: ptr(float32(0.5))},
						{Type: types.LandmarkTypeMouthLeft, X: nil, Y: ptr(float32(0.7))},
					},
				},
			},
		}, nil
	}, WithAuditLogger(recorder))

	faces, err := p.DetectFaces(context.Background(), testImage(200, 100))

	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.InDelta(t, 20, faces[0].BoundingBox.X, 0.01)
	assert.InDelta(t, 20, faces[0].BoundingBox.Y, 0.01)
	assert.InDelta(t, 60, faces[0].BoundingBox.Width, 0.01)
	assert.InDelta(t, 40, faces[0].BoundingBox.Height, 0.01)
	assert.InDelta(t, 0.995, faces[0].Confidence, 0.0001)
	assert.Equal(t, []domain.Point{{X: 50, Y: 30}, {X: 100, Y: 50}}, faces[0].Landmarks)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, audit.EventFaceDetected, recorder.events[0].EventType)
	assert.True(t, recorder.events[0].Success)
	assert.Equal(t, "1", recorder.events[0].Metadata["faces_count"])
}

func TestDetectFaces_NoFaces(t *testing.T) {
	p, _ := newTestProvider(func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
		return &rekognition.DetectFacesOutput{FaceDetails: []types.FaceDetail{}}, nil
	})

	faces, err := p.DetectFaces(context.Background(), testImage(64, 64))

	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestDetectFaces_Error(t *testing.T) {
	recorder := &recordingAudit{}
	p, _ := newTestProvider(func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
		return nil, assert.AnError
	}, WithAuditLogger(recorder))

	faces, err := p.DetectFaces(context.Background(), testImage(64, 64))

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, faces)
	require.Len(t, recorder.events, 1)
	assert.False(t, recorder.events[0].Success)
}

func TestDetectFaces_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
		want    error
	}{
		{"access denied", errCodeAccessDenied, "denied", ErrInvalidCredentials},
		{"bad format", errCodeInvalidImageFormat, "unsupported", ErrInvalidImage},
		{"too large", errCodeImageTooLarge, "too big", ErrInvalidImage},
		{"invalid parameter", errCodeInvalidParameter, "no face", ErrNoFaceDetected},
		{"throttled", errCodeThrottling, "slow down", ErrThrottled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
				return nil, &smithy.GenericAPIError{Code: tt.code, Message: tt.message}
			})

			_, err := p.DetectFaces(context.Background(), testImage(64, 64))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDetectFaces_MultipleFaces(t *testing.T) {
	face := func(left float32) types.FaceDetail {
		return types.FaceDetail{
			BoundingBox: &types.BoundingBox{
				Left: ptr(left), Top: ptr(float32(0.1)),
				Width: ptr(float32(0.2)), Height: ptr(float32(0.2)),
			},
			Confidence: ptr(float32(95.0)),
		}
	}
	p, _ := newTestProvider(func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
		return &rekognition.DetectFacesOutput{
			FaceDetails: []types.FaceDetail{face(0.1), face(0.5), {Confidence: ptr(float32(90))}},
		}, nil
	})

	faces, err := p.DetectFaces(context.Background(), testImage(100, 100))

	require.NoError(t, err)
	assert.Len(t, faces, 2, "details without a bounding box are skipped")
}

func TestEstimateAge(t *testing.T) {
	tests := []struct {
		name     string
		details  []types.FaceDetail
		wantAge  int
		wantConf float64
		wantErr  error
	}{
		{
			name: "age range midpoint",
			details: []types.FaceDetail{{
				BoundingBox: &types.BoundingBox{Width: ptr(float32(0.8)), Height: ptr(float32(0.8))},
				AgeRange:    &types.AgeRange{Low: ptr(int32(24)), High: ptr(int32(31))},
				Confidence:  ptr(float32(98)),
			}},
			wantAge:  28,
			wantConf: 0.98,
		},
		{
			name: "largest face wins",
			details: []types.FaceDetail{
				{
					BoundingBox: &types.BoundingBox{Width: ptr(float32(0.1)), Height: ptr(float32(0.1))},
					AgeRange:    &types.AgeRange{Low: ptr(int32(5)), High: ptr(int32(9))},
					Confidence:  ptr(float32(80)),
				},
				{
					BoundingBox: &types.BoundingBox{Width: ptr(float32(0.7)), Height: ptr(float32(0.9))},
					AgeRange:    &types.AgeRange{Low: ptr(int32(40)), High: ptr(int32(50))},
					Confidence:  ptr(float32(99)),
				},
			},
			wantAge:  45,
			wantConf: 0.99,
		},
		{
			name:    "no face in crop",
			details: nil,
			wantErr: ErrNoFaceDetected,
		},
		{
			name: "missing age range",
			details: []types.FaceDetail{{
				BoundingBox: &types.BoundingBox{Width: ptr(float32(0.8)), Height: ptr(float32(0.8))},
			}},
			wantErr: ErrNoFaceDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
				return &rekognition.DetectFacesOutput{FaceDetails: tt.details}, nil
			})

			age, conf, err := p.EstimateAge(context.Background(), testImage(224, 224))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAge, age)
			assert.InDelta(t, tt.wantConf, conf, 0.0001)
		})
	}
}

func TestClassifyEmotion(t *testing.T) {
	p, mock := newTestProvider(func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
		return &rekognition.DetectFacesOutput{
			FaceDetails: []types.FaceDetail{{
				BoundingBox: &types.BoundingBox{Width: ptr(float32(0.8)), Height: ptr(float32(0.8))},
				Emotions: []types.Emotion{
					{Type: types.EmotionNameCalm, Confidence: ptr(float32(12))},
					{Type: types.EmotionNameHappy, Confidence: ptr(float32(81))},
					{Type: types.EmotionNameUnknown, Confidence: ptr(float32(99))},
					{Type: types.EmotionNameSad, Confidence: ptr(float32(7))},
				},
			}},
		}, nil
	})

	label, conf, err := p.ClassifyEmotion(context.Background(), testImage(224, 224))

	require.NoError(t, err)
	assert.Equal(t, "Happy", label)
	assert.InDelta(t, 0.81, conf, 0.0001)
	assert.Equal(t, 1, mock.calls)
}

func TestClassifyEmotion_NoEmotions(t *testing.T) {
	p, _ := newTestProvider(func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
		return &rekognition.DetectFacesOutput{
			FaceDetails: []types.FaceDetail{{BoundingBox: &types.BoundingBox{}}},
		}, nil
	})

	_, _, err := p.ClassifyEmotion(context.Background(), testImage(224, 224))
	assert.ErrorIs(t, err, ErrNoFaceDetected)
}

func TestValidateImage(t *testing.T) {
	assert.ErrorIs(t, validateImage(nil), ErrInvalidImage)
	assert.ErrorIs(t, validateImage(make([]byte, 50)), ErrInvalidImage)
	assert.ErrorIs(t, validateImage(make([]byte, maxImageSize+1)), ErrInvalidImage)
	assert.NoError(t, validateImage(make([]byte, 1024)))
}

func TestParseError_Passthrough(t *testing.T) {
	plain := errors.New("connection reset")
	assert.ErrorIs(t, parseError(plain), plain)
}
