package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/provider"
)

// MinImageSide é o menor lado aceito para simular uma face
const MinImageSide = 64

// Provider implementa detector e classificadores determinísticos para testes e desenvolvimento
type Provider struct{}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

var (
	_ provider.FaceDetector       = (*Provider)(nil)
	_ provider.AgeEstimator       = (*Provider)(nil)
	_ provider.EmotionClassifier  = (*Provider)(nil)
	_ provider.CategoryClassifier = (*Provider)(nil)
)

// DetectFaces simula uma face centralizada ocupando metade do menor lado
func (p *Provider) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < MinImageSide || h < MinImageSide {
		return []provider.DetectedFace{}, nil
	}

	side := min(w, h) / 2
	x := (w - side) / 2
	y := (h - side) / 2

	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{
				X:      float64(x),
				Y:      float64(y),
				Width:  float64(side),
				Height: float64(side),
			},
			Confidence: 0.99,
			Landmarks:  faceLandmarks(x, y, side),
		},
	}, nil
}

// faceLandmarks places eyes, nose and mouth corners at typical proportions
func faceLandmarks(x, y, side int) []domain.Point {
	at := func(fx, fy float64) domain.Point {
		return domain.Point{X: x + int(fx*float64(side)), Y: y + int(fy*float64(side))}
	}
	return []domain.Point{
		at(0.30, 0.38), // left eye
		at(0.70, 0.38), // right eye
		at(0.50, 0.55), // nose
		at(0.35, 0.75), // mouth left
		at(0.65, 0.75), // mouth right
	}
}

// EstimateAge deriva uma idade entre 18 e 65 do conteúdo da imagem
func (p *Provider) EstimateAge(ctx context.Context, face image.Image) (int, float64, error) {
	sum := fingerprint(face)
	return 18 + int(sum[0])%48, confidence(sum[1]), nil
}

// ClassifyEmotion escolhe uma emoção canônica a partir do conteúdo da imagem
func (p *Provider) ClassifyEmotion(ctx context.Context, face image.Image) (string, float64, error) {
	sum := fingerprint(face)
	return provider.Emotions[int(sum[2])%len(provider.Emotions)], confidence(sum[3]), nil
}

// ClassifyCategory escolhe uma categoria a partir do conteúdo da imagem
func (p *Provider) ClassifyCategory(ctx context.Context, face image.Image) (string, float64, error) {
	sum := fingerprint(face)
	return provider.Categories[int(sum[4])%len(provider.Categories)], confidence(sum[5]), nil
}

// confidence maps a byte into [0.6, 0.95]
func confidence(b byte) float64 {
	return 0.6 + float64(b)/255*0.35
}

// fingerprint hashes the pixels so identical crops get identical labels
func fingerprint(img image.Image) [sha256.Size]byte {
	bounds := img.Bounds()
	hasher := sha256.New()
	buf := make([]byte, 8)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			binary.LittleEndian.PutUint16(buf[0:], uint16(r))
			binary.LittleEndian.PutUint16(buf[2:], uint16(g))
			binary.LittleEndian.PutUint16(buf[4:], uint16(b))
			binary.LittleEndian.PutUint16(buf[6:], uint16(a))
			hasher.Write(buf)
		}
	}

	var sum [sha256.Size]byte
	copy(sum[:], hasher.Sum(nil))
	return sum
}
