package media

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

const (
	DefaultPadding  = 0.2
	DefaultCropSize = 224
)

var ErrEmptyCrop = errors.New("media: crop region is empty")

// Cropper cuts a padded face region out of an image and scales it to the
// square input size the classifiers expect.
type Cropper struct {
	Padding float64
	Size    int
}

func NewCropper() *Cropper {
	return &Cropper{
		Padding: DefaultPadding,
		Size:    DefaultCropSize,
	}
}

// Region returns the padded box for bbox, clamped to an image of the given size.
func (c *Cropper) Region(bbox domain.BoundingBox, width, height int) domain.BoundingBox {
	padX := int(float64(bbox.Width) * c.Padding)
	padY := int(float64(bbox.Height) * c.Padding)

	padded := domain.BoundingBox{
		X:      bbox.X - padX,
		Y:      bbox.Y - padY,
		Width:  bbox.Width + 2*padX,
		Height: bbox.Height + 2*padY,
	}
	return padded.Clamp(width, height)
}

func (c *Cropper) Crop(img image.Image, bbox domain.BoundingBox) (image.Image, error) {
	bounds := img.Bounds()
	region := c.Region(bbox, bounds.Dx(), bounds.Dy())
	if region.Empty() {
		return nil, ErrEmptyCrop
	}

	rect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height).Add(bounds.Min)
	face := imaging.Crop(img, rect)

	return imaging.Resize(face, c.Size, c.Size, imaging.Lanczos), nil
}
