package media

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

// ReadExif extracts camera metadata from an upload. Images without EXIF
// (PNG, stripped JPEGs) return nil.
func ReadExif(data []byte) *domain.ExifInfo {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	info := &domain.ExifInfo{
		CameraMake:  exifString(x, exif.Make),
		CameraModel: exifString(x, exif.Model),
		Orientation: exifInt(x, exif.Orientation),
	}

	if taken, err := x.DateTime(); err == nil {
		t := taken.UTC()
		info.TakenAt = &t
	}

	if *info == (domain.ExifInfo{}) {
		return nil
	}
	return info
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag == nil {
		return ""
	}
	val, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(val, "\x00"))
}

func exifInt(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil || tag == nil {
		return 0
	}
	val, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return val
}
