package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates the image was rejected before or by Rekognition
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrNoFaceDetected indicates that no face was found in the provided image
	ErrNoFaceDetected = errors.New("no face detected in image")

	// ErrThrottled indicates the account exceeded its Rekognition throughput
	ErrThrottled = errors.New("rekognition request throttled")
)
