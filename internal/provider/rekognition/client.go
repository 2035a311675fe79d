package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
)

const (
	errCodeAccessDenied       = "AccessDeniedException"
	errCodeInvalidParameter   = "InvalidParameterException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
	errCodeThroughput         = "ProvisionedThroughputExceededException"
	errCodeThrottling         = "ThrottlingException"
)

// API is the subset of the Rekognition client used here
type API interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Client wraps the AWS Rekognition client
type Client struct {
	rekognition API
	config      Config
}

// NewClient creates a new Rekognition client with the provided configuration
// It uses the AWS default credential chain to authenticate
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if awsCfg.Credentials == nil {
		return nil, ErrInvalidCredentials
	}
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	return &Client{
		rekognition: rekognition.NewFromConfig(awsCfg),
		config:      cfg,
	}, nil
}

// NewClientWithAPI builds a Client around an existing API implementation.
func NewClientWithAPI(api API, cfg Config) *Client {
	return &Client{rekognition: api, config: cfg}
}

// DetectFaces calls DetectFaces with every facial attribute enabled.
func (c *Client) DetectFaces(ctx context.Context, image []byte) ([]types.FaceDetail, error) {
	output, err := c.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: image,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		return nil, parseError(err)
	}

	return output.FaceDetails, nil
}

// parseError maps AWS error codes onto the package sentinels
func parseError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("detect faces: %w", err)
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return fmt.Errorf("detect faces: %w", ErrInvalidCredentials)
	case errCodeInvalidImageFormat, errCodeImageTooLarge:
		return fmt.Errorf("%w: %s", ErrInvalidImage, apiErr.ErrorMessage())
	case errCodeInvalidParameter:
		if msg := apiErr.ErrorMessage(); msg != "" {
			return fmt.Errorf("%w: %s", ErrNoFaceDetected, msg)
		}
		return ErrNoFaceDetected
	case errCodeThroughput, errCodeThrottling:
		return fmt.Errorf("detect faces: %w", ErrThrottled)
	}

	return fmt.Errorf("detect faces: %w", err)
}
