package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so wrapped copies still compare equal to
// the predefined values.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrNotAnImage = &AppError{
		Code:       "NOT_AN_IMAGE",
		Message:    "File must be an image",
		StatusCode: 400,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrImageTooLarge = &AppError{
		Code:       "IMAGE_TOO_LARGE",
		Message:    "Image exceeds the maximum upload size",
		StatusCode: 422,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrAnalysisFailed = &AppError{
		Code:       "ANALYSIS_FAILED",
		Message:    "Analysis failed",
		StatusCode: 500,
	}

	ErrHistoryFailed = &AppError{
		Code:       "HISTORY_FAILED",
		Message:    "Failed to access analysis history",
		StatusCode: 500,
	}

	ErrSummaryFailed = &AppError{
		Code:       "SUMMARY_FAILED",
		Message:    "Failed to generate analytics",
		StatusCode: 500,
	}

	ErrHistoryNotFound = &AppError{
		Code:       "HISTORY_NOT_FOUND",
		Message:    "Analysis history entry not found",
		StatusCode: 404,
	}

	ErrStatusFailed = &AppError{
		Code:       "STATUS_FAILED",
		Message:    "Failed to access status checks",
		StatusCode: 500,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)
