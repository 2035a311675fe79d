package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/service"
)

// AnalysisService is implemented by *service.AnalysisService.
type AnalysisService interface {
	AnalyzeBase64(ctx context.Context, data, sessionID string) (*domain.AnalysisResponse, error)
	AnalyzeUpload(ctx context.Context, upload service.Upload, sessionID string) (*domain.AnalysisResponse, error)
}

// AnalyzeImageRequest is the JSON body of POST /api/analyze-image.
type AnalyzeImageRequest struct {
	ImageData string `json:"image_data"`
	SessionID string `json:"session_id"`
}

type AnalysisHandler struct {
	service AnalysisService
	logger  *slog.Logger
}

func NewAnalysisHandler(service AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger,
	}
}

// AnalyzeImage POST /api/analyze-image
func (h *AnalysisHandler) AnalyzeImage(c *fiber.Ctx) error {
	var req AnalyzeImageRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}
	if req.ImageData == "" {
		return domain.ErrValidationFailed.WithError(errors.New("image_data is required"))
	}

	resp, err := h.service.AnalyzeBase64(c.UserContext(), req.ImageData, strings.TrimSpace(req.SessionID))
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

// AnalyzeUpload POST /api/analyze-upload - multipart "file" plus optional "session_id"
func (h *AnalysisHandler) AnalyzeUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	data, err := readFormFile(file)
	if err != nil {
		return domain.ErrInvalidImage.WithError(err)
	}

	upload := service.Upload{
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}

	resp, err := h.service.AnalyzeUpload(c.UserContext(), upload, strings.TrimSpace(c.FormValue("session_id")))
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return io.ReadAll(f)
}
