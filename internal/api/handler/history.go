package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/service"
)

// HistoryService is implemented by *service.HistoryService.
type HistoryService interface {
	List(ctx context.Context, sessionID string, limit int) ([]domain.AnalysisHistory, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisHistory, error)
	Summary(ctx context.Context, sessionID string) (*domain.AnalyticsSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context, sessionID string) (*service.ClearResult, error)
}

type HistoryHandler struct {
	service HistoryService
	logger  *slog.Logger
}

func NewHistoryHandler(service HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger,
	}
}

// List GET /api/analysis-history?session_id=&limit=
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	history, err := h.service.List(c.UserContext(), sessionQuery(c), c.QueryInt("limit", service.DefaultHistoryLimit))
	if err != nil {
		return err
	}
	if history == nil {
		history = []domain.AnalysisHistory{}
	}
	return c.JSON(history)
}

// Get GET /api/analysis-history/:id
func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrHistoryNotFound
	}

	entry, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

// Delete DELETE /api/analysis-history/:id
func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrHistoryNotFound
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Clear DELETE /api/analysis-history?session_id=
func (h *HistoryHandler) Clear(c *fiber.Ctx) error {
	result, err := h.service.Clear(c.UserContext(), sessionQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Summary GET /api/analytics/summary?session_id=
func (h *HistoryHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext(), sessionQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func sessionQuery(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Query("session_id"))
}
