package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

type StatusService interface {
	Create(ctx context.Context, clientName string) (*domain.StatusCheck, error)
	List(ctx context.Context) ([]domain.StatusCheck, error)
}

type StatusCheckRequest struct {
	ClientName string `json:"client_name"`
}

type StatusHandler struct {
	service StatusService
}

func NewStatusHandler(service StatusService) *StatusHandler {
	return &StatusHandler{service: service}
}

// Create POST /api/status
func (h *StatusHandler) Create(c *fiber.Ctx) error {
	var req StatusCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	check, err := h.service.Create(c.UserContext(), req.ClientName)
	if err != nil {
		return err
	}
	return c.JSON(check)
}

// List GET /api/status
func (h *StatusHandler) List(c *fiber.Ctx) error {
	checks, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	if checks == nil {
		checks = []domain.StatusCheck{}
	}
	return c.JSON(checks)
}
