package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

const healthPingTimeout = 2 * time.Second

// ModelInspector reports pipeline slots; *face.Analyzer implements it.
type ModelInspector interface {
	Models() []domain.ModelStatus
	Ready() bool
	Device() string
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	models ModelInspector
	db     Pinger
}

// NewHealthHandler builds the introspection handler. A nil db means the
// process runs on in-memory stores, which are always reachable.
func NewHealthHandler(models ModelInspector, db Pinger) *HealthHandler {
	return &HealthHandler{
		models: models,
		db:     db,
	}
}

type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type HealthResponse struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	ModelsLoaded      bool      `json:"models_loaded"`
	DatabaseConnected bool      `json:"database_connected"`
}

// Root GET /api/
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(RootResponse{
		Message: "Smart Face Analytics API is running!",
		Status:  "healthy",
	})
}

// Health GET /api/health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:            "healthy",
		Timestamp:         time.Now().UTC(),
		ModelsLoaded:      h.models.Ready(),
		DatabaseConnected: h.databaseConnected(c.UserContext()),
	})
}

func (h *HealthHandler) databaseConnected(ctx context.Context) bool {
	if h.db == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.db.Ping(ctx) == nil
}

// ModelsInfo GET /api/models/info - one entry per slot plus device and an
// overall status: "loaded", "degraded" or "unavailable".
func (h *HealthHandler) ModelsInfo(c *fiber.Ctx) error {
	models := h.models.Models()

	info := fiber.Map{}
	loaded := 0
	for _, m := range models {
		info[m.Name] = m
		if m.Loaded {
			loaded++
		}
	}

	status := "degraded"
	switch loaded {
	case len(models):
		status = "loaded"
	case 0:
		status = "unavailable"
	}

	info["device"] = h.models.Device()
	info["status"] = status

	return c.JSON(info)
}
