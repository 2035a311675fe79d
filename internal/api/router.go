package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/config"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/face"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/service"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/ws"
)

// Dependencies are built once in main and shared by every request.
type Dependencies struct {
	Config      *config.Config
	Analyzer    *face.Analyzer
	HistoryRepo service.HistoryRepositoryInterface
	StatusRepo  service.StatusRepositoryInterface
	// SummaryCache is optional; nil disables summary caching.
	SummaryCache service.SummaryCache
	// Hub is optional; nil disables /api/ws and live events.
	Hub *ws.Hub
	// DB is pinged by /api/health; nil means in-memory storage.
	DB          handler.Pinger
	AuditLogger audit.Logger
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Smart Face Analytics API",
		BodyLimit:    bodyLimit(deps.Config),
		ReadTimeout:  60 * time.Second,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

// bodyLimit leaves room above the upload limit for multipart framing and
// base64 overhead, so oversized images reach the service and get a 422.
func bodyLimit(cfg *config.Config) int {
	limit := service.DefaultMaxUploadBytes
	if cfg != nil && cfg.MaxUploadBytes > 0 {
		limit = cfg.MaxUploadBytes
	}
	return 2*limit + 1<<20
}

func (r *Router) Setup() {
	cfg := r.deps.Config

	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	auditLogger := r.deps.AuditLogger
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}

	analysisOpts := []service.AnalysisOption{
		service.WithAuditLogger(auditLogger),
		service.WithMaxUploadBytes(cfg.MaxUploadBytes),
	}
	historyOpts := []service.HistoryOption{
		service.WithHistoryAuditLogger(auditLogger),
	}
	if r.deps.SummaryCache != nil {
		analysisOpts = append(analysisOpts, service.WithSummaryCache(r.deps.SummaryCache))
		historyOpts = append(historyOpts, service.WithHistoryCache(r.deps.SummaryCache))
	}
	if r.deps.Hub != nil {
		analysisOpts = append(analysisOpts, service.WithBroadcaster(r.deps.Hub))
		historyOpts = append(historyOpts, service.WithHistoryBroadcaster(r.deps.Hub))
	}

	analysisService := service.NewAnalysisService(r.deps.Analyzer, r.deps.HistoryRepo, r.logger, analysisOpts...)
	historyService := service.NewHistoryService(r.deps.HistoryRepo, r.logger, historyOpts...)
	statusService := service.NewStatusService(r.deps.StatusRepo)

	analysisHandler := handler.NewAnalysisHandler(analysisService, r.logger)
	historyHandler := handler.NewHistoryHandler(historyService, r.logger)
	statusHandler := handler.NewStatusHandler(statusService)
	healthHandler := handler.NewHealthHandler(r.deps.Analyzer, r.deps.DB)

	apiGroup := r.app.Group("/api")

	apiGroup.Get("/", healthHandler.Root)
	apiGroup.Get("/health", healthHandler.Health)
	apiGroup.Get("/models/info", healthHandler.ModelsInfo)

	apiGroup.Post("/status", statusHandler.Create)
	apiGroup.Get("/status", statusHandler.List)

	// Analysis routes, optionally rate limited per client IP
	limited := func(h fiber.Handler) []fiber.Handler {
		if r.rateLimiter == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{r.rateLimiter.Handler(), h}
	}
	if cfg.RateLimitPerMinute > 0 {
		r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Max:    cfg.RateLimitPerMinute,
			Window: time.Minute,
		})
	}
	apiGroup.Post("/analyze-image", limited(analysisHandler.AnalyzeImage)...)
	apiGroup.Post("/analyze-upload", limited(analysisHandler.AnalyzeUpload)...)

	// History routes
	apiGroup.Get("/analysis-history", historyHandler.List)
	apiGroup.Delete("/analysis-history", historyHandler.Clear)
	apiGroup.Get("/analysis-history/:id", historyHandler.Get)
	apiGroup.Delete("/analysis-history/:id", historyHandler.Delete)
	apiGroup.Get("/analytics/summary", historyHandler.Summary)

	// WebSocket endpoint
	if r.deps.Hub != nil {
		apiGroup.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
