package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/invopop/jsonschema"
	"go.uber.org/zap"

	"github.com/godilite/activation-insights/internal/service"
	"github.com/godilite/activation-insights/pkg/cache"
)

const (
	defaultRequestTimeout = 20 * time.Second

	cacheKeyDashboard = "http:dashboard"
	cacheKeySurveys   = "http:survey_insights"

	// nginx convention for a client that went away before the response
	statusClientClosedRequest = 499

	// Shown to the browser whenever the upstream snapshot cannot be loaded.
	snapshotUnavailableMessage = "Erro ao carregar dados do dashboard. Por favor, tente novamente."
)

type Handlers struct {
	dashboard DashboardService
	cache     *cache.ReadThrough
	logger    *zap.Logger
	schemas   fiber.Map
}

// NewHandlers initializes the HTTP handlers.
func NewHandlers(dashboard DashboardService, rt *cache.ReadThrough, logger *zap.Logger) *Handlers {
	if dashboard == nil {
		panic("nil DashboardService provided to NewHandlers")
	}
	if rt == nil {
		panic("nil ReadThrough cache provided to NewHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		dashboard: dashboard,
		cache:     rt,
		logger:    logger.Named("http-handler"),
		schemas:   responseSchemas(),
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r fiber.Router) {
	r.Get("/health", h.Health)

	v1 := r.Group("/v1")
	v1.Get("/dashboard", h.GetDashboard)
	v1.Get("/surveys", h.GetSurveyInsights)
	v1.Post("/snapshot/refresh", h.RefreshSnapshot)
	v1.Get("/schema", h.GetSchema)
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (h *Handlers) GetDashboard(c *fiber.Ctx) error {
	f, err := service.ParseFilter(c.Query("activation_id"), c.Query("date"), h.dashboard.Location())
	if err != nil {
		return h.handleError(c, "GetDashboard", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), defaultRequestTimeout)
	defer cancel()

	snap, err := h.dashboard.EnsureSnapshot(ctx)
	if err != nil {
		return h.handleError(c, "GetDashboard", err)
	}

	key := fmt.Sprintf("%s:%s:%s", cacheKeyDashboard, snap.ID, f.CacheKey())
	d, err := cache.FindAndCache(ctx, h.cache, key, func(fetchCtx context.Context) (service.Dashboard, error) {
		return h.dashboard.GetDashboard(fetchCtx, f)
	})
	if err != nil {
		return h.handleError(c, "GetDashboard", err)
	}
	return c.JSON(d)
}

func (h *Handlers) GetSurveyInsights(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), defaultRequestTimeout)
	defer cancel()

	snap, err := h.dashboard.EnsureSnapshot(ctx)
	if err != nil {
		return h.handleError(c, "GetSurveyInsights", err)
	}

	key := fmt.Sprintf("%s:%s", cacheKeySurveys, snap.ID)
	in, err := cache.FindAndCache(ctx, h.cache, key, func(fetchCtx context.Context) (service.SurveyInsights, error) {
		return h.dashboard.GetSurveyInsights(fetchCtx)
	})
	if err != nil {
		return h.handleError(c, "GetSurveyInsights", err)
	}
	return c.JSON(in)
}

func (h *Handlers) RefreshSnapshot(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), defaultRequestTimeout)
	defer cancel()

	info, err := h.dashboard.Refresh(ctx)
	if err != nil {
		return h.handleError(c, "RefreshSnapshot", err)
	}
	h.logger.Info("snapshot refreshed", zap.String("snapshot_id", info.ID))
	return c.JSON(info)
}

// GetSchema describes the JSON documents served by /v1/dashboard and /v1/surveys.
func (h *Handlers) GetSchema(c *fiber.Ctx) error {
	return c.JSON(h.schemas)
}

func responseSchemas() fiber.Map {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return fiber.Map{
		"dashboard":      reflector.Reflect(&service.Dashboard{}),
		"surveyInsights": reflector.Reflect(&service.SurveyInsights{}),
	}
}

func (h *Handlers) handleError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		h.logger.Info("invalid filter", zap.String("op", op), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSnapshotUnavailable):
		h.logger.Error("snapshot unavailable", zap.String("op", op), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": snapshotUnavailableMessage})
	case errors.Is(err, context.Canceled):
		h.logger.Warn("request canceled", zap.String("op", op))
		return c.Status(statusClientClosedRequest).JSON(fiber.Map{"error": "request canceled"})
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("request timeout", zap.String("op", op))
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "request timed out"})
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
