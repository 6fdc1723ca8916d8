package controller

import (
	"gitmesh-session-be/internal/dto"
	"gitmesh-session-be/internal/pkg/serverutils"
	"gitmesh-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatCacheController interface {
	RegisterRoutes(r fiber.Router)
	Heartbeat(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
	NavigationCleanup(ctx *fiber.Ctx) error
	ClearCache(ctx *fiber.Ctx) error
	CacheStats(ctx *fiber.Ctx) error
	CacheHealth(ctx *fiber.Ctx) error
	OptimizeCache(ctx *fiber.Ctx) error
}

type chatCacheController struct {
	service service.ISessionCacheService
}

func NewChatCacheController(service service.ISessionCacheService) IChatCacheController {
	return &chatCacheController{service: service}
}

func (c *chatCacheController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1/chat")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/sessions/:session_id/heartbeat", c.Heartbeat)
	h.Post("/sessions/cleanup", c.Cleanup)
	h.Post("/navigation-cleanup", c.NavigationCleanup)
	h.Post("/clear-cache", c.ClearCache)
	h.Get("/cache-stats", c.CacheStats)
	h.Get("/cache-health", c.CacheHealth)
	h.Post("/optimize-cache", c.OptimizeCache)
}

func (c *chatCacheController) Heartbeat(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, "session_id is required")
	}
	// Identity comes from the token when auth is on, from the query otherwise.
	userID := ctx.Query("user_id")
	if v, ok := ctx.Locals("user_id").(string); ok && v != "" {
		userID = v
	}

	session, err := c.service.Heartbeat(ctx.Context(), sessionID, userID)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.HeartbeatResponse{Success: true, Session: session})
}

func (c *chatCacheController) Cleanup(ctx *fiber.Ctx) error {
	var req dto.CleanupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	result, err := c.service.Cleanup(ctx.Context(), req.UserID, req.Type, req.SessionIDs)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.CleanupResponse{Success: true, CleanupResult: *result})
}

func (c *chatCacheController) NavigationCleanup(ctx *fiber.Ctx) error {
	var req dto.NavigationCleanupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	result, err := c.service.NavigationCleanup(ctx.Context(), req.FromPage, req.ToPage, req.UserID)
	if err != nil {
		return err
	}

	return ctx.JSON(result)
}

func (c *chatCacheController) ClearCache(ctx *fiber.Ctx) error {
	var req dto.ClearCacheRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	success, err := c.service.ClearCache(ctx.Context(), req.UserID)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.ClearCacheResponse{Success: success})
}

func (c *chatCacheController) CacheStats(ctx *fiber.Ctx) error {
	userID := ctx.Query("user_id")
	if userID == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, "user_id is required")
	}

	stats, err := c.service.Stats(ctx.Context(), userID)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.CacheStatsResponse{Success: true, CacheStats: *stats})
}

func (c *chatCacheController) CacheHealth(ctx *fiber.Ctx) error {
	health, err := c.service.Health(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(dto.CacheHealthResponse{Success: true, HealthStatus: *health})
}

func (c *chatCacheController) OptimizeCache(ctx *fiber.Ctx) error {
	var req dto.OptimizeCacheRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	result, err := c.service.Optimize(ctx.Context(), req.UserID)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.OptimizeCacheResponse{Success: true, OptimizationResults: *result})
}
