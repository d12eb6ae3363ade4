package controller

import (
	"deckster-be/internal/dto"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware, adminMiddleware, cronMiddleware fiber.Handler)
	ListUsers(ctx *fiber.Ctx) error
	ApproveUser(ctx *fiber.Ctx) error
	CleanupDryRun(ctx *fiber.Ctx) error
	CleanupPurge(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService   service.IAdminService
	cleanupService service.ICleanupService
}

func NewAdminController(
	adminService service.IAdminService,
	cleanupService service.ICleanupService,
) IAdminController {
	return &adminController{
		adminService:   adminService,
		cleanupService: cleanupService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router, jwtMiddleware, adminMiddleware, cronMiddleware fiber.Handler) {
	h := r.Group("/admin")
	h.Get("users", jwtMiddleware, adminMiddleware, c.ListUsers)
	h.Post("users/approve", jwtMiddleware, adminMiddleware, c.ApproveUser)

	// The dry run is an admin report; the purge is cron-invoked with the
	// shared secret.
	h.Get("cleanup-sessions", jwtMiddleware, adminMiddleware, c.CleanupDryRun)
	h.Post("cleanup-sessions", cronMiddleware, c.CleanupPurge)
}

func (c *adminController) ListUsers(ctx *fiber.Ctx) error {
	res, err := c.adminService.ListUsers(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list users", res))
}

func (c *adminController) ApproveUser(ctx *fiber.Ctx) error {
	adminEmail, _ := ctx.Locals("email").(string)

	var req dto.ApproveUserRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.ApproveUser(ctx.Context(), adminEmail, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success approve user", res))
}

func (c *adminController) CleanupDryRun(ctx *fiber.Ctx) error {
	res, err := c.cleanupService.DryRun(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Cleanup dry run", res))
}

func (c *adminController) CleanupPurge(ctx *fiber.Ctx) error {
	res, err := c.cleanupService.Purge(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Cleanup completed", res))
}
