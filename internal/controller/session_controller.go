package controller

import (
	"bytes"
	"encoding/json"

	"deckster-be/internal/dto"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Patch(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Activate(ctx *fiber.Ctx) error
	SyncMessages(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
	messageService service.IMessageService
	exportService  service.IExportService
}

func NewSessionController(
	sessionService service.ISessionService,
	messageService service.IMessageService,
	exportService service.IExportService,
) ISessionController {
	return &sessionController{
		sessionService: sessionService,
		messageService: messageService,
		exportService:  exportService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/sessions")
	h.Use(jwtMiddleware)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get(":id", c.Get)
	h.Patch(":id", c.Patch)
	h.Delete(":id", c.Delete)
	h.Post(":id/activate", c.Activate)
	h.Post(":id/messages", c.SyncMessages)
	h.Get(":id/messages", c.ListMessages)
	h.Get(":id/export", c.Export)
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	req := dto.ListSessionsRequest{
		Status: ctx.Query("status"),
		Limit:  ctx.QueryInt("limit", 50),
		Offset: ctx.QueryInt("offset", 0),
	}

	res, err := c.sessionService.List(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)
	email, _ := ctx.Locals("email").(string)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sessionService.Create(ctx.Context(), userId, email, "", &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) Get(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	res, err := c.sessionService.Get(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) Patch(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	// Unknown fields are rejected rather than silently merged.
	var req dto.PatchSessionRequest
	decoder := json.NewDecoder(bytes.NewReader(ctx.Body()))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return serverutils.NewBadRequest("Invalid or unknown field in request body: " + err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sessionService.Patch(ctx.Context(), userId, ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update session", res))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	if err := c.sessionService.Delete(ctx.Context(), userId, ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *sessionController) Activate(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	res, err := c.sessionService.Activate(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success activate session", res))
}

func (c *sessionController) SyncMessages(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	var req dto.SyncMessagesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.messageService.Sync(ctx.Context(), userId, ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success sync messages", res))
}

func (c *sessionController) ListMessages(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	req := dto.ListMessagesRequest{
		Limit:       ctx.QueryInt("limit", 500),
		Offset:      ctx.QueryInt("offset", 0),
		MessageType: ctx.Query("messageType"),
	}

	res, err := c.messageService.List(ctx.Context(), userId, ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *sessionController) Export(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	artifact, err := c.exportService.Export(ctx.Context(), userId,
		ctx.Params("id"), ctx.Query("format", "pdf"), ctx.Query("version"))
	if err != nil {
		return err
	}
	defer artifact.Body.Close()

	if artifact.ContentType != "" {
		ctx.Set(fiber.HeaderContentType, artifact.ContentType)
	}
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+artifact.FileName+`"`)
	return ctx.SendStream(artifact.Body)
}

// callerUserId reads the authenticated user id set by the JWT middleware.
func callerUserId(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}
