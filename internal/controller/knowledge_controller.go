package controller

import (
	"io"

	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	EnsureStore(ctx *fiber.Ctx) error
	IndexFile(ctx *fiber.Ctx) error
	ListFiles(ctx *fiber.Ctx) error
	DeleteStore(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/sessions/:id/knowledge")
	h.Use(jwtMiddleware)
	h.Post("store", c.EnsureStore)
	h.Post("files", c.IndexFile)
	h.Get("files", c.ListFiles)
	h.Delete("store", c.DeleteStore)
}

func (c *knowledgeController) EnsureStore(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	storeName, err := c.knowledgeService.EnsureStore(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ensure store", fiber.Map{
		"storeName": storeName,
	}))
}

func (c *knowledgeController) IndexFile(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	header, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewBadRequest("Missing file")
	}

	f, err := header.Open()
	if err != nil {
		return serverutils.NewBadRequest("Failed to read uploaded file")
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return serverutils.NewBadRequest("Failed to read uploaded file")
	}

	res, err := c.knowledgeService.IndexFile(ctx.Context(), userId, ctx.Params("id"),
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success index file", res))
}

func (c *knowledgeController) ListFiles(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	files, err := c.knowledgeService.ListFiles(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list store files", files))
}

func (c *knowledgeController) DeleteStore(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	if err := c.knowledgeService.DeleteStore(ctx.Context(), userId, ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete store", nil))
}
