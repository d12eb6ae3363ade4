package controller

import (
	"io"

	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Upload(ctx *fiber.Ctx) error
}

type uploadController struct {
	uploadService service.IUploadService
}

func NewUploadController(uploadService service.IUploadService) IUploadController {
	return &uploadController{
		uploadService: uploadService,
	}
}

func (c *uploadController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/upload")
	h.Use(jwtMiddleware)
	h.Post("", c.Upload)
}

func (c *uploadController) Upload(ctx *fiber.Ctx) error {
	userId := callerUserId(ctx)

	form, err := ctx.MultipartForm()
	if err != nil {
		return serverutils.NewBadRequest("Expected multipart form data")
	}

	sessionId := ctx.FormValue("sessionId")
	if sessionId == "" {
		return serverutils.NewBadRequest("Missing sessionId field")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}

	files := make([]service.UploadFileInput, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return serverutils.NewBadRequest("Failed to read uploaded file " + header.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return serverutils.NewBadRequest("Failed to read uploaded file " + header.Filename)
		}

		files = append(files, service.UploadFileInput{
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	res, err := c.uploadService.Upload(ctx.Context(), userId, sessionId, files)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload files", res))
}
