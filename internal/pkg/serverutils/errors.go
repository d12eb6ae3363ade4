package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AppError is the expected-failure type services return. Anything else that
// reaches the error handler becomes a 500 with the error text in details.
type AppError struct {
	Code    int
	Message string
	// Data rides along for responses that carry a body even on error,
	// e.g. 409 returning the already-existing session.
	Data interface{}
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequest(message string) *AppError {
	return &AppError{Code: fiber.StatusBadRequest, Message: message}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: fiber.StatusUnauthorized, Message: message}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: fiber.StatusForbidden, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: fiber.StatusNotFound, Message: message}
}

func NewConflict(message string, data interface{}) *AppError {
	return &AppError{Code: fiber.StatusConflict, Message: message, Data: data}
}

func NewUpstreamError(message string) *AppError {
	return &AppError{Code: fiber.StatusInternalServerError, Message: message}
}

// ErrorHandlerMiddleware converts returned errors into the JSON error shape.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *AppError
		if errors.As(err, &appErr) {
			if appErr.Data != nil {
				return ctx.Status(appErr.Code).JSON(fiber.Map{
					"success": false,
					"code":    appErr.Code,
					"message": appErr.Message,
					"data":    appErr.Data,
				})
			}
			return ctx.Status(appErr.Code).JSON(ErrorResponse(appErr.Code, appErr.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(
			ErrorResponseWithDetails(fiber.StatusInternalServerError, "Internal server error", err.Error()),
		)
	}
}
