package utils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/nexfleet/devicehub/internal/apperr"
)

// SuccessResponse sends the standard success envelope {message, data?}
func SuccessResponse(c *fiber.Ctx, status int, message string, data interface{}) error {
	if data == nil {
		return c.Status(status).JSON(fiber.Map{"message": message})
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

// ErrorResponse maps a typed service error to its status code and sends
// the failure envelope {message}. Internal causes are logged server-side
// and never echoed to the caller.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"message": fiberErr.Message,
		})
	}

	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Internal(err)
	}

	if e.Kind == apperr.KindInternal {
		log.Printf("internal error on %s: %v", c.OriginalURL(), e)
	}

	return c.Status(e.HTTPStatus()).JSON(fiber.Map{
		"message": e.Message,
	})
}

// SuccessEnvelope defines the schema for success responses
type SuccessEnvelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorEnvelope defines the schema for error responses
type ErrorEnvelope struct {
	Message string `json:"message"`
}
