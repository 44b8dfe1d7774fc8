package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// formatValidationError converts the first validator error into a client message.
// Field names are the JSON names registered by internal/validator.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		return fmt.Sprintf("invalid request: %s exceeds maximum length of %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("invalid request: %s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("invalid request: %s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("invalid request: %s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("invalid request: %s must be one of [%s]", field, fe.Param())
	case "couponcode":
		return "invalid request: " + field + " may only contain letters, digits, '-' and '_'"
	case "uuid":
		return "invalid request: " + field + " must be a UUID"
	default:
		return "invalid request: " + field + " is invalid"
	}
}

// badRequest writes a 400 with the given message.
func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// internalError writes a 500 without leaking err to the client.
func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// logFailure starts an error event carrying the request context.
func logFailure(c *fiber.Ctx, err error) *zerolog.Event {
	return log.Error().
		Err(err).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path())
}
