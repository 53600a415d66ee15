package handlers

import (
	"errors"
	"strconv"

	"resto/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrInvalidOrder):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrAuth):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// NewErrorHandler renders every error returned by a handler or middleware as {"error": "..."}.
func NewErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)
		entry := log.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"status": code,
		})
		if rid, ok := c.Locals("requestid").(string); ok {
			entry = entry.WithField("request_id", rid)
		}

		message := err.Error()
		if code >= fiber.StatusInternalServerError {
			entry.WithError(err).Error("Request failed")
			if !errors.As(err, new(*fiber.Error)) {
				message = "internal server error"
			}
		} else {
			entry.WithError(err).Debug("Request rejected")
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

// paramID parses the :id route parameter. Anything but a positive integer matches no record.
func paramID(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "resource "+strconv.Quote(raw)+" not found")
	}
	return uint(id), nil
}

func badBody(err error) error {
	return apperrors.Validation("invalid request body: %v", err)
}
