package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/repository"
	"github.com/example/grocer/internal/services"
	"github.com/example/grocer/internal/utils"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{services.ErrCartNotFound, fiber.StatusNotFound},
	{services.ErrCartItemNotFound, fiber.StatusNotFound},
	{services.ErrProductNotFound, fiber.StatusNotFound},
	{services.ErrInvalidOffer, fiber.StatusNotFound},
	{services.ErrCartEmpty, fiber.StatusBadRequest},
	{services.ErrInvalidQuantity, fiber.StatusBadRequest},
	{services.ErrVariantNotFound, fiber.StatusBadRequest},
	{services.ErrOfferUsageLimitReached, fiber.StatusBadRequest},
	{services.ErrCartConflict, fiber.StatusConflict},
}

// ErrorHandler renders every error returned by a handler as the standard
// failure envelope. Unexpected errors are logged and reported as 500.
func ErrorHandler(lg *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := translate(err)
		if status >= fiber.StatusInternalServerError {
			lg.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(body)
	}
}

func translate(err error) (int, fiber.Map) {
	var (
		fiberErr *fiber.Error
		validErr *utils.ValidationError
		lineErr  *services.InvalidLineError
	)

	switch {
	case errors.As(err, &fiberErr):
		if fiberErr.Code >= fiber.StatusInternalServerError {
			return fiberErr.Code, failure("internal server error")
		}
		return fiberErr.Code, failure(fiberErr.Message)
	case errors.As(err, &validErr):
		body := failure("validation failed")
		body["errors"] = validErr.Fields
		return fiber.StatusBadRequest, body
	case errors.As(err, &lineErr):
		return fiber.StatusBadRequest, failure(lineErr.Error())
	}

	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status, failure(s.err.Error())
		}
	}

	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, failure("resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.StatusConflict, failure("resource already exists")
	}
	return fiber.StatusInternalServerError, failure("internal server error")
}

func failure(message string) fiber.Map {
	return fiber.Map{"success": false, "message": message}
}
