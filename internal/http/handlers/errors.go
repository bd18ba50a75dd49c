package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "medicart/internal/log"
	"medicart/internal/services"
)

const genericError = "Something went wrong. Please try again."

var notFoundErrs = []error{
	services.ErrProductNotFound, services.ErrSaleNotFound, services.ErrRequestNotFound,
	services.ErrReportNotFound, services.ErrOrderNotFound, services.ErrUserNotFound,
	services.ErrNotificationNotFound, services.ErrFlagNotFound, services.ErrNoSalesData,
}

// classify maps service errors to a status and a message safe to show.
func classify(err error) (int, string) {
	var ve *services.ValidationError
	var short *services.InsufficientStockError
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, ve.Msg
	case errors.As(err, &short):
		return fiber.StatusConflict, short.Error()
	case errors.Is(err, services.ErrConcurrentUpdate):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, services.ErrEmptyCart):
		return fiber.StatusBadRequest, "Your cart is empty"
	case errors.Is(err, services.ErrBadCreds), errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized, err.Error()
	}
	for _, nf := range notFoundErrs {
		if errors.Is(err, nf) {
			return fiber.StatusNotFound, err.Error()
		}
	}
	return fiber.StatusInternalServerError, genericError
}

func logFailure(c *fiber.Ctx, action string, code int, err error) {
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, action+".fail", err, nil)
		return
	}
	applog.Warn(c, action+".reject", err, map[string]any{"status": code})
}

// jsonError answers {"error": msg}. Internal errors are logged, never echoed.
func jsonError(c *fiber.Ctx, action string, err error) error {
	code, msg := classify(err)
	logFailure(c, action, code, err)
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// pageError renders the friendly error page with the classified status.
func pageError(c *fiber.Ctx, action string, err error) error {
	code, msg := classify(err)
	logFailure(c, action, code, err)
	return c.Status(code).Render("notfound", fiber.Map{"Message": msg})
}
