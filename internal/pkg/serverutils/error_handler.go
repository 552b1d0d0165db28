package serverutils

import (
	"errors"

	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to the HTTP status the API answers with.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindFile:
		return fiber.StatusBadRequest
	case apperror.KindCredential:
		return fiber.StatusPreconditionFailed
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindSession:
		return fiber.StatusUnprocessableEntity
	case apperror.KindRateLimited:
		return fiber.StatusTooManyRequests
	case apperror.KindTimeout:
		return fiber.StatusGatewayTimeout
	case apperror.KindNetwork, apperror.KindServer:
		return fiber.StatusBadGateway
	case apperror.KindQuota:
		return fiber.StatusInsufficientStorage
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware turns returned errors into the JSON envelope.
// Fiber errors keep their status; everything else goes through the kind
// table.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		kind := apperror.KindOf(err)
		status := StatusFor(kind)
		resp := ErrorResponse(status, apperror.PublicMessage(err))
		resp.Error = &ErrorBody{
			Kind:     string(kind),
			Hint:     apperror.UserMessage(err),
			Severity: string(apperror.SeverityFor(kind)),
		}

		details := map[string]interface{}{
			"method":   ctx.Method(),
			"path":     ctx.Path(),
			"status":   status,
			"kind":     kind,
			"severity": apperror.SeverityFor(kind),
			"error":    err.Error(),
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", details)
		} else {
			log.Warn("HTTP", "Request rejected", details)
		}
		return ctx.Status(status).JSON(resp)
	}
}
