package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code          string                   `json:"code"`
	Message       string                   `json:"message"`
	CurrentStatus domain.TransactionStatus `json:"currentStatus,omitempty"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidRequest, domain.KindInvalidStatus,
		domain.KindInsufficientFunds, domain.KindAlreadyFinalized:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindBusy, domain.KindDuplicateAccount:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Persistence failures and
// unknown errors are logged and answered with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	var ledgerErr *domain.Error
	if !errors.As(err, &ledgerErr) {
		ledgerErr = domain.PersistenceFailure(err)
	}

	status := statusFor(ledgerErr.Kind)
	body := ErrorResponse{
		Code:          string(ledgerErr.Kind),
		Message:       ledgerErr.Message,
		CurrentStatus: ledgerErr.CurrentStatus,
	}

	switch {
	case status >= http.StatusInternalServerError:
		slog.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		body.Message = "internal error, please try again later"
	case ledgerErr.Kind == domain.KindBusy:
		c.Set(fiber.HeaderRetryAfter, "1")
	}

	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return respondError(c, domain.NewError(domain.KindInvalidRequest, message))
}

// ErrorHandler renders errors that escape the handlers (unknown routes,
// oversized bodies, recovered panics) in the same shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "http_error"
		if fiberErr.Code == fiber.StatusNotFound {
			code = string(domain.KindNotFound)
		}
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Code: code, Message: fiberErr.Message})
	}
	return respondError(c, err)
}
