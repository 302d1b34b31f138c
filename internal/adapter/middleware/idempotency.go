package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderIdempotencyHit = "X-Idempotency-Hit"
)

// Idempotency replays the first stored response for a repeated Idempotency-Key.
// Conflicts and server errors are not stored so the caller can retry them.
func Idempotency(store domain.IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" {
			return c.Next()
		}

		cached, err := store.LookupResponse(c.Context(), key)
		switch {
		case err == nil:
			slog.Info("Idempotency hit, returning cached response", "key", key)
			c.Set(HeaderIdempotencyHit, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(cached.Status).Send(cached.Body)
		case !errors.Is(err, domain.ErrNotFound):
			slog.Error("Failed to read idempotency key", "error", err, "key", key)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status == http.StatusConflict || status >= http.StatusInternalServerError {
			return nil
		}

		body := append([]byte(nil), c.Response().Body()...)
		if err := store.SaveResponse(c.Context(), key, domain.StoredResponse{Status: status, Body: body}); err != nil {
			slog.Error("Failed to save idempotency key", "error", err, "key", key)
		}

		return nil
	}
}
