package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ferhaspert/belo-challenge/internal/adapter/middleware"
	"github.com/ferhaspert/belo-challenge/internal/core/domain"
	"github.com/ferhaspert/belo-challenge/internal/core/ledger"
)

// Ledger is the set of core operations exposed over HTTP.
type Ledger interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	CreateAccount(ctx context.Context, in ledger.CreateAccountInput) (*domain.Account, error)
	ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error)
	CreateTransaction(ctx context.Context, in ledger.CreateTransactionInput) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, id string, status string) (*domain.Transaction, error)
}

var _ Ledger = (*ledger.Service)(nil)

// RegisterRoutes mounts the API under /api plus a /health probe.
func RegisterRoutes(app *fiber.App, l Ledger, idempotency domain.IdempotencyStore) {
	accounts := &AccountHandler{Ledger: l}
	transactions := &TransactionHandler{Ledger: l}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	api.Get("/users", accounts.ListAccounts)
	api.Get("/users/:id", accounts.GetAccount)
	api.Post("/users", accounts.CreateAccount)

	api.Get("/transactions", transactions.ListTransactions)
	api.Post("/transactions", middleware.Idempotency(idempotency), transactions.CreateTransaction)
	api.Patch("/transactions/:id/status", transactions.UpdateStatus)
}
