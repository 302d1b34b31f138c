package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ferhaspert/belo-challenge/internal/core/ledger"
)

type AccountHandler struct {
	Ledger Ledger
}

// CreateAccountRequest seeds an account with an opening balance.
type CreateAccountRequest struct {
	Name    string          `json:"name" validate:"required,max=120"`
	Email   string          `json:"email" validate:"required,email,max=254"`
	Balance decimal.Decimal `json:"balance" validate:"nonnegative_decimal"`
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.Ledger.ListAccounts(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accounts)
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.Ledger.GetAccount(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Warn("Invalid account body", "error", err)
		return badRequest(c, "invalid request body")
	}

	if err := validateStruct(req); err != nil {
		return badRequest(c, err.Error())
	}

	account, err := h.Ledger.CreateAccount(c.Context(), ledger.CreateAccountInput{
		Name:    req.Name,
		Email:   req.Email,
		Balance: req.Balance,
	})
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("Account created", "account_id", account.ID)

	return c.Status(http.StatusCreated).JSON(account)
}
