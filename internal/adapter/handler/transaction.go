package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ferhaspert/belo-challenge/internal/core/ledger"
)

type TransactionHandler struct {
	Ledger Ledger
}

// CreateTransactionRequest accepts the amount as a JSON number or string.
type CreateTransactionRequest struct {
	OriginID      string           `json:"originId"`
	DestinationID string           `json:"destinationId"`
	Amount        *decimal.Decimal `json:"amount"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	accountID := c.Query("accountId")
	if accountID == "" {
		accountID = c.Query("userId")
	}

	txs, err := h.Ledger.ListTransactions(c.Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(txs)
}

func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Warn("Invalid transaction body", "error", err)
		return badRequest(c, "invalid request body")
	}

	t, err := h.Ledger.CreateTransaction(c.Context(), ledger.CreateTransactionInput{
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
		Amount:        req.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(t)
}

func (h *TransactionHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	t, err := h.Ledger.UpdateStatus(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(t)
}
