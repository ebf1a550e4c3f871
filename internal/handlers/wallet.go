package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"smmpanel/internal/middleware"
	"smmpanel/internal/repositories"
	"smmpanel/internal/services/ledger"
	"smmpanel/internal/services/topup"
	"smmpanel/internal/utils"
)

type WalletHandler struct {
	ledger ledger.Service
	topup  *topup.Service
	repo   repositories.LedgerRepository
}

func NewWalletHandler(ledgerSvc ledger.Service, topupSvc *topup.Service, repo repositories.LedgerRepository) *WalletHandler {
	return &WalletHandler{ledger: ledgerSvc, topup: topupSvc, repo: repo}
}

// GetWallet handles GET /api/wallet.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return utils.Unauthorized(c, "unauthorized")
	}

	wallet, err := h.ledger.GetWallet(c.Context(), userID)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return utils.NotFound(c, "wallet not found")
		}
		return utils.InternalError(c, "failed to get wallet")
	}
	return utils.Success(c, fiber.Map{"wallet": wallet})
}

// ListEntries handles GET /api/wallet/entries.
func (h *WalletHandler) ListEntries(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return utils.Unauthorized(c, "unauthorized")
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := h.repo.ListEntriesByUser(userID, limit, offset)
	if err != nil {
		return utils.InternalError(c, "failed to list ledger entries")
	}
	return utils.Success(c, fiber.Map{"entries": entries})
}

// CreateDeposit handles POST /api/wallet/deposits.
func (h *WalletHandler) CreateDeposit(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		Amount string `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	amount, err := decimal.NewFromString(input.Amount)
	if err != nil {
		return utils.BadRequest(c, "invalid amount")
	}

	intent, err := h.topup.CreateDeposit(c.Context(), userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, topup.ErrInvalidAmount):
			return utils.BadRequest(c, "amount must be positive")
		case errors.Is(err, topup.ErrAmountPrecision):
			return utils.BadRequest(c, "amount must not be finer than cents")
		default:
			return utils.InternalError(c, "failed to create deposit")
		}
	}
	return utils.Created(c, fiber.Map{"deposit": intent})
}

// ConfirmDeposit handles POST /api/wallet/deposits/confirm.
func (h *WalletHandler) ConfirmDeposit(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	if err := c.BodyParser(&input); err != nil || input.PaymentIntentID == "" {
		return utils.BadRequest(c, "invalid request format")
	}

	entry, err := h.topup.ConfirmDeposit(c.Context(), userID, input.PaymentIntentID)
	if err != nil {
		switch {
		case errors.Is(err, topup.ErrAlreadyCredited):
			return utils.Success(c, fiber.Map{"message": "deposit already credited"})
		case errors.Is(err, topup.ErrPaymentIncomplete):
			return utils.BadRequest(c, "payment has not succeeded")
		case errors.Is(err, topup.ErrPaymentMismatch):
			return utils.Forbidden(c, "payment does not belong to this user")
		default:
			return utils.InternalError(c, "failed to confirm deposit")
		}
	}
	return utils.Success(c, fiber.Map{"entry": entry})
}
