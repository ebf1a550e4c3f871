package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"smmpanel/internal/middleware"
	"smmpanel/internal/services/catalog"
	"smmpanel/internal/services/fulfillment"
	"smmpanel/internal/services/ledger"
	"smmpanel/internal/utils"
	"smmpanel/internal/validation"
)

type OrderHandler struct {
	orders  fulfillment.Service
	catalog catalog.Service
}

func NewOrderHandler(orders fulfillment.Service, catalogSvc catalog.Service) *OrderHandler {
	return &OrderHandler{orders: orders, catalog: catalogSvc}
}

// PlaceOrder handles POST /api/orders.
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		ServiceID uint   `json:"service_id"`
		Link      string `json:"link"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	order, err := h.orders.PlaceOrder(c.Context(), fulfillment.PlaceOrderRequest{
		UserID:    userID,
		ServiceID: input.ServiceID,
		Link:      input.Link,
		Quantity:  input.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrServiceNotFound):
			return utils.NotFound(c, "service not found")
		case errors.Is(err, validation.ErrInvalidLink),
			errors.Is(err, validation.ErrInvalidQuantity),
			errors.Is(err, fulfillment.ErrInvalidCharge):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return utils.PaymentRequired(c, "insufficient funds")
		case errors.Is(err, ledger.ErrWalletFrozen):
			return utils.Forbidden(c, "wallet is frozen")
		case errors.Is(err, ledger.ErrWalletNotFound):
			return utils.NotFound(c, "wallet not found")
		default:
			return utils.InternalError(c, "failed to place order, please retry")
		}
	}

	// A failed order is still a created order: the charge was reserved and
	// reversed, which the response has to explain rather than hide.
	return utils.Created(c, fiber.Map{"order": order})
}

// CancelOrder handles DELETE /api/orders/:id.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return utils.Unauthorized(c, "unauthorized")
	}

	orderID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "invalid order id")
	}

	order, err := h.orders.CancelOrder(c.Context(), uint(orderID), userID)
	if err != nil {
		switch {
		case errors.Is(err, fulfillment.ErrOrderNotFound):
			return utils.NotFound(c, "order not found")
		case errors.Is(err, fulfillment.ErrOrderNotCancellable):
			return utils.BadRequest(c, "order can no longer be cancelled")
		default:
			return utils.InternalError(c, "failed to cancel order, please retry")
		}
	}

	return utils.Success(c, fiber.Map{"order": order})
}

// GetOrder handles GET /api/orders/:id.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return utils.Unauthorized(c, "unauthorized")
	}

	orderID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		// fall back to treating the path segment as a public reference
		order, refErr := h.orders.GetOrderByReference(c.Context(), c.Params("id"), userID)
		if refErr != nil {
			return utils.NotFound(c, "order not found")
		}
		return utils.Success(c, fiber.Map{"order": order})
	}

	order, err := h.orders.GetOrder(c.Context(), uint(orderID), userID)
	if err != nil {
		return utils.NotFound(c, "order not found")
	}
	return utils.Success(c, fiber.Map{"order": order})
}

// ListOrders handles GET /api/orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
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

	orders, err := h.orders.ListOrders(c.Context(), userID, limit, offset)
	if err != nil {
		return utils.InternalError(c, "failed to list orders")
	}
	return utils.Success(c, fiber.Map{"orders": orders})
}

// ListServices handles GET /api/services.
func (h *OrderHandler) ListServices(c *fiber.Ctx) error {
	services, err := h.catalog.ListServices(c.Context())
	if err != nil {
		return utils.InternalError(c, "failed to list services")
	}
	return utils.Success(c, fiber.Map{"services": services})
}
