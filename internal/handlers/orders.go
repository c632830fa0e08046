package handlers

import (
	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/services/fees"
	"apega/internal/services/order"
	"apega/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders order.Service
	logger *zap.Logger
}

func NewOrderHandler(orders order.Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

type checkoutRequest struct {
	SellerID      uint            `json:"seller_id" validate:"required"`
	ProductID     uint            `json:"product_id" validate:"required"`
	ProductPrice  decimal.Decimal `json:"product_price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req checkoutRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	method, err := fees.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	o, err := h.orders.Checkout(c.UserContext(), order.CheckoutInput{
		BuyerID:       claims.UserID,
		SellerID:      req.SellerID,
		ProductID:     req.ProductID,
		ProductPrice:  req.ProductPrice,
		ShippingPrice: req.ShippingPrice,
		PaymentMethod: method,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, fiber.Map{"order": o})
}

// ListOrders returns the caller's orders, optionally narrowed with
// ?role=buyer|seller and ?status=.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	role := c.Query("role")
	if role != "" && role != "buyer" && role != "seller" {
		return utils.BadRequest(c, "role must be buyer or seller")
	}

	p := utils.GetPagination(c, 1, 20)
	orders, total, err := h.orders.ListForUser(c.UserContext(), repositories.OrderFilter{
		UserID: claims.UserID,
		Role:   role,
		Status: c.Query("status"),
	}, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(orders, p))
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	o, err := h.orders.Get(c.UserContext(), id, actorOf(claims))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"order": o})
}

type statusRequest struct {
	Status       string `json:"status" validate:"required"`
	TrackingCode string `json:"tracking_code" validate:"max=64"`
	Carrier      string `json:"carrier" validate:"max=64"`
	Reason       string `json:"reason" validate:"max=255"`
}

// UpdateStatus moves an order along its lifecycle. Completing an order
// credits the seller and the buyer's cashback.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	o, err := h.orders.UpdateStatus(c.UserContext(), id, actorOf(claims), order.StatusChange{
		Status:       req.Status,
		TrackingCode: req.TrackingCode,
		Carrier:      req.Carrier,
		Reason:       req.Reason,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"order": o})
}

func actorOf(claims *models.UserClaims) order.Actor {
	return order.Actor{UserID: claims.UserID, Admin: claims.Role == models.RoleAdmin}
}
