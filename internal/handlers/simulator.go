package handlers

import (
	"context"

	"apega/internal/models"
	"apega/internal/services/fees"
	"apega/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Pricer is the live fee calculator.
type Pricer interface {
	Settle(in fees.Input) (fees.Result, error)
	PreviewListing(price decimal.Decimal, tier fees.SellerTier) (fees.ListingPreview, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// SimulatorHandler prices hypothetical sales. Nothing it computes is stored.
type SimulatorHandler struct {
	pricer Pricer
	users  UserLookup
	logger *zap.Logger
}

func NewSimulatorHandler(pricer Pricer, users UserLookup, logger *zap.Logger) *SimulatorHandler {
	return &SimulatorHandler{pricer: pricer, users: users, logger: logger}
}

type simulateRequest struct {
	ProductPrice  decimal.Decimal `json:"product_price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	SellerTier    string          `json:"seller_tier" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
}

// Simulate returns the exact breakdown for the given inputs.
func (h *SimulatorHandler) Simulate(c *fiber.Ctx) error {
	var req simulateRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	tier, err := fees.ParseSellerTier(req.SellerTier)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	method, err := fees.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	res, err := h.pricer.Settle(fees.Input{
		ProductPrice:  req.ProductPrice,
		ShippingPrice: req.ShippingPrice,
		SellerTier:    tier,
		PaymentMethod: method,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.Success(c, fiber.Map{"settlement": res})
}

type previewRequest struct {
	Price decimal.Decimal `json:"price"`
}

// PreviewListing shows a seller what a listing at the given price earns
// at their current tier.
func (h *SimulatorHandler) PreviewListing(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req previewRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	seller, err := h.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	preview, err := h.pricer.PreviewListing(req.Price, seller.SellerTier())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"preview": preview})
}
