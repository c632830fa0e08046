package handlers

import (
	"context"
	"time"

	"apega/internal/models"
	"apega/internal/services/fees"
	"apega/internal/services/settings"
	"apega/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettingsManager is the admin view of the fee settings store.
type SettingsManager interface {
	Snapshot() fees.Configuration
	Update(ctx context.Context, changes map[string]decimal.Decimal) (fees.Configuration, error)
}

type OrderSummarizer interface {
	Summary(ctx context.Context) (*models.OrderSummary, error)
}

type WithdrawalProcessor interface {
	ProcessWithdrawal(ctx context.Context, txID uint, approve bool) (*models.Transaction, error)
}

type AdminHandler struct {
	settings    SettingsManager
	orders      OrderSummarizer
	withdrawals WithdrawalProcessor
	logger      *zap.Logger
}

func NewAdminHandler(store SettingsManager, orders OrderSummarizer, withdrawals WithdrawalProcessor, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		settings:    store,
		orders:      orders,
		withdrawals: withdrawals,
		logger:      logger,
	}
}

type settingsResponse struct {
	Settings  map[string]decimal.Decimal `json:"settings"`
	Version   int64                      `json:"version"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// newSettingsResponse renders one snapshot so the version always matches
// the values next to it.
func newSettingsResponse(cfg fees.Configuration) settingsResponse {
	return settingsResponse{Settings: settings.Values(cfg), Version: cfg.Version, UpdatedAt: cfg.UpdatedAt}
}

func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	return utils.Success(c, newSettingsResponse(h.settings.Snapshot()))
}

// UpdateSettings applies every key in the body at once. Either all of them
// take effect or none does.
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var changes map[string]decimal.Decimal
	if err := c.BodyParser(&changes); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	return h.update(c, changes)
}

type settingValueRequest struct {
	Value *decimal.Decimal `json:"value"`
}

func (h *AdminHandler) UpdateSetting(c *fiber.Ctx) error {
	var req settingValueRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if req.Value == nil {
		return utils.ValidationFailed(c, map[string]string{"value": "is required"})
	}
	return h.update(c, map[string]decimal.Decimal{c.Params("key"): *req.Value})
}

func (h *AdminHandler) update(c *fiber.Ctx, changes map[string]decimal.Decimal) error {
	cfg, err := h.settings.Update(c.UserContext(), changes)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if claims, err := claimsOf(c); err == nil {
		h.logger.Info("fee settings changed by admin",
			zap.Uint("admin_id", claims.UserID),
			zap.Int64("version", cfg.Version))
	}
	return utils.Success(c, newSettingsResponse(cfg))
}

func (h *AdminHandler) OrdersSummary(c *fiber.Ctx) error {
	summary, err := h.orders.Summary(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"summary": summary})
}

// ProcessWithdrawal handles POST /admin/withdrawals/:id/:action where action
// is approve or reject.
func (h *AdminHandler) ProcessWithdrawal(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var approve bool
	switch c.Params("action") {
	case "approve":
		approve = true
	case "reject":
		approve = false
	default:
		return utils.BadRequest(c, "action must be approve or reject")
	}

	tx, err := h.withdrawals.ProcessWithdrawal(c.UserContext(), id, approve)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"withdrawal": tx})
}
