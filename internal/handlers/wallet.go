package handlers

import (
	"apega/internal/services/wallet"
	"apega/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService wallet.Service
	logger        *zap.Logger
}

func NewWalletHandler(walletService wallet.Service, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.Success(c, fiber.Map{
		"wallet": w,
	})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	txs, total, err := h.walletService.History(c.UserContext(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(txs, p))
}

type withdrawalRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *WalletHandler) RequestWithdrawal(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req withdrawalRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	tx, err := h.walletService.RequestWithdrawal(c.UserContext(), claims.UserID, req.Amount)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, fiber.Map{"withdrawal": tx})
}
