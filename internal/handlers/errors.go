package handlers

import (
	"errors"

	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/services/auth"
	"apega/internal/services/fees"
	"apega/internal/services/order"
	"apega/internal/services/settings"
	"apega/internal/services/wallet"
	"apega/internal/utils"
	"apega/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses. Anything unknown is
// logged and reported as a 500 without details.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return utils.ValidationFailed(c, verrs.Map())
	}

	switch {
	case errors.Is(err, fees.ErrInvalidInput),
		errors.Is(err, fees.ErrInvalidConfiguration),
		errors.Is(err, settings.ErrUnknownKey),
		errors.Is(err, settings.ErrNoChanges),
		errors.Is(err, order.ErrSelfPurchase),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrUnknownPlan),
		errors.Is(err, wallet.ErrBelowMinimum):
		return utils.BadRequest(c, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenRevoked),
		errors.Is(err, auth.ErrAccountDisabled):
		return utils.Unauthorized(c, err.Error())

	case errors.Is(err, auth.ErrNotAdmin),
		errors.Is(err, order.ErrForbidden):
		return utils.Forbidden(c, err.Error())

	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrSellerNotFound),
		errors.Is(err, wallet.ErrWithdrawalNotFound),
		errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrNotificationNotFound):
		return utils.NotFound(c, err.Error())

	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrCompletionInProgress),
		errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrWalletLocked),
		errors.Is(err, wallet.ErrAlreadyProcessed),
		errors.Is(err, repositories.ErrEmailTaken):
		return utils.Conflict(c, err.Error())
	}

	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return utils.InternalError(c, "internal server error")
}

// parseBody decodes the JSON body into dst and runs the struct validators.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &fees.InputError{Field: "body", Reason: "is not valid JSON"}
	}
	return validation.Struct(dst)
}

func claimsOf(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func pathID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, &fees.InputError{Field: name, Reason: "must be a positive integer"}
	}
	return uint(id), nil
}
