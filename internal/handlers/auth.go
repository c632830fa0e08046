package handlers

import (
	"apega/internal/models"
	"apega/internal/services/auth"
	"apega/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService auth.Service
	logger      *zap.Logger
}

func NewAuthHandler(authService auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func userPayload(user *models.User) fiber.Map {
	return fiber.Map{
		"id":                user.ID,
		"email":             user.Email,
		"name":              user.Name,
		"role":              user.Role,
		"subscription_type": user.SubscriptionType,
		"total_sales":       user.TotalSales,
	}
}

func sessionPayload(user *models.User, tokens auth.Tokens) fiber.Map {
	return fiber.Map{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"user":          userPayload(user),
	}
}

// Register creates a buyer/seller account and returns its first tokens.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, tokens, err := h.authService.Register(c.UserContext(), auth.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, sessionPayload(user, tokens))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, tokens, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, sessionPayload(user, tokens))
}

// AdminLogin authenticates an admin and returns JWT tokens.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, tokens, err := h.authService.AdminLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.Success(c, sessionPayload(user, tokens))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	tokens, err := h.authService.RefreshTokens(c.UserContext(), req.RefreshToken)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, tokens)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	if err := h.authService.Logout(c.UserContext(), claims.UserID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, err := claimsOf(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	user, err := h.authService.Profile(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"user": userPayload(user)})
}

type subscriptionRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free premium"`
}

// UpdateSubscription handles PUT /admin/users/:id/subscription.
func (h *AuthHandler) UpdateSubscription(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req subscriptionRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.authService.SetSubscription(c.UserContext(), id, req.Plan)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"user": userPayload(user)})
}
