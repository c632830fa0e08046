// Package auth issues and revokes API tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("user is not an admin")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrTokenRevoked       = errors.New("token version mismatch")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrWeakPassword       = errors.New("password must have at least 8 characters, a digit and a special character")
	ErrUnknownPlan        = errors.New("unknown subscription plan")
)

// Tokens is a freshly issued pair.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Registration is a new marketplace account. Every account can both buy and
// sell.
type Registration struct {
	Name     string
	Email    string
	Password string
}

type Service interface {
	Register(ctx context.Context, r Registration) (*models.User, Tokens, error)
	Login(ctx context.Context, email, password string) (*models.User, Tokens, error)
	AdminLogin(ctx context.Context, email, password string) (*models.User, Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (Tokens, error)
	Logout(ctx context.Context, userID uint) error
	Profile(ctx context.Context, userID uint) (*models.User, error)
	SetSubscription(ctx context.Context, userID uint, plan string) (*models.User, error)
}

// TokenIssuer is satisfied by utils.TokenManager.
type TokenIssuer interface {
	GenerateTokens(claims *models.UserClaims) (string, string, error)
	ParseToken(token string) (*models.UserClaims, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	IncrementTokenVersion(ctx context.Context, userID uint) error
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
	UpdateSubscription(ctx context.Context, userID uint, subscription string) error
}

type service struct {
	users    UserStore
	tokens   TokenIssuer
	logger   *zap.Logger
	now      func() time.Time
	hashCost int
}

func NewService(users UserStore, tokens TokenIssuer, logger *zap.Logger) Service {
	if users == nil {
		panic("user store is required")
	}
	if tokens == nil {
		panic("token issuer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{users: users, tokens: tokens, logger: logger, now: time.Now, hashCost: bcrypt.DefaultCost}
}

// Register creates a regular account on the free plan and signs it in.
func (s *service) Register(ctx context.Context, r Registration) (*models.User, Tokens, error) {
	if !utils.StrongPassword(r.Password) {
		return nil, Tokens{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.hashCost)
	if err != nil {
		return nil, Tokens{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:            normalizeEmail(r.Email),
		Password:         string(hash),
		Name:             strings.TrimSpace(r.Name),
		Role:             models.RoleUser,
		SubscriptionType: models.SubscriptionFree,
		Status:           models.StatusActive,
		TokenVersion:     1,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, Tokens{}, err
	}

	s.logger.Info("account registered", zap.Uint("user_id", user.ID))
	return s.issue(ctx, user)
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, Tokens, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, Tokens{}, err
	}
	return s.issue(ctx, user)
}

// AdminLogin is Login restricted to the admin role.
func (s *service) AdminLogin(ctx context.Context, email, password string) (*models.User, Tokens, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, Tokens{}, err
	}
	if !user.IsAdmin() {
		s.logger.Warn("admin login refused", zap.Uint("user_id", user.ID))
		return nil, Tokens{}, ErrNotAdmin
	}
	return s.issue(ctx, user)
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (Tokens, error) {
	claims, err := s.tokens.ParseToken(refreshToken)
	if err != nil {
		return Tokens{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return Tokens{}, ErrInvalidToken
		}
		return Tokens{}, err
	}
	if user.TokenVersion != claims.TokenVersion {
		return Tokens{}, ErrTokenRevoked
	}
	if user.Status == models.StatusDisabled {
		return Tokens{}, ErrAccountDisabled
	}

	_, tokens, err := s.sign(user)
	return tokens, err
}

// Logout revokes every token issued to the user so far.
func (s *service) Logout(ctx context.Context, userID uint) error {
	return s.users.IncrementTokenVersion(ctx, userID)
}

func (s *service) Profile(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// SetSubscription moves a user between plans. The new tier applies to
// orders checked out afterwards; existing orders keep their stored rate.
func (s *service) SetSubscription(ctx context.Context, userID uint, plan string) (*models.User, error) {
	plan = strings.ToLower(strings.TrimSpace(plan))
	if !models.ValidSubscription(plan) {
		return nil, ErrUnknownPlan
	}
	if err := s.users.UpdateSubscription(ctx, userID, plan); err != nil {
		return nil, err
	}

	s.logger.Info("subscription changed", zap.Uint("user_id", userID), zap.String("plan", plan))
	return s.users.GetByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Info("login failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Info("login failed: wrong password", zap.Uint("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	if user.Status == models.StatusDisabled {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

func (s *service) issue(ctx context.Context, user *models.User) (*models.User, Tokens, error) {
	user, tokens, err := s.sign(user)
	if err != nil {
		return nil, Tokens{}, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Warn("failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return user, tokens, nil
}

func (s *service) sign(user *models.User) (*models.User, Tokens, error) {
	access, refresh, err := s.tokens.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
	if err != nil {
		return nil, Tokens{}, fmt.Errorf("error generating tokens: %w", err)
	}
	return user, Tokens{AccessToken: access, RefreshToken: refresh}, nil
}
