package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/repository"
	apperrors "github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/pkg/util/errorutil"
)

const msgInvalidCredentials = "invalid credentials"

// AuthService issues access tokens for directory users.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	cost     int
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		cost:     cfg.Auth.BcryptCost,
		logger:   logger,
	}
}

// Login authenticates a user by email and password. Unknown emails and wrong
// passwords produce the same UNAUTHORIZED error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("stored password hash unreadable", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, "", time.Time{}, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if auth.NeedsRehash(user.PasswordHash, s.cost) {
		s.logger.Info("password hash below configured cost", zap.String("user_id", user.ID))
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("user account is inactive")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
