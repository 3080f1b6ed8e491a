package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/repositories"
	"servo-system/pkg/config"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/middleware"
	"servo-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error)
}

type AuthService struct {
	userRepo repositories.UserRepositoryInterface
	cfg      *config.Config
	logger   *zap.Logger
}

func NewAuthService(userRepo repositories.UserRepositoryInterface, cfg *config.Config, logger *zap.Logger) AuthServiceInterface {
	return &AuthService{userRepo: userRepo, cfg: cfg, logger: logger}
}

// Login проверяет пару email/пароль и выдаёт access-токен.
// Причина отказа наружу не уточняется.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrForbidden
		}
		return nil, err
	}
	if !user.IsActive || !utils.CheckPassword(user.Password, payload.Password) {
		s.logger.Warn("Неудачная попытка входа", zap.String("email", payload.Email))
		return nil, apperrors.ErrForbidden
	}

	now := time.Now()
	claims := middleware.Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponseDTO{Token: token}, nil
}
