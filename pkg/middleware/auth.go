// Файл: pkg/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"servo-system/pkg/config"
	"servo-system/pkg/contextkeys"
	apperrors "servo-system/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Claims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTAuth проверяет Bearer-токен и кладёт UserID в контекст запроса.
func JWTAuth(cfg config.JWTConfig, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "заголовок авторизации отсутствует")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "неверный формат заголовка авторизации")
			}

			claims := new(Claims)
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, apperrors.ErrBadRequest
				}
				return []byte(cfg.SecretKey), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("недопустимый токен", zap.Error(err))
				return echo.NewHTTPError(http.StatusUnauthorized, "недопустимый токен")
			}

			ctx := context.WithValue(c.Request().Context(), contextkeys.UserIDKey, claims.UserID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
