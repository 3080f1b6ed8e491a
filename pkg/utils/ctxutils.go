package utils

import (
	"context"

	apperrors "servo-system/pkg/errors"

	"servo-system/pkg/contextkeys"
)

// GetUserIDFromCtx достаёт ID текущего пользователя из контекста запроса.
func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	v := ctx.Value(contextkeys.UserIDKey)
	if v == nil {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}

	switch id := v.(type) {
	case uint64:
		return id, nil
	case int:
		if id <= 0 {
			return 0, apperrors.ErrInvalidUserID
		}
		return uint64(id), nil
	default:
		return 0, apperrors.ErrInvalidUserID
	}
}
