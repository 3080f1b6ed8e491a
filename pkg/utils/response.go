package utils

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "servo-system/pkg/errors"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	response := &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	}
	return ctx.JSON(code, response)
}

// ErrorResponse переводит ошибки сервисного слоя в HTTP-коды.
// Неопознанные ошибки наружу не раскрываются, только логируются.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := http.StatusInternalServerError
	message := "внутренняя ошибка сервера"
	var details interface{}

	var httpErr *apperrors.HttpError
	var invalidInput *apperrors.InvalidInputError
	var configErr *apperrors.ConfigurationError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = httpErr.Message
		if len(httpErr.Details) > 0 {
			details = httpErr.Details
		}
	case errors.Is(err, apperrors.ErrNotFound):
		code = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, apperrors.ErrConflict):
		code = http.StatusConflict
		message = err.Error()
	case errors.Is(err, apperrors.ErrForbidden):
		code = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, apperrors.ErrOrderClosed):
		code = http.StatusConflict
		message = err.Error()
	case errors.Is(err, apperrors.ErrBadRequest):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.As(err, &invalidInput):
		code = http.StatusUnprocessableEntity
		message = invalidInput.Message
	case errors.As(err, &configErr):
		code = http.StatusUnprocessableEntity
		message = configErr.Message
	case errors.As(err, &validationErrs):
		code = http.StatusBadRequest
		message = "ошибка валидации запроса"
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = fe.Tag()
		}
		details = fields
	default:
		logger.Error("Необработанная ошибка запроса",
			zap.String("method", ctx.Request().Method),
			zap.String("uri", ctx.Request().RequestURI),
			zap.Error(err),
		)
	}

	response := &HttpResponse{
		Status:  false,
		Body:    struct{}{},
		Message: message,
		Details: details,
	}
	return ctx.JSON(code, response)
}
