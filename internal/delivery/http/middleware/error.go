package middleware

import (
	"errors"

	"job-service/internal/apperr"
	"job-service/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data interface{}, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

// FromError maps a domain error onto its HTTP status. Anything that is not
// an *apperr.Error becomes a 500.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := ""
	var de *apperr.Error
	if errors.As(err, &de) {
		msg = de.Message
	}

	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return NewAppError(fiber.StatusBadRequest, msg, nil, err)
	case apperr.ErrNotFound:
		return NewAppError(fiber.StatusNotFound, msg, nil, err)
	case apperr.ErrInvalidTransition, apperr.ErrConflict:
		return NewAppError(fiber.StatusConflict, msg, nil, err)
	case apperr.ErrTransient:
		return NewAppError(fiber.StatusServiceUnavailable, response.MessageServiceUnavailable, nil, err)
	default:
		return NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

type ErrorMiddleware struct {
	logger *zap.Logger
}

func NewErrorMiddleware(logger *zap.Logger) *ErrorMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorMiddleware{logger: logger}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Stack("stack"),
				)
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := normalizeError(err)
		if status >= 500 {
			m.logger.Error("request failed",
				zap.Int("status", status),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return response.Error(c, status, msg, data)
	}
}

// normalizeError keeps internal details out of 5xx bodies. 503 is passed
// through so clients can tell a retryable failure apart.
func normalizeError(err error) (int, string, interface{}) {
	if err == nil {
		return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 {
			status = fiber.StatusInternalServerError
		}
		if status >= 500 {
			return collapse(status)
		}

		msg := fiberErr.Message
		if msg == "" {
			msg = defaultMessageForStatus(status)
		}
		return status, msg, nil
	}

	appErr := FromError(err)
	if appErr.StatusCode <= 0 {
		return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
	}

	status := appErr.StatusCode
	if status >= 500 {
		return collapse(status)
	}
	msg := appErr.Message
	if msg == "" {
		msg = defaultMessageForStatus(status)
	}
	return status, msg, appErr.Data
}

func collapse(status int) (int, string, interface{}) {
	if status == fiber.StatusServiceUnavailable {
		return status, response.MessageServiceUnavailable, nil
	}
	return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
}

func defaultMessageForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return response.MessageBadRequest
	case fiber.StatusNotFound:
		return response.MessageNotFound
	case fiber.StatusConflict:
		return response.MessageConflict
	case fiber.StatusUnprocessableEntity:
		return response.MessageUnprocessableEntity
	case fiber.StatusServiceUnavailable:
		return response.MessageServiceUnavailable
	default:
		if status >= 500 {
			return response.MessageInternalServerError
		}
		return response.MessageError
	}
}
