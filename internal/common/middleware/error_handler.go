package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/logger"
)

const (
	RequestIDKey = "request_id"
	AddressKey   = "address"
)

// Recovery turns panics into INTERNAL_ERROR responses.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := getRequestID(c)

		logger.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		appErr := errors.New(errors.ErrCodeInternal, "Internal server error").
			WithRequestID(requestID).
			WithDetail("panic", fmt.Sprintf("%v", recovered))

		sendErrorResponse(c, appErr)
		c.Abort()
	})
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
	Path      string           `json:"path,omitempty"`
	Method    string           `json:"method,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
// mapErr converts domain errors; nil wraps them as INTERNAL_ERROR.
func ErrorHandler(mapErr func(error) *errors.AppError) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *errors.AppError
		if mapErr != nil {
			appErr = mapErr(err)
		} else if ae, ok := errors.AsAppError(err); ok {
			appErr = ae
		} else {
			appErr = errors.Wrap(err, errors.ErrCodeInternal, "Handler error occurred")
		}

		sendErrorResponse(c, appErr)
	}
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError) {
	requestID := getRequestID(c)

	appErr.WithRequestID(requestID).
		WithContext("path", c.Request.URL.Path).
		WithContext("method", c.Request.Method)
	if address := c.GetString(AddressKey); address != "" && appErr.Address == "" {
		appErr.WithAddress(address)
	}

	response := ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	}

	logError(appErr, c)
	c.JSON(StatusCode(appErr), response)
}

// StatusCode maps an error code to its HTTP status.
func StatusCode(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeTaskNotFound, errors.ErrCodeAttemptNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden, errors.ErrCodeNotRegistered:
		return http.StatusForbidden
	case errors.ErrCodeConflict, errors.ErrCodeTaskDisabled, errors.ErrCodeAlreadyCompleted, errors.ErrCodeAlreadyInFlight:
		return http.StatusConflict
	case errors.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeExternalLedger:
		return http.StatusBadGateway
	case errors.ErrCodeCacheError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func logError(appErr *errors.AppError, c *gin.Context) {
	level, msg := zerolog.ErrorLevel, "Application error occurred"
	switch {
	case appErr.IsInternal():
		msg = "Internal error occurred"
	case appErr.IsUnauthorized():
		level, msg = zerolog.WarnLevel, "Unauthorized access attempt"
	case appErr.IsValidation():
		level, msg = zerolog.InfoLevel, "Validation error"
	case appErr.IsNotFound():
		level, msg = zerolog.InfoLevel, "Resource not found"
	case appErr.IsRejection():
		level, msg = zerolog.InfoLevel, "Completion rejected"
	}

	event := logger.WithLevel(level).
		Str("request_id", getRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message).
		Bool("retryable", appErr.Retryable)

	if address := c.GetString(AddressKey); address != "" {
		event = event.Str("address", address)
	}
	if len(appErr.Details) > 0 {
		detailsJSON, _ := json.Marshal(appErr.Details)
		event = event.RawJSON("details", detailsJSON)
	}
	if appErr.Cause != nil {
		event = event.Err(appErr.Cause)
	}
	event.Msg(msg)
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return "unknown"
}
