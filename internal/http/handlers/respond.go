package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wisdomhub/filekeep/internal/accounts"
	"github.com/wisdomhub/filekeep/internal/http/middlewares"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := middlewares.RequestIDFromContext(ctx); id != "" {
		return id
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

// RespondAccountsError maps service errors onto stable codes. Anything not
// recognised is a 500 with a generic message; the cause was logged by the service.
func RespondAccountsError(ctx *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, accounts.ErrValidation):
		RespondBadRequest(ctx, err.Error(), nil)
	case errors.Is(err, accounts.ErrDuplicateAccount):
		RespondError(ctx, http.StatusBadRequest, "duplicate_account", "User already exists", nil)
	case errors.Is(err, accounts.ErrInvalidCredentials):
		RespondError(ctx, http.StatusBadRequest, "invalid_credentials", "Invalid Credentials", nil)
	case errors.Is(err, accounts.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	default:
		if !errors.Is(err, accounts.ErrServer) && log != nil {
			log.ErrorContext(ctx.Request.Context(), "unexpected handler error", "err", err, "request_id", requestIDFrom(ctx))
		}
		RespondInternal(ctx, "Server error")
	}
}
