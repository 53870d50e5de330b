// Package middleware provides HTTP middleware for the seat ledger API.
//
// Import Path: seatledger.io/ledger/internal/api/middleware
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "seatledger.io/ledger/internal/pkg/errors"
	"seatledger.io/ledger/internal/pkg/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ErrorHandler renders errors added via c.Error() as ErrorResponse.
// Handlers report failures with c.Error and return; this middleware owns the response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus != http.StatusInternalServerError {
			logger.Warn("Request error",
				zap.String("request_id", GetRequestID(c.Request.Context())),
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus),
			)
			c.JSON(appErr.HTTPStatus, ErrorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
				Params:  appErr.Params,
			})
			return
		}

		// Internal details stay in the log.
		logger.Error("Unhandled request error",
			zap.String("request_id", GetRequestID(c.Request.Context())),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "An internal error occurred",
		})
	}
}
