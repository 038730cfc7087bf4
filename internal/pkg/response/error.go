package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error.
// Server-side failures are logged with their cause; the cause never reaches the client.
func Error(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: "internal server error"}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status = appErr.Status()
		body = ErrorResponse{Error: appErr.Message, Fields: appErr.Fields}
	}

	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, body)
}
