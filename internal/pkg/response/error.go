package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error and logs the cause.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("path", c.FullPath()).
		Msg("request failed")

	if appErr != nil {
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
