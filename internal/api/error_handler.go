package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lastmile/delivery-api/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor lists the domain errors a client may see, in match order.
// Messages are fixed so that no internal detail reaches the response.
var statusFor = []struct {
	target error
	code   int
	msg    string
}{
	{domain.ErrUserExists, http.StatusConflict, "user already exists"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "not authenticated"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
}

// NewHTTPErrorHandler renders every error as {"error": msg}. Unknown errors
// are logged and answered with a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := resolveError(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request failed")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, fmt.Sprint(he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	for _, m := range statusFor {
		if errors.Is(err, m.target) {
			return m.code, m.msg
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
